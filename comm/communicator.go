// Package comm implements an SPMD communication substrate: a fixed-size
// set of P processes coordinating exclusively by
// collective and point-to-point message passing. This is expressed as a
// runtime capability interface
// (Communicator) rather than a concrete MPI binding, so the core compiles
// once against any backend that satisfies it. This package ships one
// concrete implementation, LocalComm (built by NewLocalWorld), an in-process goroutine+channel
// backend modeled on a mailbox post/deliver/receive pattern; a production
// deployment would supply an MPI- or gRPC-backed
// Communicator instead.
package comm

// ReduceOp identifies a reduction operator for AllReduce-family calls.
type ReduceOp int

const (
	OpSum ReduceOp = iota
	OpMin
	OpMax
)

// Communicator is the capability interface every meshxfer component
// depends on for parallel coordination. Every collective method here
// (Barrier, Bcast, the AllReduce family, AllGatherBytes, AllToAll) is a
// suspension point: it blocks until its matching calls on every other
// rank have arrived. Send posts its message and returns without waiting
// for the receiver; Recv blocks until a matching message arrives.
type Communicator interface {
	Rank() int
	Size() int

	// Barrier blocks until every rank has called Barrier.
	Barrier()

	// Bcast broadcasts data from root to every rank. On root, data is
	// sent as-is; on every other rank the return value is root's data.
	Bcast(root int, data []byte) []byte

	// AllReduceSum, AllReduceMin, AllReduceMax perform a componentwise
	// reduction of local across every rank, visible identically to all
	// ranks.
	AllReduceSum(local []float64) []float64
	AllReduceMin(local []float64) []float64
	AllReduceMax(local []float64) []float64

	// AllReduceSumInt64 is AllReduceSum's integer counterpart, used for
	// counts and ordinals.
	AllReduceSumInt64(local []int64) []int64
	AllReduceMaxInt64(local []int64) []int64

	// AllReduceBoolOr returns true on every rank iff local was true on at
	// least one rank. Used by Collective to detect a fatal condition on
	// any single rank without deadlocking the others.
	AllReduceBoolOr(local bool) bool

	// AllGatherBytes gathers one []byte payload per rank, returned in
	// rank order identically on every rank.
	AllGatherBytes(local []byte) [][]byte

	// AllToAll exchanges a length-Size() count vector: sendCounts[j] is
	// the number of items this rank will send to rank j. The returned
	// recvCounts[i] is the number of items rank i will send to this
	// rank.
	AllToAll(sendCounts []int) (recvCounts []int)

	// Send transmits data to dest tagged with tag. Send may be called
	// concurrently by any number of callers as long as {dest,tag} pairs
	// used concurrently by this rank are distinct.
	Send(dest, tag int, data []byte)

	// Recv blocks until a message tagged tag has arrived from source,
	// then returns its payload.
	Recv(source, tag int) []byte
}

// reduceCombine returns the scalar combine function for op.
func reduceCombine(op ReduceOp) func(a, b float64) float64 {
	switch op {
	case OpSum:
		return func(a, b float64) float64 { return a + b }
	case OpMin:
		return func(a, b float64) float64 {
			if b < a {
				return b
			}
			return a
		}
	case OpMax:
		return func(a, b float64) float64 {
			if b > a {
				return b
			}
			return a
		}
	default:
		panic("comm: unknown ReduceOp")
	}
}
