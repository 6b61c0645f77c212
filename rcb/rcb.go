// Package rcb implements a recursive coordinate bisection partitioner:
// given a set of weighted points and a target
// number of parts, produce a rank assignment for every input point plus a
// persistent rank_of(point) structure for arbitrary query points.
//
// Every rank in the Communicator computes the identical split tree by
// gathering the full weighted point set once (one AllGatherBytes) and then
// recursing over rank ranges locally and deterministically; this avoids
// needing real communicator splitting for each recursion level, which the
// in-process comm.LocalComm does not support.
package rcb

import (
	"math"
	"sort"

	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/xferr"
)

// Point is one weighted input to the partitioner: a mesh vertex handle,
// its coordinates, and an optional load weight (defaults to 1 when built
// via NewPoint).
type Point struct {
	Handle meshmodel.Ordinal
	Coord  [3]float64
	Weight float64
}

// NewPoint builds a unit-weight Point.
func NewPoint(handle meshmodel.Ordinal, coord [3]float64) Point {
	return Point{Handle: handle, Coord: coord, Weight: 1}
}

// node is one level of the split tree: an internal node carries the
// bisecting axis and threshold; a leaf carries the destination rank.
// rankLo/rankHi record the rank range spanned by this node's subtree so
// RankBox can test subtree membership without a subtree walk.
type node struct {
	isLeaf         bool
	rank           int
	rankLo, rankHi int
	axis           int
	threshold      float64
	left           *node
	right          *node
}

func (n *node) rankOf(coord [3]float64) int {
	for !n.isLeaf {
		if coord[n.axis] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.rank
}

// Partition is the persistent output of Build: a query structure mapping
// any point to a destination rank in [0, NumParts()), plus the concrete
// assignment computed for the points this rank contributed.
type Partition struct {
	root       *node
	dim        int
	nParts     int
	assignment map[meshmodel.Ordinal]int
}

// Build runs RCB over the union of every rank's localPoints, recursing
// ⌈log2(c.Size())⌉ times over rotating coordinate axes, and returns the
// resulting Partition. Every rank must call Build collectively.
func Build(c comm.Communicator, dim int, localPoints []Point) (*Partition, error) {
	if dim < 1 || dim > 3 {
		return nil, xferr.Preconditionf("rcb: dim must be in [1,3], got %d", dim)
	}
	for _, p := range localPoints {
		if p.Weight < 0 {
			return nil, xferr.Preconditionf("rcb: negative weight for handle %d", p.Handle)
		}
	}

	all, err := gatherAllPoints(c, localPoints)
	if err != nil {
		return nil, err
	}

	nParts := c.Size()
	root := buildTree(all, dim, 0, 0, nParts)

	assignment := make(map[meshmodel.Ordinal]int, len(localPoints))
	for _, p := range localPoints {
		assignment[p.Handle] = root.rankOf(p.Coord)
	}

	return &Partition{root: root, dim: dim, nParts: nParts, assignment: assignment}, nil
}

// buildTree recursively bisects points across the rank range [rankLo,
// rankHi), rotating the split axis by one dimension per level, and
// balancing the weight (not the raw count) of points between the two
// halves in proportion to the number of ranks each half receives.
func buildTree(points []Point, dim, axis, rankLo, rankHi int) *node {
	if rankHi-rankLo <= 1 {
		return &node{isLeaf: true, rank: rankLo, rankLo: rankLo, rankHi: rankHi}
	}

	sorted := append([]Point(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Coord[axis] < sorted[j].Coord[axis] })

	rankMid := rankLo + (rankHi-rankLo+1)/2 // ceil half, mirrors PartitionMap.Split1D's larger-left convention
	leftRanks := rankMid - rankLo
	totalRanks := rankHi - rankLo

	totalWeight := 0.0
	for _, p := range sorted {
		totalWeight += p.Weight
	}
	targetLeftWeight := totalWeight * float64(leftRanks) / float64(totalRanks)

	idx := len(sorted)
	cum := 0.0
	for i, p := range sorted {
		cum += p.Weight
		if cum >= targetLeftWeight {
			idx = i + 1
			break
		}
	}
	if idx == 0 {
		idx = 1
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 1 {
		idx = 1
	}
	if len(sorted) == 0 {
		idx = 0
	}

	var threshold float64
	if len(sorted) == 0 {
		threshold = 0
	} else if idx >= len(sorted) {
		threshold = sorted[len(sorted)-1].Coord[axis]
	} else {
		threshold = (sorted[idx-1].Coord[axis] + sorted[idx].Coord[axis]) / 2
	}

	left := sorted[:idx]
	right := sorted[idx:]
	nextAxis := (axis + 1) % dim

	return &node{
		isLeaf:    false,
		axis:      axis,
		threshold: threshold,
		rankLo:    rankLo,
		rankHi:    rankHi,
		left:      buildTree(left, dim, nextAxis, rankLo, rankMid),
		right:     buildTree(right, dim, nextAxis, rankMid, rankHi),
	}
}

// NumParts returns the number of ranks the partition was built for.
func (p *Partition) NumParts() int { return p.nParts }

// RankOf returns the destination rank for an arbitrary query point,
// walking the split tree; this works for points outside the original
// input set as well, since the tree stores axis-aligned thresholds.
func (p *Partition) RankOf(coord [3]float64) int {
	return p.root.rankOf(coord)
}

// AssignedRank returns the rank Build computed for one of this rank's own
// input points, identified by handle.
func (p *Partition) AssignedRank(handle meshmodel.Ordinal) (int, bool) {
	r, ok := p.assignment[handle]
	return r, ok
}

// RankBox returns the axis-aligned region the split tree assigned to rank,
// derived by intersecting the half-space constraint contributed by every
// split on the path from the root to rank's leaf. rendezvous.Build does not
// call it; it routes each element with RankOf instead.
func (p *Partition) RankBox(rank int) bbox.Box {
	box := bbox.Full()
	n := p.root
	for !n.isLeaf {
		if rank >= n.left.rankLo && rank < n.left.rankHi {
			box.Max[n.axis] = math.Min(box.Max[n.axis], n.threshold)
			n = n.left
		} else {
			box.Min[n.axis] = math.Max(box.Min[n.axis], n.threshold)
			n = n.right
		}
	}
	return box
}

func gatherAllPoints(c comm.Communicator, local []Point) ([]Point, error) {
	buf, err := gobEncodePoints(local)
	if err != nil {
		return nil, xferr.Communicationf("rcb: encoding local points: %v", err)
	}
	gathered := c.AllGatherBytes(buf)

	var all []Point
	for r, raw := range gathered {
		var pts []Point
		if err := gobDecodePoints(raw, &pts); err != nil {
			return nil, xferr.Communicationf("rcb: decoding points from rank %d: %v", r, err)
		}
		all = append(all, pts...)
	}
	return all, nil
}
