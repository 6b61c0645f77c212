package comm_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/notargets/meshxfer/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAll spawns one goroutine per rank in comms and runs fn concurrently,
// waiting for all to finish.
func runAll(comms []*comm.LocalComm, fn func(c *comm.LocalComm)) {
	var wg sync.WaitGroup
	wg.Add(len(comms))
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			fn(c)
		}()
	}
	wg.Wait()
}

func TestLocalWorldBarrier(t *testing.T) {
	comms := comm.NewLocalWorld(4)
	require.Len(t, comms, 4)
	runAll(comms, func(c *comm.LocalComm) {
		c.Barrier()
	})
}

func TestLocalWorldBcast(t *testing.T) {
	comms := comm.NewLocalWorld(3)
	var results [3][]byte
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		var payload []byte
		if c.Rank() == 1 {
			payload = []byte("hello from root")
		}
		got := c.Bcast(1, payload)
		mu.Lock()
		results[c.Rank()] = got
		mu.Unlock()
	})
	for _, r := range results {
		assert.Equal(t, "hello from root", string(r))
	}
}

func TestLocalWorldAllReduceSum(t *testing.T) {
	comms := comm.NewLocalWorld(4)
	var results [4][]float64
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		local := []float64{float64(c.Rank()), 1}
		got := c.AllReduceSum(local)
		mu.Lock()
		results[c.Rank()] = got
		mu.Unlock()
	})
	for _, r := range results {
		assert.Equal(t, []float64{0 + 1 + 2 + 3, 4}, r)
	}
}

func TestLocalWorldAllReduceBoolOr(t *testing.T) {
	comms := comm.NewLocalWorld(5)
	var results [5]bool
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		got := c.AllReduceBoolOr(c.Rank() == 3)
		mu.Lock()
		results[c.Rank()] = got
		mu.Unlock()
	})
	for _, r := range results {
		assert.True(t, r)
	}
}

func TestLocalWorldAllToAll(t *testing.T) {
	comms := comm.NewLocalWorld(3)
	var results [3][]int
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		sendCounts := make([]int, 3)
		for j := range sendCounts {
			sendCounts[j] = c.Rank() + j
		}
		got := c.AllToAll(sendCounts)
		mu.Lock()
		results[c.Rank()] = got
		mu.Unlock()
	})
	for i, r := range results {
		for j := range r {
			assert.Equal(t, j+i, r[j])
		}
	}
}

func TestLocalWorldSendRecv(t *testing.T) {
	comms := comm.NewLocalWorld(2)
	var received []byte
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		comms[0].Send(1, 7, []byte("ping"))
	}()
	go func() {
		defer wg.Done()
		received = comms[1].Recv(0, 7)
	}()
	wg.Wait()
	assert.Equal(t, "ping", string(received))
}

func TestIndexer(t *testing.T) {
	comms := comm.NewLocalWorld(5)
	inChild := func(r int) bool { return r%2 == 0 } // ranks 0,2,4

	var idxs [5]*comm.Indexer
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		idx := comm.NewIndexer(c, inChild(c.Rank()))
		mu.Lock()
		idxs[c.Rank()] = idx
		mu.Unlock()
	})

	for _, idx := range idxs {
		require.Equal(t, 3, idx.Size())
		assert.Equal(t, []int{0, 2, 4}, idx.ParentRanks())

		child, ok := idx.ChildRank(2)
		require.True(t, ok)
		assert.Equal(t, 1, child)
		assert.Equal(t, 2, idx.ParentRank(1))

		_, ok = idx.ChildRank(3)
		assert.False(t, ok)
		assert.True(t, idx.IsInChild(4))
		assert.False(t, idx.IsInChild(3))
	}
}

func TestCollectiveAllSucceed(t *testing.T) {
	comms := comm.NewLocalWorld(3)
	var errs [3]error
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		err := comm.Collective(c, func() error { return nil })
		mu.Lock()
		errs[c.Rank()] = err
		mu.Unlock()
	})
	for _, e := range errs {
		assert.NoError(t, e)
	}
}

func TestCollectiveOneRankFails(t *testing.T) {
	comms := comm.NewLocalWorld(3)
	var errs [3]error
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		err := comm.Collective(c, func() error {
			if c.Rank() == 2 {
				panic("boom")
			}
			return nil
		})
		mu.Lock()
		errs[c.Rank()] = err
		mu.Unlock()
	})
	for _, e := range errs {
		assert.Error(t, e)
	}
}

func TestPlanDistributor(t *testing.T) {
	comms := comm.NewLocalWorld(3)
	// Each rank owns 3 items; item i on rank r goes to rank (r+i) % 3.
	var received [3][]string
	var mu sync.Mutex
	runAll(comms, func(c *comm.LocalComm) {
		dest := make([]int, 3)
		payloads := make([][]byte, 3)
		for i := 0; i < 3; i++ {
			dest[i] = (c.Rank() + i) % 3
			payloads[i] = []byte(payloadName(c.Rank(), i))
		}
		plan, err := comm.CreateFromSends(c, dest)
		require.NoError(t, err)
		out, err := plan.DoPostsAndWaits(payloads)
		require.NoError(t, err)
		require.Equal(t, plan.TotalRecvItems(), len(out))

		strs := make([]string, len(out))
		for i, b := range out {
			strs[i] = string(b)
		}
		mu.Lock()
		received[c.Rank()] = strs
		mu.Unlock()
	})

	total := 0
	for _, r := range received {
		total += len(r)
	}
	assert.Equal(t, 9, total)
}

func payloadName(rank, item int) string {
	return "r" + strconv.Itoa(rank) + "-i" + strconv.Itoa(item)
}
