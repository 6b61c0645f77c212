package rcb_test

import (
	"sync"
	"testing"

	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/rcb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridPoints lays out an n x n x n grid of unit-weight points, split into
// nRanks contiguous slabs along x so each rank owns a disjoint shard.
func gridPoints(n, nRanks, rank int) []rcb.Point {
	var pts []rcb.Point
	slab := (n + nRanks - 1) / nRanks
	xlo, xhi := rank*slab, (rank+1)*slab
	if xhi > n {
		xhi = n
	}
	for ix := xlo; ix < xhi; ix++ {
		for iy := 0; iy < n; iy++ {
			for iz := 0; iz < n; iz++ {
				h := meshmodel.Ordinal(ix*n*n + iy*n + iz)
				pts = append(pts, rcb.NewPoint(h, [3]float64{float64(ix), float64(iy), float64(iz)}))
			}
		}
	}
	return pts
}

func TestRCBCoverageAndConsistency(t *testing.T) {
	nRanks := 4
	n := 8
	comms := comm.NewLocalWorld(nRanks)

	var mu sync.Mutex
	assignments := make(map[meshmodel.Ordinal]int)
	partitions := make([]*rcb.Partition, nRanks)

	var wg sync.WaitGroup
	wg.Add(nRanks)
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			local := gridPoints(n, nRanks, c.Rank())
			part, err := rcb.Build(c, 3, local)
			require.NoError(t, err)

			mu.Lock()
			partitions[c.Rank()] = part
			for _, p := range local {
				r, ok := part.AssignedRank(p.Handle)
				require.True(t, ok)
				assignments[p.Handle] = r
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every vertex claimed by exactly one rank.
	assert.Equal(t, n*n*n, len(assignments))

	// rank_of(v) is identical across every rank's independently built tree.
	for handle, rank := range assignments {
		ix := int(handle) / (n * n)
		iy := (int(handle) / n) % n
		iz := int(handle) % n
		coord := [3]float64{float64(ix), float64(iy), float64(iz)}
		for r := 0; r < nRanks; r++ {
			assert.Equal(t, rank, partitions[r].RankOf(coord))
		}
	}
}

func TestRCBLoadBalance(t *testing.T) {
	nRanks := 4
	n := 20
	comms := comm.NewLocalWorld(nRanks)

	counts := make([]int, nRanks)
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(nRanks)
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			local := gridPoints(n, nRanks, c.Rank())
			part, err := rcb.Build(c, 3, local)
			require.NoError(t, err)
			localCounts := make([]int, nRanks)
			for _, p := range local {
				r, _ := part.AssignedRank(p.Handle)
				localCounts[r]++
			}
			mu.Lock()
			for r := range counts {
				counts[r] += localCounts[r]
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	total := n * n * n
	avg := float64(total) / float64(nRanks)
	for _, c := range counts {
		assert.InDelta(t, avg, float64(c), avg*0.15)
	}
}

func TestRCBSingleRankIsIdentity(t *testing.T) {
	comms := comm.NewLocalWorld(1)
	pts := gridPoints(3, 1, 0)
	part, err := rcb.Build(comms[0], 3, pts)
	require.NoError(t, err)
	for _, p := range pts {
		r, ok := part.AssignedRank(p.Handle)
		require.True(t, ok)
		assert.Equal(t, 0, r)
	}
}
