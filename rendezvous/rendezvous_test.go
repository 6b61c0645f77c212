package rendezvous_test

import (
	"sync"
	"testing"

	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/cell"
	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/meshtest"
	"github.com/notargets/meshxfer/rendezvous"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceElements extracts elements [lo,hi) of a single-block manager into a
// fresh Manager carrying only the vertices those elements reference, so
// each rank in the tests below owns a genuinely disjoint slab.
func sliceElements(mgr *meshmodel.Manager, lo, hi int) *meshmodel.Manager {
	blk := mgr.Blocks[0]
	vpe := blk.VpE
	ne := hi - lo

	vertexIndex := make(map[meshmodel.Ordinal]int)
	var handles []meshmodel.Ordinal
	var coords [][3]float64
	connectivity := make([]meshmodel.Ordinal, vpe*ne)
	elementHandles := make([]meshmodel.Ordinal, ne)

	for e := lo; e < hi; e++ {
		elementHandles[e-lo] = blk.ElementHandles[e]
		for local := 0; local < vpe; local++ {
			vi := blk.ElementVertexIndex(e, local)
			vh := blk.VertexHandles[vi]
			if _, ok := vertexIndex[vh]; !ok {
				vertexIndex[vh] = len(handles)
				handles = append(handles, vh)
				coords = append(coords, blk.VertexCoord(vi))
			}
			connectivity[local*ne+(e-lo)] = vh
		}
	}

	nv := len(handles)
	flat := make([]float64, blk.Dim*nv)
	for i, c := range coords {
		for d := 0; d < blk.Dim; d++ {
			flat[d*nv+i] = c[d]
		}
	}

	sliced := &meshmodel.Block{
		Dim:            blk.Dim,
		VertexCoords:   flat,
		VertexHandles:  handles,
		Topology:       blk.Topology,
		VpE:            vpe,
		ElementHandles: elementHandles,
		Connectivity:   connectivity,
		Permutation:    append([]int(nil), blk.Permutation...),
	}
	out, err := meshmodel.NewManager(blk.Dim, []*meshmodel.Block{sliced})
	if err != nil {
		panic(err)
	}
	return out
}

func TestRendezvousFindsStackedHexElements(t *testing.T) {
	nRanks := 4
	n := 8 // 8 hexes stacked along z, split 2 per rank
	whole := meshtest.StackedHexes(n)
	registry := cell.NewRegistry()

	comms := comm.NewLocalWorld(nRanks)
	var wg sync.WaitGroup
	wg.Add(nRanks)

	results := make([]*rendezvous.Rendezvous, nRanks)
	var mu sync.Mutex

	perRank := n / nRanks
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			lo, hi := c.Rank()*perRank, (c.Rank()+1)*perRank
			local := sliceElements(whole, lo, hi)
			rz, err := rendezvous.Build(c, 3, local, bbox.Full(), registry)
			require.NoError(t, err)
			mu.Lock()
			results[c.Rank()] = rz
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every rendezvous rank's Rendezvous agrees on which rank owns a given
	// query point (ProcsContainingPoints uses the shared RCB partition).
	queryPoints := [][3]float64{{0.5, 0.5, 0.5}, {0.5, 0.5, 3.5}, {0.5, 0.5, 7.5}}
	var ranksPerPoint [][]int
	for _, rz := range results {
		ranksPerPoint = append(ranksPerPoint, rz.ProcsContainingPoints(queryPoints))
	}
	for i := 1; i < len(ranksPerPoint); i++ {
		assert.Equal(t, ranksPerPoint[0], ranksPerPoint[i])
	}

	// Every query point that lies inside the stacked column is found by
	// exactly the rendezvous rank that ProcsContainingPoints named.
	for pi, p := range queryPoints {
		owner := ranksPerPoint[0][pi]
		handles, sourceRanks := results[owner].ElementsContainingPoints([][3]float64{p}, 1e-8)
		require.NotEqual(t, meshmodel.Sentinel, handles[0])
		assert.True(t, sourceRanks[0] >= 0 && sourceRanks[0] < nRanks)
	}
}

// straddlingLineMesh builds a 1-D mesh of two narrow line elements at
// [0,1] and [2,3], leaving the interval (1,2) covered by no narrow
// element, plus one wide element spanning [0,3] end to end. The wide
// element's bounding box necessarily straddles wherever an RCB split
// along the sole (x) axis lands, since it covers the full extent of every
// other vertex in the mesh.
func straddlingLineMesh() *meshmodel.Manager {
	coords := []float64{0, 1, 2, 3}
	handles := []meshmodel.Ordinal{0, 1, 2, 3}
	block := &meshmodel.Block{
		Dim:            1,
		VertexCoords:   coords,
		VertexHandles:  handles,
		Topology:       meshmodel.Line,
		VpE:            2,
		ElementHandles: []meshmodel.Ordinal{100, 101, 102},
		// block-strided: local vertex 0 of every element, then local vertex 1
		Connectivity: []meshmodel.Ordinal{0, 2, 0, 1, 3, 3},
		Permutation:  []int{0, 1},
	}
	mgr, err := meshmodel.NewManager(1, []*meshmodel.Block{block})
	if err != nil {
		panic(err)
	}
	return mgr
}

func TestRendezvousStraddlingElementLandsOnExactlyOneRank(t *testing.T) {
	nRanks := 2
	whole := straddlingLineMesh()
	registry := cell.NewRegistry()
	comms := comm.NewLocalWorld(nRanks)

	var wg sync.WaitGroup
	wg.Add(nRanks)
	results := make([]*rendezvous.Rendezvous, nRanks)
	var mu sync.Mutex
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			var local *meshmodel.Manager
			if c.Rank() == 0 {
				local = whole
			}
			rz, err := rendezvous.Build(c, 1, local, bbox.Full(), registry)
			require.NoError(t, err)
			mu.Lock()
			results[c.Rank()] = rz
			mu.Unlock()
		}()
	}
	wg.Wait()

	total := 0
	for _, rz := range results {
		total += rz.NumLocalElements()
	}
	assert.Equal(t, 3, total, "every source element, including the straddling one, must appear exactly once across all rendezvous ranks")

	// x=1.4 lies in the gap the two narrow elements leave uncovered, so
	// only the wide, box-straddling element can answer this query. If it
	// were duplicated onto every overlapping rank, more than one rank
	// would report a hit here.
	query := [][3]float64{{1.4, 0, 0}}
	hits := 0
	for _, rz := range results {
		handles, _ := rz.ElementsContainingPoints(query, 1e-8)
		if handles[0] != meshmodel.Sentinel {
			hits++
		}
	}
	assert.Equal(t, 1, hits, "a box-straddling element must be found by exactly one rendezvous rank")
}

func TestRendezvousMissOutsideMesh(t *testing.T) {
	nRanks := 2
	whole := meshtest.StackedHexes(4)
	registry := cell.NewRegistry()
	comms := comm.NewLocalWorld(nRanks)

	var wg sync.WaitGroup
	wg.Add(nRanks)
	results := make([]*rendezvous.Rendezvous, nRanks)
	var mu sync.Mutex
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			lo, hi := c.Rank()*2, (c.Rank()+1)*2
			local := sliceElements(whole, lo, hi)
			rz, err := rendezvous.Build(c, 3, local, bbox.Full(), registry)
			require.NoError(t, err)
			mu.Lock()
			results[c.Rank()] = rz
			mu.Unlock()
		}()
	}
	wg.Wait()

	far := [3]float64{100, 100, 100}
	owner := results[0].ProcsContainingPoints([][3]float64{far})[0]
	handles, _ := results[owner].ElementsContainingPoints([][3]float64{far}, 1e-8)
	assert.Equal(t, meshmodel.Sentinel, handles[0])
}
