// Package partition builds the per-rank meshmodel.Manager slices a
// distributed run starts from: a METIS graph partition of a whole-domain
// mesh, turned into one mesh slice per rank, generalizing single-topology
// element-to-element METIS wiring to meshmodel's handle-keyed,
// mixed-topology Block representation.
package partition

import (
	"log"

	metis "github.com/notargets/go-metis"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/xferr"
)

// Config mirrors DG3D/mesh/mesh_partitioner.go's PartitionConfig: the
// METIS knobs a distributed run cares about.
type Config struct {
	NumPartitions   int32
	ImbalanceFactor float32 // e.g. 1.05 for 5% imbalance
	UseEdgeWeights  bool
	Objective       string // "cut" or "vol"
}

// DefaultConfig returns the same defaults mesh_partitioner.go ships:
// 5% imbalance, edge-weighted, minimizing communication volume.
func DefaultConfig(nParts int32) *Config {
	return &Config{
		NumPartitions:   nParts,
		ImbalanceFactor: 1.05,
		UseEdgeWeights:  true,
		Objective:       "vol",
	}
}

// elementRef locates one element within a whole mesh's blocks, used to
// walk global element index <-> (block, local index) during adjacency
// construction and slicing.
type elementRef struct {
	block int
	local int
}

// BuildManagers partitions whole into cfg.NumPartitions pieces via METIS
// and returns one meshmodel.Manager per partition, each carrying only the
// elements METIS assigned it and the vertices those elements reference.
// whole is typically the single-rank mesh a test harness or a serial mesh
// reader produces; in a real deployment rank 0 would call this once and
// scatter the results.
func BuildManagers(whole *meshmodel.Manager, cfg *Config) ([]*meshmodel.Manager, error) {
	refs, xadj, adjncy, vwgt, adjwgt := buildMetisGraph(whole)

	opts := make([]int32, metis.NoOptions)
	if err := metis.SetDefaultOptions(opts); err != nil {
		return nil, xferr.Invariantf("partition: METIS SetDefaultOptions failed: %v", err)
	}
	if cfg.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{cfg.ImbalanceFactor}

	var adjwgtArg []int32
	if cfg.UseEdgeWeights {
		adjwgtArg = adjwgt
	}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, vwgt, adjwgtArg, cfg.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		return nil, xferr.Invariantf("partition: METIS partitioning failed: %v", err)
	}
	log.Printf("partition: METIS objective value %d over %d elements into %d parts",
		objval, len(refs), cfg.NumPartitions)

	byPart := make([][]elementRef, cfg.NumPartitions)
	for i, ref := range refs {
		p := int(part[i])
		byPart[p] = append(byPart[p], ref)
	}

	out := make([]*meshmodel.Manager, cfg.NumPartitions)
	for p, refsInPart := range byPart {
		mgr, sliceErr := sliceManager(whole, refsInPart)
		if sliceErr != nil {
			return nil, sliceErr
		}
		out[p] = mgr
	}
	return out, nil
}

// buildMetisGraph flattens every block's elements into one global element
// index space and builds a CSR adjacency graph where two elements are
// linked when they share at least dim vertices -- a topology-agnostic
// proxy for "share a face" since meshmodel.Block, unlike DG3D's Mesh,
// keeps no explicit face table.
func buildMetisGraph(whole *meshmodel.Manager) (refs []elementRef, xadj, adjncy, vwgt, adjwgt []int32) {
	for b, blk := range whole.Blocks {
		for e := 0; e < blk.NumElements(); e++ {
			refs = append(refs, elementRef{block: b, local: e})
		}
	}
	ne := len(refs)
	vwgt = make([]int32, ne)
	vertexElems := make(map[meshmodel.Ordinal][]int)
	for i, r := range refs {
		blk := whole.Blocks[r.block]
		vwgt[i] = int32(blk.Topology.VerticesPerElement())
		for local := 0; local < blk.VpE; local++ {
			vi := blk.ElementVertexIndex(r.local, local)
			vh := blk.VertexHandles[vi]
			vertexElems[vh] = append(vertexElems[vh], i)
		}
	}

	shared := make([]map[int]int, ne) // shared[i][j] = number of vertices i and j share
	for _, elems := range vertexElems {
		for _, i := range elems {
			for _, j := range elems {
				if i == j {
					continue
				}
				if shared[i] == nil {
					shared[i] = make(map[int]int)
				}
				shared[i][j]++
			}
		}
	}

	threshold := whole.Dim
	if threshold < 1 {
		threshold = 1
	}

	xadj = make([]int32, ne+1)
	for i := 0; i < ne; i++ {
		for j, count := range shared[i] {
			if count < threshold {
				continue
			}
			adjncy = append(adjncy, int32(j))
			adjwgt = append(adjwgt, int32(count))
		}
		xadj[i+1] = int32(len(adjncy))
	}

	return refs, xadj, adjncy, vwgt, adjwgt
}

// sliceManager builds a meshmodel.Manager carrying exactly the elements
// in refs, grouped back into per-topology blocks the way the sliceElements
// helper in the rendezvous and sharedmap tests does for a single contiguous range, generalized
// here to an arbitrary element subset spanning multiple whole-mesh
// blocks.
func sliceManager(whole *meshmodel.Manager, refs []elementRef) (*meshmodel.Manager, error) {
	byTopology := make(map[meshmodel.Topology][]elementRef)
	for _, r := range refs {
		topo := whole.Blocks[r.block].Topology
		byTopology[topo] = append(byTopology[topo], r)
	}

	var blocks []*meshmodel.Block
	for topo, group := range byTopology {
		blocks = append(blocks, sliceBlockGroup(whole, topo, group))
	}

	return meshmodel.NewManager(whole.Dim, blocks)
}

func sliceBlockGroup(whole *meshmodel.Manager, topo meshmodel.Topology, group []elementRef) *meshmodel.Block {
	sample := whole.Blocks[group[0].block]
	vpe := sample.VpE
	ne := len(group)

	vertexIndex := make(map[meshmodel.Ordinal]int)
	var handles []meshmodel.Ordinal
	var coords [][3]float64
	connectivity := make([]meshmodel.Ordinal, vpe*ne)
	elementHandles := make([]meshmodel.Ordinal, ne)

	for e, r := range group {
		blk := whole.Blocks[r.block]
		elementHandles[e] = blk.ElementHandles[r.local]
		for local := 0; local < vpe; local++ {
			vi := blk.ElementVertexIndex(r.local, local)
			vh := blk.VertexHandles[vi]
			if _, ok := vertexIndex[vh]; !ok {
				vertexIndex[vh] = len(handles)
				handles = append(handles, vh)
				coords = append(coords, blk.VertexCoord(vi))
			}
			connectivity[local*ne+e] = vh
		}
	}

	nv := len(handles)
	flat := make([]float64, sample.Dim*nv)
	for i, c := range coords {
		for d := 0; d < sample.Dim; d++ {
			flat[d*nv+i] = c[d]
		}
	}

	return &meshmodel.Block{
		Dim:            sample.Dim,
		VertexCoords:   flat,
		VertexHandles:  handles,
		Topology:       topo,
		VpE:            vpe,
		ElementHandles: elementHandles,
		Connectivity:   connectivity,
		Permutation:    append([]int(nil), sample.Permutation...),
	}
}
