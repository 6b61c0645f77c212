// Package rendezvous implements a secondary geometric decomposition: a
// point-location search substrate built by
// repartitioning source elements with RCB over an "interesting region",
// redistributing them to their new owners, and indexing the result with a
// kD-tree so any rank can resolve procs_containing_points and
// elements_containing_points in a bounded number of rounds.
package rendezvous

import (
	"github.com/notargets/meshxfer/cell"
	"github.com/notargets/meshxfer/kdtree"
	"github.com/notargets/meshxfer/meshmodel"
)

// fragment is the wire representation of one source element crossing from
// its original owning rank to its RCB-assigned rendezvous rank: element
// handle, connectivity, and owning source rank, plus
// the coordinates of each connected vertex, since the receiving rank has
// no other way to learn them.
type fragment struct {
	Handle        meshmodel.Ordinal
	SourceRank    int
	Topology      meshmodel.Topology
	Permutation   []int
	VertexHandles []meshmodel.Ordinal
	VertexCoords  [][3]float64
}

// elemLoc locates one rendezvous element within its topology's Block.
type elemLoc struct {
	topology meshmodel.Topology
	index    int
}

// Mesh is the local, post-redistribution mesh a rendezvous rank holds:
// elements from potentially many original source ranks, grouped into one
// Block per topology, plus a kD-tree over their centroids and an
// element-handle -> owning-source-rank map, the extra state a rendezvous
// mesh carries beyond a plain Manager.
type Mesh struct {
	dim int

	blocks       map[meshmodel.Topology]*meshmodel.Block
	locator      map[meshmodel.Ordinal]elemLoc
	sourceRankOf map[meshmodel.Ordinal]int

	tree     *kdtree.Tree
	registry *cell.Registry
}

// buildMesh groups fragments by topology into Blocks, deduplicating
// vertices by handle within each topology group, and indexes the result
// with a kD-tree.
func buildMesh(dim int, frags []fragment, registry *cell.Registry) *Mesh {
	byTopology := make(map[meshmodel.Topology][]fragment)
	sourceRankOf := make(map[meshmodel.Ordinal]int, len(frags))
	for _, f := range frags {
		byTopology[f.Topology] = append(byTopology[f.Topology], f)
		sourceRankOf[f.Handle] = f.SourceRank
	}

	blocks := make(map[meshmodel.Topology]*meshmodel.Block, len(byTopology))
	locator := make(map[meshmodel.Ordinal]elemLoc, len(frags))
	var kdElements []kdtree.Element

	for topology, fs := range byTopology {
		blk := buildBlock(dim, topology, fs)
		blocks[topology] = blk
		for e := 0; e < blk.NumElements(); e++ {
			handle := blk.ElementHandles[e]
			locator[handle] = elemLoc{topology: topology, index: e}
			kdElements = append(kdElements, kdtree.Element{
				Handle:   handle,
				Centroid: centroidOf(blk, e),
				Bounds:   blk.ElementBounds(e),
			})
		}
	}

	return &Mesh{
		dim:          dim,
		blocks:       blocks,
		locator:      locator,
		sourceRankOf: sourceRankOf,
		tree:         kdtree.Build(kdElements, dim),
		registry:     registry,
	}
}

// buildBlock assembles one topology's Block from its fragments. Since
// fragment.VertexHandles already carries global vertex handles, Block's
// handle-keyed Connectivity array can be written directly without any
// local renumbering.
func buildBlock(dim int, topology meshmodel.Topology, frags []fragment) *meshmodel.Block {
	vertexIndex := make(map[meshmodel.Ordinal]int)
	var vertexHandles []meshmodel.Ordinal
	var vertexCoords [][3]float64

	vpe := len(frags[0].VertexHandles)
	connectivity := make([]meshmodel.Ordinal, vpe*len(frags))
	elementHandles := make([]meshmodel.Ordinal, len(frags))

	for e, f := range frags {
		elementHandles[e] = f.Handle
		for local, vh := range f.VertexHandles {
			if _, ok := vertexIndex[vh]; !ok {
				vertexIndex[vh] = len(vertexHandles)
				vertexHandles = append(vertexHandles, vh)
				vertexCoords = append(vertexCoords, f.VertexCoords[local])
			}
			connectivity[local*len(frags)+e] = vh
		}
	}

	nv := len(vertexHandles)
	flatCoords := make([]float64, dim*nv)
	for i, c := range vertexCoords {
		for d := 0; d < dim; d++ {
			flatCoords[d*nv+i] = c[d]
		}
	}

	return &meshmodel.Block{
		Dim:            dim,
		VertexCoords:   flatCoords,
		VertexHandles:  vertexHandles,
		Topology:       topology,
		VpE:            vpe,
		ElementHandles: elementHandles,
		Connectivity:   connectivity,
		Permutation:    frags[0].Permutation,
	}
}

func centroidOf(b *meshmodel.Block, elem int) [3]float64 {
	var sum [3]float64
	for local := 0; local < b.VpE; local++ {
		vi := b.ElementVertexIndex(elem, local)
		p := b.VertexCoord(vi)
		for d := 0; d < 3; d++ {
			sum[d] += p[d]
		}
	}
	n := float64(b.VpE)
	for d := 0; d < 3; d++ {
		sum[d] /= n
	}
	return sum
}

// NumElements returns the number of elements held locally after
// redistribution.
func (m *Mesh) NumElements() int {
	n := 0
	for _, b := range m.blocks {
		n += b.NumElements()
	}
	return n
}

// SourceRankOf returns the rank that originally owned the element (before
// rendezvous redistribution), used to route evaluation requests back to
// the correct source rank.
func (m *Mesh) SourceRankOf(handle meshmodel.Ordinal) (int, bool) {
	r, ok := m.sourceRankOf[handle]
	return r, ok
}

// vertsCanonical returns the canonical-order vertex coordinates of handle,
// or nil, false if the handle is not held locally.
func (m *Mesh) vertsCanonical(handle meshmodel.Ordinal) ([][3]float64, meshmodel.Topology, bool) {
	loc, ok := m.locator[handle]
	if !ok {
		return nil, 0, false
	}
	blk := m.blocks[loc.topology]
	return blk.ElementVertexCoordsCanonical(loc.index), loc.topology, true
}

// locate builds the kdtree.Locator this Mesh's tree is queried with for a
// given tolerance: it maps p into handle's reference frame and tests
// inclusion via the cell registry, dispatching pyramids to their fixed
// tetrahedral split.
func (m *Mesh) locate(tol float64) kdtree.Locator {
	return func(handle meshmodel.Ordinal, p [3]float64) bool {
		verts, topology, ok := m.vertsCanonical(handle)
		if !ok {
			return false
		}
		return m.registry.PointInAny(topology, verts, p, m.dim, tol)
	}
}

// FindElementContaining returns the element handle containing p, or the
// sentinel if none of this rank's rendezvous elements contains it.
func (m *Mesh) FindElementContaining(p [3]float64, tol float64) meshmodel.Ordinal {
	return m.tree.FindContaining(p, m.locate(tol))
}
