package meshmodel

import (
	"fmt"
	"math"

	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/xferr"
)

// Block is a contiguous block of elements of a single topology within one
// rank's local mesh. Coordinates and connectivity are
// block-strided: VertexCoords holds all x's, then all y's, then all z's;
// Connectivity is blocked the same way across the vpE dimension.
type Block struct {
	Dim int // vertex dimension, 1, 2, or 3

	VertexCoords  []float64 // length Dim*Nv
	VertexHandles []Ordinal // length Nv

	Topology Topology
	VpE      int // vertices per element, constant within the block

	ElementHandles []Ordinal // length Ne
	Connectivity   []Ordinal // length VpE*Ne, vertex handles, block-strided

	// Permutation maps the caller's connectivity ordering to the reference
	// cell's canonical ordering: canonical[i] = caller[Permutation[i]].
	Permutation []int

	vertexIndex map[Ordinal]int
}

// buildVertexIndex lazily builds the handle->local-index lookup used by
// ElementVertexIndex.
func (b *Block) buildVertexIndex() {
	if b.vertexIndex != nil {
		return
	}
	b.vertexIndex = make(map[Ordinal]int, len(b.VertexHandles))
	for i, h := range b.VertexHandles {
		b.vertexIndex[h] = i
	}
}

// NumVertices returns Nv, the number of vertices in the block.
func (b *Block) NumVertices() int {
	return len(b.VertexHandles)
}

// NumElements returns Ne, the number of elements in the block.
func (b *Block) NumElements() int {
	return len(b.ElementHandles)
}

// VertexCoord returns the coordinates of the i'th vertex in the block.
func (b *Block) VertexCoord(i int) [3]float64 {
	var p [3]float64
	nv := b.NumVertices()
	for d := 0; d < b.Dim; d++ {
		p[d] = b.VertexCoords[d*nv+i]
	}
	return p
}

// ElementVertexIndex returns the block-local vertex index for the local'th
// vertex (in caller ordering) of element elem.
func (b *Block) ElementVertexIndex(elem, local int) int {
	b.buildVertexIndex()
	handle := b.Connectivity[local*b.NumElements()+elem]
	i, ok := b.vertexIndex[handle]
	if !ok {
		panic(fmt.Sprintf("meshmodel: connectivity handle %d not present in block vertex set", handle))
	}
	return i
}

// ElementVertexCoordsCanonical returns the VpE vertex coordinates of
// element elem, reordered into the reference cell's canonical vertex
// order via Permutation.
func (b *Block) ElementVertexCoordsCanonical(elem int) [][3]float64 {
	out := make([][3]float64, b.VpE)
	for canon, callerIdx := range b.Permutation {
		vi := b.ElementVertexIndex(elem, callerIdx)
		out[canon] = b.VertexCoord(vi)
	}
	return out
}

// Validate checks the block's structural invariants: consistent lengths,
// vertex dimension in {1,2,3}, and vpE matching the topology's canonical
// vertex count (or exceeding it for higher-order blocks, in which case
// only the leading linear vertices are used for point location).
func (b *Block) Validate() error {
	if b.Dim < 1 || b.Dim > 3 {
		return xferr.Preconditionf("meshmodel: block vertex dimension %d not in {1,2,3}", b.Dim)
	}
	nv := b.NumVertices()
	if len(b.VertexCoords) != b.Dim*nv {
		return xferr.Preconditionf("meshmodel: block coordinate array length %d != dim*Nv (%d*%d)", len(b.VertexCoords), b.Dim, nv)
	}
	ne := b.NumElements()
	if len(b.Connectivity) != b.VpE*ne {
		return xferr.Preconditionf("meshmodel: block connectivity length %d != vpE*Ne (%d*%d)", len(b.Connectivity), b.VpE, ne)
	}
	if b.VpE < b.Topology.VerticesPerElement() {
		return xferr.Preconditionf("meshmodel: block vpE %d smaller than topology %s minimum %d", b.VpE, b.Topology, b.Topology.VerticesPerElement())
	}
	if len(b.Permutation) != b.VpE {
		return xferr.Preconditionf("meshmodel: block permutation length %d != vpE %d", len(b.Permutation), b.VpE)
	}
	return nil
}

// BoundsOf returns the axis-aligned bounding box of the block's vertices.
// Dimensions at or beyond Dim carry (-Inf, +Inf).
func (b *Block) BoundsOf() bbox.Box {
	out := bbox.Empty()
	nv := b.NumVertices()
	for i := 0; i < nv; i++ {
		p := b.VertexCoord(i)
		for d := 0; d < 3; d++ {
			if p[d] < out.Min[d] {
				out.Min[d] = p[d]
			}
			if p[d] > out.Max[d] {
				out.Max[d] = p[d]
			}
		}
	}
	for d := b.Dim; d < 3; d++ {
		out.Min[d], out.Max[d] = math.Inf(-1), math.Inf(1)
	}
	return out
}

// ElementBounds returns the axis-aligned bounding box of a single element's
// vertices. Dimensions at or beyond Dim carry (-Inf, +Inf).
func (b *Block) ElementBounds(elem int) bbox.Box {
	out := bbox.Empty()
	for local := 0; local < b.VpE; local++ {
		vi := b.ElementVertexIndex(elem, local)
		p := b.VertexCoord(vi)
		for d := 0; d < 3; d++ {
			if p[d] < out.Min[d] {
				out.Min[d] = p[d]
			}
			if p[d] > out.Max[d] {
				out.Max[d] = p[d]
			}
		}
	}
	for d := b.Dim; d < 3; d++ {
		out.Min[d], out.Max[d] = math.Inf(-1), math.Inf(1)
	}
	return out
}
