// Package meshtest builds small synthetic meshes shared by this module's
// package tests: fixed, hand-placed node/connectivity tables rather than a
// generator, so every test exercises exactly the geometry the comment above
// it describes.
package meshtest

import "github.com/notargets/meshxfer/meshmodel"

func identityPermutation(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// StackedHexes builds a column of n unit cubes stacked along z, sharing
// vertices at each interface, starting at z=0. Vertex ordering within each
// element follows cell.shapeFunctions' documented Hex order: v0..v3 the
// z=0 face CCW, v4..v7 the z=1 face CCW.
func StackedHexes(n int) *meshmodel.Manager {
	nv := 4 * (n + 1)
	coords := make([]float64, 3*nv)
	handles := make([]meshmodel.Ordinal, nv)
	for layer := 0; layer <= n; layer++ {
		z := float64(layer)
		base := layer * 4
		corners := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		for i, xy := range corners {
			idx := base + i
			handles[idx] = meshmodel.Ordinal(idx)
			coords[0*nv+idx] = xy[0]
			coords[1*nv+idx] = xy[1]
			coords[2*nv+idx] = z
		}
	}

	elementHandles := make([]meshmodel.Ordinal, n)
	connectivity := make([]meshmodel.Ordinal, 8*n)
	for e := 0; e < n; e++ {
		elementHandles[e] = meshmodel.Ordinal(1000 + e)
		lo := e * 4
		hi := (e + 1) * 4
		verts := [8]meshmodel.Ordinal{
			meshmodel.Ordinal(lo), meshmodel.Ordinal(lo + 1), meshmodel.Ordinal(lo + 2), meshmodel.Ordinal(lo + 3),
			meshmodel.Ordinal(hi), meshmodel.Ordinal(hi + 1), meshmodel.Ordinal(hi + 2), meshmodel.Ordinal(hi + 3),
		}
		for local, vh := range verts {
			connectivity[local*n+e] = vh
		}
	}

	block := &meshmodel.Block{
		Dim:            3,
		VertexCoords:   coords,
		VertexHandles:  handles,
		Topology:       meshmodel.Hex,
		VpE:            8,
		ElementHandles: elementHandles,
		Connectivity:   connectivity,
		Permutation:    identityPermutation(8),
	}
	mgr, err := meshmodel.NewManager(3, []*meshmodel.Block{block})
	if err != nil {
		panic(err)
	}
	return mgr
}

// Line builds a chain of n unit line segments along x, sharing an endpoint
// vertex at each interface, starting at x=0.
func Line(n int) *meshmodel.Manager {
	nv := n + 1
	coords := make([]float64, nv)
	handles := make([]meshmodel.Ordinal, nv)
	for i := 0; i <= n; i++ {
		handles[i] = meshmodel.Ordinal(i)
		coords[i] = float64(i)
	}

	elementHandles := make([]meshmodel.Ordinal, n)
	connectivity := make([]meshmodel.Ordinal, 2*n)
	for e := 0; e < n; e++ {
		elementHandles[e] = meshmodel.Ordinal(4000 + e)
		connectivity[0*n+e] = meshmodel.Ordinal(e)
		connectivity[1*n+e] = meshmodel.Ordinal(e + 1)
	}

	block := &meshmodel.Block{
		Dim:            1,
		VertexCoords:   coords,
		VertexHandles:  handles,
		Topology:       meshmodel.Line,
		VpE:            2,
		ElementHandles: elementHandles,
		Connectivity:   connectivity,
		Permutation:    identityPermutation(2),
	}
	mgr, err := meshmodel.NewManager(1, []*meshmodel.Block{block})
	if err != nil {
		panic(err)
	}
	return mgr
}

// UnitTet builds a single tetrahedron occupying the canonical reference
// simplex {(0,0,0),(1,0,0),(0,1,0),(0,0,1)}.
func UnitTet() *meshmodel.Manager {
	coords := []float64{
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	handles := []meshmodel.Ordinal{0, 1, 2, 3}
	block := &meshmodel.Block{
		Dim:            3,
		VertexCoords:   coords,
		VertexHandles:  handles,
		Topology:       meshmodel.Tet,
		VpE:            4,
		ElementHandles: []meshmodel.Ordinal{2000},
		Connectivity:   []meshmodel.Ordinal{0, 1, 2, 3},
		Permutation:    identityPermutation(4),
	}
	mgr, err := meshmodel.NewManager(3, []*meshmodel.Block{block})
	if err != nil {
		panic(err)
	}
	return mgr
}

// SinglePyramid builds one pyramid with a unit square base at z=0 and apex
// at (0.5,0.5,1), in the v0..v3 base / v4 apex order used for the
// tetrahedral split.
func SinglePyramid() *meshmodel.Manager {
	coords := []float64{
		0, 1, 1, 0, 0.5,
		0, 0, 1, 1, 0.5,
		0, 0, 0, 0, 1,
	}
	handles := []meshmodel.Ordinal{10, 11, 12, 13, 14}
	block := &meshmodel.Block{
		Dim:            3,
		VertexCoords:   coords,
		VertexHandles:  handles,
		Topology:       meshmodel.Pyramid,
		VpE:            5,
		ElementHandles: []meshmodel.Ordinal{3000},
		Connectivity:   []meshmodel.Ordinal{10, 11, 12, 13, 14},
		Permutation:    identityPermutation(5),
	}
	mgr, err := meshmodel.NewManager(3, []*meshmodel.Block{block})
	if err != nil {
		panic(err)
	}
	return mgr
}

// MixedTopologyMesh combines a stacked-hex column, a tetrahedron offset
// alongside it, and a pyramid, in three separate blocks sharing no
// vertices, exercising the multi-topology path through buildBlock/Mesh.
func MixedTopologyMesh() *meshmodel.Manager {
	hexes := StackedHexes(2)
	tet := UnitTet()
	pyr := SinglePyramid()

	// Shift the tet and pyramid blocks well clear of the hex column so the
	// three pieces never overlap geometrically.
	shift(tet.Blocks[0], 5, 0, 0)
	shift(pyr.Blocks[0], -5, 0, 0)

	// Offset the tet and pyramid vertex handles past the hex column's so no
	// handle names vertices in two blocks.
	for i, b := range []*meshmodel.Block{tet.Blocks[0], pyr.Blocks[0]} {
		off := meshmodel.Ordinal(100 * (i + 1))
		for k := range b.VertexHandles {
			b.VertexHandles[k] += off
		}
		for k := range b.Connectivity {
			b.Connectivity[k] += off
		}
	}

	blocks := append([]*meshmodel.Block{}, hexes.Blocks...)
	blocks = append(blocks, tet.Blocks...)
	blocks = append(blocks, pyr.Blocks...)

	mgr, err := meshmodel.NewManager(3, blocks)
	if err != nil {
		panic(err)
	}
	return mgr
}

func shift(b *meshmodel.Block, dx, dy, dz float64) {
	nv := b.NumVertices()
	deltas := [3]float64{dx, dy, dz}
	for d := 0; d < b.Dim; d++ {
		for i := 0; i < nv; i++ {
			b.VertexCoords[d*nv+i] += deltas[d]
		}
	}
}
