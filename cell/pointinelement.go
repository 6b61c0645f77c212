package cell

import (
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/xferr"
)

// PointInElement performs a two-stage test: map p into
// the element's reference frame, then test inclusion against the
// registered reference cell. tol is interpreted in reference coordinates.
// Pyramids are never looked up in the registry directly; use
// PointInPyramid instead.
func (r *Registry) PointInElement(topology meshmodel.Topology, verts [][3]float64, p [3]float64, dim int, tol float64) bool {
	ref, ok := r.Lookup(topology)
	if !ok {
		return false
	}
	xi, converged := MapToReference(topology, verts, p, dim)
	if !converged {
		return false
	}
	return ref.CheckInclusion(xi, tol)
}

// PointInPyramid tests inclusion in a 5-vertex pyramid by splitting it into
// two tetrahedra sharing the apex and the base diagonal.
// For vertices ordered v0..v4 with v4 the apex: tetrahedron 1 =
// {v0,v1,v2,v4}, tetrahedron 2 = {v0,v2,v3,v4}. This split (the v0-v2
// diagonal, not v1-v3) is fixed for bit-exact compatibility and must
// never be made configurable.
func (r *Registry) PointInPyramid(verts [][3]float64, p [3]float64, dim int, tol float64) bool {
	if len(verts) != 5 {
		panic(xferr.Preconditionf("cell: pyramid expects 5 vertices, got %d", len(verts)))
	}
	tet1 := [][3]float64{verts[0], verts[1], verts[2], verts[4]}
	tet2 := [][3]float64{verts[0], verts[2], verts[3], verts[4]}
	return r.PointInElement(meshmodel.Tet, tet1, p, dim, tol) ||
		r.PointInElement(meshmodel.Tet, tet2, p, dim, tol)
}

// PointInAny dispatches to PointInPyramid for meshmodel.Pyramid and to
// PointInElement otherwise. It is the single entry point the kD-tree and
// rendezvous packages use so neither has to special-case the pyramid
// topology itself.
func (r *Registry) PointInAny(topology meshmodel.Topology, verts [][3]float64, p [3]float64, dim int, tol float64) bool {
	if topology == meshmodel.Pyramid {
		return r.PointInPyramid(verts, p, dim, tol)
	}
	return r.PointInElement(topology, verts, p, dim, tol)
}
