// Package cell implements a cell-topology registry and point-in-element
// test: mapping a world-space point into an element's
// reference frame and testing inclusion against the canonical reference
// cell, with a dedicated pyramid decomposition into two tetrahedra.
package cell

import (
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/xferr"
)

// Tolerance is a default tolerance, interpreted in reference coordinates,
// for callers to pass as tol; CheckInclusion always uses the tol it is
// given and has no fallback of its own.
const Tolerance = 1e-8

// maxNewtonIterations caps the Newton solve for higher-order reference
// mappings; non-convergence within this budget is reported as "not in
// element" rather than raised as an error.
const maxNewtonIterations = 30

// Reference describes one supported topology's canonical reference cell.
type Reference struct {
	Topology    meshmodel.Topology
	NumVertices int

	// CheckInclusion reports whether reference coordinates xi (length
	// equal to the cell's parametric dimension) lie inside the cell,
	// within tol.
	CheckInclusion func(xi []float64, tol float64) bool
}

// Registry maps a topology to its Reference.
type Registry struct {
	refs map[meshmodel.Topology]Reference
}

// NewRegistry builds the registry of all supported topologies.
func NewRegistry() *Registry {
	r := &Registry{refs: make(map[meshmodel.Topology]Reference)}
	r.register(Reference{Topology: meshmodel.Line, NumVertices: 2, CheckInclusion: checkLine})
	r.register(Reference{Topology: meshmodel.Tri, NumVertices: 3, CheckInclusion: checkTri})
	r.register(Reference{Topology: meshmodel.Quad, NumVertices: 4, CheckInclusion: checkQuad})
	r.register(Reference{Topology: meshmodel.Tet, NumVertices: 4, CheckInclusion: checkTet})
	r.register(Reference{Topology: meshmodel.Wedge, NumVertices: 6, CheckInclusion: checkWedge})
	r.register(Reference{Topology: meshmodel.Hex, NumVertices: 8, CheckInclusion: checkHex})
	// Pyramid has no reference-inclusion predicate of its own: it is
	// handled entirely by splitting into two tetrahedra (see
	// pointinelement.go), so MapToReference never needs to
	// invert a pyramid's reference basis.
	return r
}

func (r *Registry) register(ref Reference) {
	r.refs[ref.Topology] = ref
}

// Lookup returns the Reference for a topology. ok is false for Pyramid and
// for any unsupported topology.
func (r *Registry) Lookup(t meshmodel.Topology) (Reference, bool) {
	ref, ok := r.refs[t]
	return ref, ok
}

func checkLine(xi []float64, tol float64) bool {
	return xi[0] >= -tol && xi[0] <= 1+tol
}

func checkTri(xi []float64, tol float64) bool {
	u, v := xi[0], xi[1]
	return u >= -tol && v >= -tol && u+v <= 1+tol
}

func checkQuad(xi []float64, tol float64) bool {
	return inUnitInterval(xi[0], tol) && inUnitInterval(xi[1], tol)
}

func checkTet(xi []float64, tol float64) bool {
	u, v, w := xi[0], xi[1], xi[2]
	return u >= -tol && v >= -tol && w >= -tol && u+v+w <= 1+tol
}

func checkWedge(xi []float64, tol float64) bool {
	u, v, w := xi[0], xi[1], xi[2]
	return u >= -tol && v >= -tol && u+v <= 1+tol && inUnitInterval(w, tol)
}

func checkHex(xi []float64, tol float64) bool {
	return inUnitInterval(xi[0], tol) && inUnitInterval(xi[1], tol) && inUnitInterval(xi[2], tol)
}

func inUnitInterval(x, tol float64) bool {
	return x >= -tol && x <= 1+tol
}

func precondition(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(xferr.Preconditionf(format, args...))
	}
}
