// Package bbox implements axis-aligned bounding boxes used as the geometric
// substrate for rendezvous decomposition and mesh/target intersection.
package bbox

import "math"

// Box is a six-value axis-aligned bounding box (xmin, ymin, zmin, xmax,
// ymax, zmax). Dimensions beyond the mesh's actual vertex dimension carry
// (-Inf, +Inf) so 1-D and 2-D boxes compose correctly with 3-D geometry.
type Box struct {
	Min [3]float64
	Max [3]float64
}

// Empty returns the neutral box: (+Inf, ..., -Inf, ...). Reducing Empty with
// any other box returns that other box unchanged, so an empty local mesh
// participates correctly in a global reduction.
func Empty() Box {
	return Box{
		Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}

// Full returns the box that contains all of space: (-Inf, +Inf) in every
// dimension. Useful as the neutral element for Intersect.
func Full() Box {
	return Box{
		Min: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
		Max: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
	}
}

// New builds a Box from explicit bounds. It does not validate min <= max;
// callers that need that invariant enforced should call Valid.
func New(xmin, ymin, zmin, xmax, ymax, zmax float64) Box {
	return Box{
		Min: [3]float64{xmin, ymin, zmin},
		Max: [3]float64{xmax, ymax, zmax},
	}
}

// FromPoint returns the degenerate box containing exactly p.
func FromPoint(p [3]float64) Box {
	return Box{Min: p, Max: p}
}

// Valid reports whether min[d] <= max[d] for every dimension d in [0, dim).
// Dimensions at or beyond dim are not checked (they carry the neutral
// (-Inf, +Inf) pair and are always valid).
func (b Box) Valid(dim int) bool {
	for d := 0; d < dim; d++ {
		if b.Min[d] > b.Max[d] {
			return false
		}
	}
	return true
}

// Contains reports whether p lies within b in every dimension, inclusive of
// the boundary.
func (b Box) Contains(p [3]float64) bool {
	for d := 0; d < 3; d++ {
		if p[d] < b.Min[d] || p[d] > b.Max[d] {
			return false
		}
	}
	return true
}

// ContainsTol is Contains with a per-call tolerance applied to the
// boundary, used when testing points that are expected to sit exactly on a
// face due to floating point roundoff.
func (b Box) ContainsTol(p [3]float64, tol float64) bool {
	for d := 0; d < 3; d++ {
		if p[d] < b.Min[d]-tol || p[d] > b.Max[d]+tol {
			return false
		}
	}
	return true
}

// Intersect returns the componentwise (max(a.Min, b.Min), min(a.Max,
// b.Max)) box and a flag that is true iff the result has nonnegative extent
// in every dimension.
func Intersect(a, b Box) (Box, bool) {
	var out Box
	ok := true
	for d := 0; d < 3; d++ {
		out.Min[d] = math.Max(a.Min[d], b.Min[d])
		out.Max[d] = math.Min(a.Max[d], b.Max[d])
		if out.Min[d] > out.Max[d] {
			ok = false
		}
	}
	return out, ok
}

// Union returns the smallest box enclosing both a and b.
func Union(a, b Box) Box {
	var out Box
	for d := 0; d < 3; d++ {
		out.Min[d] = math.Min(a.Min[d], b.Min[d])
		out.Max[d] = math.Max(a.Max[d], b.Max[d])
	}
	return out
}

// Expand grows b by delta in every dimension, used to build a ghost-layer
// search region around a local RCB box.
func (b Box) Expand(delta float64) Box {
	out := b
	for d := 0; d < 3; d++ {
		out.Min[d] -= delta
		out.Max[d] += delta
	}
	return out
}

// Center returns the box's midpoint.
func (b Box) Center() [3]float64 {
	var c [3]float64
	for d := 0; d < 3; d++ {
		c[d] = 0.5 * (b.Min[d] + b.Max[d])
	}
	return c
}

// Reducer is the minimal capability bbox needs from a communicator to
// perform a global reduction: componentwise min/max all-reduce over 3-value
// vectors. comm.Communicator satisfies this.
type Reducer interface {
	AllReduceMin(local []float64) []float64
	AllReduceMax(local []float64) []float64
}

// GlobalReduce combines local into the communicator-wide tightest enclosing
// box.
func GlobalReduce(c Reducer, local Box) Box {
	mins := c.AllReduceMin(local.Min[:])
	maxs := c.AllReduceMax(local.Max[:])
	var out Box
	copy(out.Min[:], mins)
	copy(out.Max[:], maxs)
	return out
}
