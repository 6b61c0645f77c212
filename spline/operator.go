package spline

import (
	"github.com/notargets/meshxfer/utils"
)

// OperatorC is the symmetric interpolation operator: an
// N-by-N radial basis block sparsified by Pairing, augmented with a
// (dim+1)-row/column polynomial tail enforcing exact reproduction of
// affine fields via a saddle-point structure.
// Solving C coeff = rhs (rhs's last dim+1 entries zero) for coeff is
// OperatorC's job; OperatorA then evaluates coeff at the target set.
type OperatorC struct {
	N      int // number of source centers
	Dim    int
	Matrix utils.DOK
}

// BuildOperatorC assembles C from the source pairing (source-source
// neighbors within the basis's support radius).
func BuildOperatorC(sources *GlobalCenters, pairing *Pairing, basis Basis, dim int) *OperatorC {
	n := sources.Len()
	size := n + dim + 1
	m := utils.NewDOK(size, size)

	for i := 0; i < n; i++ {
		for _, j := range pairing.Neighbors[i] {
			r := dist(sources.Coords[i], sources.Coords[j])
			m.M.Set(i, j, basis.Eval(r))
		}
		// Polynomial tail: constant column, then one column per
		// coordinate axis, symmetric with the transposed row block.
		m.M.Set(i, n, 1)
		m.M.Set(n, i, 1)
		for d := 0; d < dim; d++ {
			v := sources.Coords[i][d]
			m.M.Set(i, n+1+d, v)
			m.M.Set(n+1+d, i, v)
		}
	}

	return &OperatorC{N: n, Dim: dim, Matrix: m}
}

// Size returns C's square dimension, N + dim + 1.
func (c *OperatorC) Size() int { return c.N + c.Dim + 1 }

// OperatorA is the rectangular evaluation operator: for
// each target point, the RBF contribution from its paired source
// neighbors plus the polynomial tail, applied to C's solved coefficient
// vector to produce target values.
type OperatorA struct {
	M      int // number of target points
	N      int // number of source centers (must match the OperatorC it pairs with)
	Dim    int
	Matrix utils.DOK
}

// BuildOperatorA assembles A from the target pairing (source-target
// neighbors within the basis's support radius).
func BuildOperatorA(sources *GlobalCenters, targets [][3]float64, pairing *Pairing, basis Basis, dim int) *OperatorA {
	m := len(targets)
	n := sources.Len()
	mat := utils.NewDOK(m, n+dim+1)

	for i := 0; i < m; i++ {
		for _, j := range pairing.Neighbors[i] {
			r := dist(targets[i], sources.Coords[j])
			mat.M.Set(i, j, basis.Eval(r))
		}
		mat.M.Set(i, n, 1)
		for d := 0; d < dim; d++ {
			mat.M.Set(i, n+1+d, targets[i][d])
		}
	}

	return &OperatorA{M: m, N: n, Dim: dim, Matrix: mat}
}

// Apply evaluates A * coeff for a single field component.
func (a *OperatorA) Apply(coeff []float64) []float64 {
	out := make([]float64, a.M)
	for i := 0; i < a.M; i++ {
		var sum float64
		for j := 0; j < a.N+a.Dim+1; j++ {
			v := a.Matrix.At(i, j)
			if v != 0 {
				sum += v * coeff[j]
			}
		}
		out[i] = sum
	}
	return out
}
