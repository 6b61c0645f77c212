package cell

import (
	"math"

	"github.com/notargets/meshxfer/meshmodel"
	"gonum.org/v1/gonum/mat"
)

// MapToReference inverts an element's geometric map, solving for reference
// coordinates xi such that sum_i N_i(xi)*verts[i] == p. For affine
// (line/tri/tet) elements the Jacobian is constant, so the first Newton
// step lands on the solution and a second, near-zero step confirms
// convergence; higher-order (quad/wedge/hex) elements take several Newton
// steps. Non-convergence within maxNewtonIterations reports ok=false
// ("not in element") rather than erroring.
func MapToReference(topology meshmodel.Topology, verts [][3]float64, p [3]float64, dim int) (xi []float64, ok bool) {
	pdim := ParametricDim(topology)
	if pdim == 0 || pdim > dim {
		return nil, false
	}

	xi = make([]float64, pdim)
	initialGuess(topology, xi)

	jac := mat.NewDense(dim, pdim, nil)
	residual := mat.NewVecDense(dim, nil)
	delta := mat.NewVecDense(pdim, nil)
	jtj := mat.NewDense(pdim, pdim, nil)
	jtr := mat.NewVecDense(pdim, nil)

	for iter := 0; iter < maxNewtonIterations; iter++ {
		n, dn := shapeFunctions(topology, xi)
		if n == nil {
			return nil, false
		}

		var x [3]float64
		for i, ni := range n {
			for d := 0; d < dim; d++ {
				x[d] += ni * verts[i][d]
			}
		}
		for d := 0; d < dim; d++ {
			residual.SetVec(d, p[d]-x[d])
		}

		for d := 0; d < dim; d++ {
			for k := 0; k < pdim; k++ {
				var jdk float64
				for i := range n {
					jdk += dn[i][k] * verts[i][d]
				}
				jac.Set(d, k, jdk)
			}
		}

		jtj.Mul(jac.T(), jac)
		jtr.MulVec(jac.T(), residual)

		var lu mat.LU
		lu.Factorize(jtj)
		if err := delta.SolveVec(&lu, jtr); err != nil {
			return nil, false
		}

		maxStep := 0.0
		for k := 0; k < pdim; k++ {
			xi[k] += delta.AtVec(k)
			if math.Abs(delta.AtVec(k)) > maxStep {
				maxStep = math.Abs(delta.AtVec(k))
			}
		}
		if maxStep < 1e-13 {
			return xi, true
		}
	}
	return xi, false
}

// initialGuess seeds xi at the reference cell's centroid: 1/3 along
// triangle directions, 1/4 along tetrahedron directions, 1/2 along
// tensor-product (quad-like) directions.
func initialGuess(t meshmodel.Topology, xi []float64) {
	for k := range xi {
		xi[k] = 0.5
	}
	switch t {
	case meshmodel.Tri:
		for k := range xi {
			xi[k] = 1.0 / 3.0
		}
	case meshmodel.Tet:
		for k := range xi {
			xi[k] = 0.25
		}
	case meshmodel.Wedge:
		xi[0], xi[1] = 1.0/3.0, 1.0/3.0
	}
}
