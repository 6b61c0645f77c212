package cell

import "github.com/notargets/meshxfer/meshmodel"

// ParametricDim returns the reference cell's parametric dimension (the
// length of a reference-coordinate vector xi), as distinct from the
// embedding (world) dimension.
func ParametricDim(t meshmodel.Topology) int {
	switch t {
	case meshmodel.Line:
		return 1
	case meshmodel.Tri, meshmodel.Quad:
		return 2
	case meshmodel.Tet, meshmodel.Wedge, meshmodel.Hex:
		return 3
	default:
		return 0
	}
}

// shapeFunctions evaluates the linear/bilinear/trilinear reference-cell
// shape functions N_i(xi) and their derivatives dN_i/dxi_k at xi, in the
// canonical vertex ordering documented per topology below.
//
// Vertex orderings (all reference cells live on [0,1]^pdim or the unit
// simplex):
//
//	Line:   v0=0, v1=1
//	Tri:    v0=(0,0), v1=(1,0), v2=(0,1)
//	Quad:   v0=(0,0), v1=(1,0), v2=(1,1), v3=(0,1)
//	Tet:    v0=(0,0,0), v1=(1,0,0), v2=(0,1,0), v3=(0,0,1)
//	Wedge:  v0..v2 triangle at zeta=0, v3..v5 triangle at zeta=1
//	Hex:    v0..v3 quad at zeta=0 (CCW), v4..v7 quad at zeta=1 (CCW)
func shapeFunctions(t meshmodel.Topology, xi []float64) (n []float64, dn [][]float64) {
	switch t {
	case meshmodel.Line:
		u := xi[0]
		return []float64{1 - u, u}, [][]float64{{-1}, {1}}

	case meshmodel.Tri:
		u, v := xi[0], xi[1]
		return []float64{1 - u - v, u, v},
			[][]float64{{-1, -1}, {1, 0}, {0, 1}}

	case meshmodel.Quad:
		u, v := xi[0], xi[1]
		n = []float64{
			(1 - u) * (1 - v),
			u * (1 - v),
			u * v,
			(1 - u) * v,
		}
		dn = [][]float64{
			{-(1 - v), -(1 - u)},
			{(1 - v), -u},
			{v, u},
			{-v, (1 - u)},
		}
		return n, dn

	case meshmodel.Tet:
		u, v, w := xi[0], xi[1], xi[2]
		return []float64{1 - u - v - w, u, v, w},
			[][]float64{{-1, -1, -1}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	case meshmodel.Wedge:
		u, v, w := xi[0], xi[1], xi[2]
		l0, l1, l2 := 1-u-v, u, v
		n = []float64{
			l0 * (1 - w), l1 * (1 - w), l2 * (1 - w),
			l0 * w, l1 * w, l2 * w,
		}
		dn = [][]float64{
			{-(1 - w), -(1 - w), -l0},
			{(1 - w), 0, -l1},
			{0, (1 - w), -l2},
			{-w, -w, l0},
			{w, 0, l1},
			{0, w, l2},
		}
		return n, dn

	case meshmodel.Hex:
		u, v, w := xi[0], xi[1], xi[2]
		// bit pattern per vertex: (u-bit, v-bit, w-bit)
		bits := [8][3]int{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
		}
		lu := [2]float64{1 - u, u}
		lv := [2]float64{1 - v, v}
		lw := [2]float64{1 - w, w}
		dlu := [2]float64{-1, 1}
		dlv := [2]float64{-1, 1}
		dlw := [2]float64{-1, 1}
		n = make([]float64, 8)
		dn = make([][]float64, 8)
		for i, b := range bits {
			n[i] = lu[b[0]] * lv[b[1]] * lw[b[2]]
			dn[i] = []float64{
				dlu[b[0]] * lv[b[1]] * lw[b[2]],
				lu[b[0]] * dlv[b[1]] * lw[b[2]],
				lu[b[0]] * lv[b[1]] * dlw[b[2]],
			}
		}
		return n, dn

	default:
		return nil, nil
	}
}
