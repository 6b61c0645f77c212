package spline

import (
	"math"

	"github.com/notargets/meshxfer/xferr"
	"gonum.org/v1/gonum/mat"
)

// GMRESResult reports a restarted GMRES solve's outcome.
type GMRESResult struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// SolveGMRES solves A x = b with restarted GMRES, restarting every
// restartLength iterations, for up to maxIterations total iterations or
// until the relative residual falls below tol. A need not be symmetric,
// matching the saddle-point structure of OperatorC's polynomial tail.
// This is a direct, unblocked restarted GMRES rather than a block
// variant sharing one Krylov subspace across right-hand-side columns.
func SolveGMRES(A mat.Matrix, b *mat.VecDense, restartLength, maxIterations int, tol float64) (*mat.VecDense, GMRESResult, error) {
	n, _ := A.Dims()
	if restartLength <= 0 {
		restartLength = n
	}
	if restartLength > n {
		restartLength = n
	}

	x := mat.NewVecDense(n, nil)
	bNorm := mat.Norm(b, 2)
	if bNorm == 0 {
		return x, GMRESResult{Converged: true}, nil
	}

	totalIters := 0
	for totalIters < maxIterations {
		r := mat.NewVecDense(n, nil)
		var ax mat.VecDense
		ax.MulVec(A, x)
		r.SubVec(b, &ax)
		beta := mat.Norm(r, 2)
		if beta/bNorm < tol {
			return x, GMRESResult{Iterations: totalIters, Residual: beta / bNorm, Converged: true}, nil
		}

		m := restartLength
		if maxIterations-totalIters < m {
			m = maxIterations - totalIters
		}
		if m == 0 {
			break
		}

		q := make([]*mat.VecDense, m+1)
		q[0] = mat.NewVecDense(n, nil)
		q[0].ScaleVec(1/beta, r)

		h := mat.NewDense(m+1, m, nil)
		cs := make([]float64, m)
		sn := make([]float64, m)
		g := make([]float64, m+1)
		g[0] = beta

		k := 0
		for ; k < m; k++ {
			var w mat.VecDense
			w.MulVec(A, q[k])

			for i := 0; i <= k; i++ {
				hik := mat.Dot(&w, q[i])
				h.Set(i, k, hik)
				var scaled mat.VecDense
				scaled.ScaleVec(hik, q[i])
				w.SubVec(&w, &scaled)
			}
			hNext := mat.Norm(&w, 2)
			h.Set(k+1, k, hNext)

			for i := 0; i < k; i++ {
				a, b2 := h.At(i, k), h.At(i+1, k)
				h.Set(i, k, cs[i]*a+sn[i]*b2)
				h.Set(i+1, k, -sn[i]*a+cs[i]*b2)
			}
			denom := math.Hypot(h.At(k, k), h.At(k+1, k))
			if denom == 0 {
				cs[k], sn[k] = 1, 0
			} else {
				cs[k] = h.At(k, k) / denom
				sn[k] = h.At(k+1, k) / denom
			}
			h.Set(k, k, cs[k]*h.At(k, k)+sn[k]*h.At(k+1, k))
			h.Set(k+1, k, 0)

			g[k+1] = -sn[k] * g[k]
			g[k] = cs[k] * g[k]

			totalIters++
			if math.Abs(g[k+1])/bNorm < tol {
				k++
				break
			}

			if hNext == 0 {
				k++
				break
			}
			q[k+1] = mat.NewVecDense(n, nil)
			q[k+1].ScaleVec(1/hNext, &w)
		}

		// Back-substitute the upper-triangular Hessenberg system H[0:k,0:k] y = g[0:k].
		y := make([]float64, k)
		for i := k - 1; i >= 0; i-- {
			sum := g[i]
			for j := i + 1; j < k; j++ {
				sum -= h.At(i, j) * y[j]
			}
			if h.At(i, i) == 0 {
				y[i] = 0
				continue
			}
			y[i] = sum / h.At(i, i)
		}

		update := mat.NewVecDense(n, nil)
		for i := 0; i < k; i++ {
			var term mat.VecDense
			term.ScaleVec(y[i], q[i])
			update.AddVec(update, &term)
		}
		x.AddVec(x, update)

		if k < m {
			// Converged within this restart cycle.
			var ax2 mat.VecDense
			ax2.MulVec(A, x)
			var r2 mat.VecDense
			r2.SubVec(b, &ax2)
			res := mat.Norm(&r2, 2) / bNorm
			return x, GMRESResult{Iterations: totalIters, Residual: res, Converged: res < tol}, nil
		}
	}

	var ax mat.VecDense
	ax.MulVec(A, x)
	var r mat.VecDense
	r.SubVec(b, &ax)
	res := mat.Norm(&r, 2) / bNorm
	if res >= tol {
		return x, GMRESResult{Iterations: totalIters, Residual: res, Converged: false}, xferr.NonConvergencef("spline: GMRES failed to converge to tolerance %g within %d iterations, residual %g", tol, maxIterations, res)
	}
	return x, GMRESResult{Iterations: totalIters, Residual: res, Converged: true}, nil
}

// solveGMRESColumns solves A X = B column by column, one restarted GMRES
// solve per column of the multi-component right-hand side, rather than a
// true block-Krylov method sharing one subspace across columns.
func solveGMRESColumns(A mat.Matrix, rhs [][]float64, restartLength, maxIterations int, tol float64) ([][]float64, error) {
	if len(rhs) == 0 {
		return nil, nil
	}
	n, _ := A.Dims()
	ncols := len(rhs[0])
	solved := make([][]float64, n)
	for i := range solved {
		solved[i] = make([]float64, ncols)
	}
	for col := 0; col < ncols; col++ {
		bcol := make([]float64, n)
		for i := 0; i < n; i++ {
			bcol[i] = rhs[i][col]
		}
		b := mat.NewVecDense(n, bcol)
		x, _, err := SolveGMRES(A, b, restartLength, maxIterations, tol)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			solved[i][col] = x.AtVec(i)
		}
	}
	return solved, nil
}
