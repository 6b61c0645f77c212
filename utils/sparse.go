// Package utils is a thin DOK/CSR sparse-matrix wrapper over
// github.com/james-bowman/sparse, exposing just what spline's
// OperatorC/OperatorA assembly calls.
package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is a mutable sparse matrix in dictionary-of-keys form, built up one
// entry at a time via M.Set before being solved or converted to CSR.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

// NewDOK allocates an empty nr-by-nc sparse matrix.
func NewDOK(nr, nc int) DOK {
	return DOK{
		M:    sparse.NewDOK(nr, nc),
		name: "unnamed",
	}
}

// Dims, At and T satisfy gonum's mat.Matrix interface, letting a DOK
// stand in directly as a GMRES operator.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.ToCSR().M.T() }

func (m DOK) RawMatrix() *blas.SparseMatrix { return m.ToCSR().M.RawMatrix() }

func (m DOK) checkWritable() {
	if m.readOnly {
		panic(fmt.Sprintf("utils: attempt to write to read-only matrix %q", m.name))
	}
}

// SetReadOnly marks the matrix as immutable; further M.Set calls panic.
func (m DOK) SetReadOnly(name string) DOK {
	m.readOnly = true
	m.name = name
	return m
}

// ToCSR compacts the matrix into compressed-sparse-row form.
func (m DOK) ToCSR() CSR {
	return CSR{M: m.M.ToCSR(), readOnly: m.readOnly, name: m.name}
}

// CSR is a compressed-sparse-row matrix, the form spline solves against.
type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
