package meshmodel

import "github.com/notargets/meshxfer/xferr"

// DenseField is a simple in-memory FieldAdapter: dim components packed
// contiguously per point (point-major, i.e. [p0_c0, p0_c1, ..., p1_c0, ...]).
// It is the field adapter used by this module's own tests and examples;
// production callers supply their own FieldAdapter over whatever storage
// their solver already uses.
type DenseField struct {
	dim     int
	npoints int
	data    []float64
}

// NewDenseField allocates a DenseField with npoints*dim zeroed values.
func NewDenseField(dim, npoints int) *DenseField {
	return &DenseField{dim: dim, npoints: npoints, data: make([]float64, dim*npoints)}
}

func (f *DenseField) Dim() int  { return f.dim }
func (f *DenseField) Size() int { return len(f.data) }
func (f *DenseField) Empty() bool {
	return f == nil || len(f.data) == 0
}
func (f *DenseField) Values() []float64 { return f.data }

func (f *DenseField) SetValues(v []float64) {
	if len(v) != len(f.data) {
		panic(xferr.Invariantf("meshmodel: DenseField.SetValues length %d != field size %d", len(v), len(f.data)))
	}
	copy(f.data, v)
}

// At returns the dim values for point i.
func (f *DenseField) At(i int) []float64 {
	return f.data[i*f.dim : (i+1)*f.dim]
}

// Zero reallocates the field to hold dim components per point (the
// shared-domain map only learns the transferred field's dimension at
// Apply time) and zeroes it, satisfying sharedmap.FieldWriter.
func (f *DenseField) Zero(dim int) {
	f.dim = dim
	f.data = make([]float64, dim*f.npoints)
}

// SetPoint overwrites point localIndex's component vector, satisfying
// sharedmap.FieldWriter. Export items from sharedmap.Apply arrive in an
// arbitrary order, so callers must not assume sequential localIndex.
func (f *DenseField) SetPoint(localIndex int, values []float64) {
	if len(values) != f.dim {
		panic(xferr.Invariantf("meshmodel: DenseField.SetPoint got %d values, field dim is %d", len(values), f.dim))
	}
	copy(f.data[localIndex*f.dim:(localIndex+1)*f.dim], values)
}
