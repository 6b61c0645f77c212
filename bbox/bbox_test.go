package bbox_test

import (
	"testing"

	"github.com/notargets/meshxfer/bbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersectClosure(t *testing.T) {
	a := bbox.New(0, 0, 0, 1, 1, 1)
	b := bbox.New(0.5, 0.5, 0.5, 1.5, 1.5, 1.5)

	inter, ok := bbox.Intersect(a, b)
	require.True(t, ok)

	pts := [][3]float64{
		{0.75, 0.75, 0.75}, // in both
		{0.25, 0.25, 0.25}, // in a only
		{1.25, 1.25, 1.25}, // in b only
		{2, 2, 2},          // in neither
	}
	for _, p := range pts {
		want := a.Contains(p) && b.Contains(p)
		got := inter.Contains(p)
		assert.Equal(t, want, got, "point %v", p)
	}
}

func TestIntersectDisjoint(t *testing.T) {
	a := bbox.New(0, 0, 0, 1, 1, 1)
	b := bbox.New(2, 2, 2, 3, 3, 3)
	_, ok := bbox.Intersect(a, b)
	assert.False(t, ok)
}

func TestEmptyIsNeutralForUnion(t *testing.T) {
	a := bbox.New(0, 0, 0, 1, 1, 1)
	u := bbox.Union(bbox.Empty(), a)
	assert.Equal(t, a, u)
}

func TestFullIsNeutralForIntersect(t *testing.T) {
	a := bbox.New(-3, -3, -3, 4, 4, 4)
	i, ok := bbox.Intersect(bbox.Full(), a)
	require.True(t, ok)
	assert.Equal(t, a, i)
}

type fakeReducer struct{ boxes []bbox.Box }

func (f fakeReducer) AllReduceMin(local []float64) []float64 {
	out := append([]float64(nil), local...)
	for _, b := range f.boxes {
		for d := range out {
			if b.Min[d] < out[d] {
				out[d] = b.Min[d]
			}
		}
	}
	return out
}

func (f fakeReducer) AllReduceMax(local []float64) []float64 {
	out := append([]float64(nil), local...)
	for _, b := range f.boxes {
		for d := range out {
			if b.Max[d] > out[d] {
				out[d] = b.Max[d]
			}
		}
	}
	return out
}

func TestGlobalReduce(t *testing.T) {
	boxes := []bbox.Box{
		bbox.New(0, 0, 0, 1, 1, 1),
		bbox.New(-1, 2, 0, 0, 3, 5),
	}
	r := fakeReducer{boxes: boxes}
	global := bbox.GlobalReduce(r, bbox.Empty())
	assert.Equal(t, bbox.New(-1, 0, 0, 1, 3, 5), global)
}
