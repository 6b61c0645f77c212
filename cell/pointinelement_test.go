package cell_test

import (
	"testing"

	"github.com/notargets/meshxfer/cell"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/stretchr/testify/assert"
)

func TestPointInUnitTet(t *testing.T) {
	r := cell.NewRegistry()
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	assert.True(t, r.PointInAny(meshmodel.Tet, verts, [3]float64{0.1, 0.1, 0.1}, 3, cell.Tolerance))
	assert.False(t, r.PointInAny(meshmodel.Tet, verts, [3]float64{0.9, 0.9, 0.9}, 3, cell.Tolerance))
	assert.True(t, r.PointInAny(meshmodel.Tet, verts, [3]float64{0, 0, 0}, 3, cell.Tolerance))
}

func TestPointInUnitHex(t *testing.T) {
	r := cell.NewRegistry()
	verts := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	assert.True(t, r.PointInAny(meshmodel.Hex, verts, [3]float64{0.5, 0.5, 0.5}, 3, cell.Tolerance))
	assert.False(t, r.PointInAny(meshmodel.Hex, verts, [3]float64{1.5, 0.5, 0.5}, 3, cell.Tolerance))
}

func TestStackedHexAlongZ(t *testing.T) {
	r := cell.NewRegistry()
	// hex occupying z in [2,3]
	verts := [][3]float64{
		{0, 0, 2}, {1, 0, 2}, {1, 1, 2}, {0, 1, 2},
		{0, 0, 3}, {1, 0, 3}, {1, 1, 3}, {0, 1, 3},
	}
	assert.True(t, r.PointInAny(meshmodel.Hex, verts, [3]float64{0.5, 0.5, 2.5}, 3, cell.Tolerance))
}

// Pyramid with base [0,1]^2 at z=0, apex at (0.5, 0.5, 1).
func pyramidVerts() [][3]float64 {
	return [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0.5, 0.5, 1},
	}
}

func TestPyramidContainment(t *testing.T) {
	r := cell.NewRegistry()
	verts := pyramidVerts()

	assert.True(t, r.PointInPyramid(verts, [3]float64{0.5, 0.5, 0.5}, 3, cell.Tolerance), "center point should be inside")
	assert.False(t, r.PointInPyramid(verts, [3]float64{0.9, 0.9, 0.9}, 3, cell.Tolerance), "corner-ward point near apex should be outside")
	assert.True(t, r.PointInPyramid(verts, [3]float64{0.5, 0.5, 0.0}, 3, 1e-6), "base-center boundary point should be inside within tolerance")
}

func TestLineSegment(t *testing.T) {
	r := cell.NewRegistry()
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}}
	assert.True(t, r.PointInAny(meshmodel.Line, verts, [3]float64{0.5, 0, 0}, 1, cell.Tolerance))
	assert.False(t, r.PointInAny(meshmodel.Line, verts, [3]float64{1.5, 0, 0}, 1, cell.Tolerance))
}

func TestWedge(t *testing.T) {
	r := cell.NewRegistry()
	verts := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1},
	}
	assert.True(t, r.PointInAny(meshmodel.Wedge, verts, [3]float64{0.2, 0.2, 0.5}, 3, cell.Tolerance))
	assert.False(t, r.PointInAny(meshmodel.Wedge, verts, [3]float64{0.9, 0.9, 0.5}, 3, cell.Tolerance))
}
