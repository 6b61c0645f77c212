package meshmodel_test

import (
	"testing"

	"github.com/notargets/meshxfer/meshmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a single unit tet at the origin
func unitTetBlock() *meshmodel.Block {
	return &meshmodel.Block{
		Dim: 3,
		VertexCoords: []float64{
			0, 1, 0, 0, // x
			0, 0, 1, 0, // y
			0, 0, 0, 1, // z
		},
		VertexHandles:  []meshmodel.Ordinal{10, 11, 12, 13},
		Topology:       meshmodel.Tet,
		VpE:            4,
		ElementHandles: []meshmodel.Ordinal{100},
		Connectivity:   []meshmodel.Ordinal{10, 11, 12, 13},
		Permutation:    []int{0, 1, 2, 3},
	}
}

func TestBlockValidate(t *testing.T) {
	b := unitTetBlock()
	require.NoError(t, b.Validate())
}

func TestBlockValidateRejectsRagged(t *testing.T) {
	b := unitTetBlock()
	b.Connectivity = b.Connectivity[:3]
	assert.Error(t, b.Validate())
}

func TestElementVertexCoordsCanonical(t *testing.T) {
	b := unitTetBlock()
	coords := b.ElementVertexCoordsCanonical(0)
	require.Len(t, coords, 4)
	assert.Equal(t, [3]float64{0, 0, 0}, coords[0])
	assert.Equal(t, [3]float64{1, 0, 0}, coords[1])
	assert.Equal(t, [3]float64{0, 1, 0}, coords[2])
	assert.Equal(t, [3]float64{0, 0, 1}, coords[3])
}

func TestElementBounds(t *testing.T) {
	b := unitTetBlock()
	bb := b.ElementBounds(0)
	assert.Equal(t, [3]float64{0, 0, 0}, bb.Min)
	assert.Equal(t, [3]float64{1, 1, 1}, bb.Max)
}

func TestManagerEmptyWithoutBlocks(t *testing.T) {
	m, err := meshmodel.NewManager(3, nil)
	require.NoError(t, err)
	assert.True(t, m.Empty())
}
