package spline_test

import (
	"sync"
	"testing"

	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/config"
	"github.com/notargets/meshxfer/spline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWendlandC2VanishesBeyondSupport(t *testing.T) {
	b := spline.NewWendlandC2(2.0)
	assert.Equal(t, 0.0, b.Eval(2.0))
	assert.Equal(t, 0.0, b.Eval(3.0))
	assert.Greater(t, b.Eval(0.0), 0.0)
	assert.Greater(t, b.Eval(1.0), 0.0)
}

func TestGatherGlobalCentersPreservesRankOrder(t *testing.T) {
	comms := comm.NewLocalWorld(3)
	local := [][][3]float64{
		{{0, 0, 0}, {1, 0, 0}},
		{{2, 0, 0}},
		{{3, 0, 0}, {4, 0, 0}, {5, 0, 0}},
	}

	var wg sync.WaitGroup
	wg.Add(3)
	results := make([]*spline.GlobalCenters, 3)
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			g, err := spline.GatherGlobalCenters(c, local[c.Rank()])
			require.NoError(t, err)
			results[c.Rank()] = g
		}()
	}
	wg.Wait()

	for r := 1; r < 3; r++ {
		assert.Equal(t, results[0].Coords, results[r].Coords)
		assert.Equal(t, results[0].Owner, results[r].Owner)
	}
	assert.Equal(t, 6, results[0].Len())
	assert.Equal(t, [3]float64{3, 0, 0}, results[0].Coords[3])
	assert.Equal(t, 2, results[0].Owner[3])
}

// TestInterpolatorReproducesConstantField checks the polynomial tail's
// exactness property: an RBF-plus-linear-tail interpolant reproduces a
// constant field exactly regardless of basis shape.
func TestInterpolatorReproducesConstantField(t *testing.T) {
	nRanks := 2
	comms := comm.NewLocalWorld(nRanks)

	sourceCoords := [][][3]float64{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{1, 1, 0}, {0.5, 0.5, 0}},
	}
	targetCoords := [][][3]float64{
		{{0.25, 0.25, 0}},
		{{0.75, 0.75, 0}},
	}
	sourceValues := [][][]float64{
		{{5}, {5}, {5}},
		{{5}, {5}},
	}

	opts := config.DefaultSplineOptions()
	opts.SupportRadius = 3.0
	opts.NumBlocks = 20
	opts.MaximumIterations = 500
	opts.ConvergenceTolerance = 1e-10

	var wg sync.WaitGroup
	wg.Add(nRanks)
	interps := make([]*spline.Interpolator, nRanks)
	setupErrs := make([]error, nRanks)
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			in, err := spline.Setup(c, 2, sourceCoords[c.Rank()], targetCoords[c.Rank()], opts)
			interps[c.Rank()] = in
			setupErrs[c.Rank()] = err
		}()
	}
	wg.Wait()
	for r := 0; r < nRanks; r++ {
		require.NoError(t, setupErrs[r])
	}

	results := make([][][]float64, nRanks)
	applyErrs := make([]error, nRanks)
	wg.Add(nRanks)
	for r := 0; r < nRanks; r++ {
		r := r
		go func() {
			defer wg.Done()
			out, err := interps[r].Apply(sourceValues[r])
			results[r] = out
			applyErrs[r] = err
		}()
	}
	wg.Wait()

	for r := 0; r < nRanks; r++ {
		require.NoError(t, applyErrs[r])
		require.Len(t, results[r], 1)
		assert.InDelta(t, 5.0, results[r][0][0], 1e-4)
	}
}

// TestInterpolatorReproducesLinearField checks the polynomial tail's other
// named exactness property: with no regularization (α=0), the operator's
// affine tail reproduces a degree-1 field f(x,y) = a·(x,y) + b exactly, not
// merely a constant.
func TestInterpolatorReproducesLinearField(t *testing.T) {
	nRanks := 2
	comms := comm.NewLocalWorld(nRanks)

	sourceCoords := [][][3]float64{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{1, 1, 0}, {0.5, 0.5, 0}},
	}
	targetCoords := [][][3]float64{
		{{0.25, 0.25, 0}},
		{{0.75, 0.75, 0}},
	}

	a := [2]float64{3, -2}
	b := 1.0
	linear := func(p [3]float64) float64 { return a[0]*p[0] + a[1]*p[1] + b }

	sourceValues := make([][][]float64, nRanks)
	for r := range sourceCoords {
		for _, p := range sourceCoords[r] {
			sourceValues[r] = append(sourceValues[r], []float64{linear(p)})
		}
	}

	opts := config.DefaultSplineOptions()
	opts.SupportRadius = 3.0
	opts.Regularization = 0
	opts.NumBlocks = 20
	opts.MaximumIterations = 500
	opts.ConvergenceTolerance = 1e-10

	var wg sync.WaitGroup
	wg.Add(nRanks)
	interps := make([]*spline.Interpolator, nRanks)
	setupErrs := make([]error, nRanks)
	for _, c := range comms {
		c := c
		go func() {
			defer wg.Done()
			in, err := spline.Setup(c, 2, sourceCoords[c.Rank()], targetCoords[c.Rank()], opts)
			interps[c.Rank()] = in
			setupErrs[c.Rank()] = err
		}()
	}
	wg.Wait()
	for r := 0; r < nRanks; r++ {
		require.NoError(t, setupErrs[r])
	}

	results := make([][][]float64, nRanks)
	applyErrs := make([]error, nRanks)
	wg.Add(nRanks)
	for r := 0; r < nRanks; r++ {
		r := r
		go func() {
			defer wg.Done()
			out, err := interps[r].Apply(sourceValues[r])
			results[r] = out
			applyErrs[r] = err
		}()
	}
	wg.Wait()

	for r := 0; r < nRanks; r++ {
		require.NoError(t, applyErrs[r])
		require.Len(t, results[r], 1)
		want := linear(targetCoords[r][0])
		assert.InDelta(t, want, results[r][0][0], 1e-4)
	}
}
