package spline

import (
	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/config"
	"github.com/notargets/meshxfer/xferr"
)

// Interpolator is the meshless spline interpolator's persistent setup
// state: the replicated global source center set, the assembled
// source-source operator C, and this rank's source-target operator A,
// cached across repeated Apply calls.
type Interpolator struct {
	c     comm.Communicator
	basis Basis
	dim   int
	opts  config.SplineOptions

	sources *GlobalCenters
	opC     *OperatorC
	opA     *OperatorA
}

// Setup gathers every rank's source centers into the replicated global
// set, assembles the source-source operator C from it, and assembles
// this rank's rectangular operator A against its local target points.
// Every rank in c must call Setup collectively.
func Setup(c comm.Communicator, dim int, localSourceCoords, localTargetCoords [][3]float64, opts config.SplineOptions) (*Interpolator, error) {
	if opts.SupportRadius <= 0 {
		return nil, xferr.Preconditionf("spline: SupportRadius must be positive, got %g", opts.SupportRadius)
	}
	basis := NewWendlandC2(opts.SupportRadius)

	sources, err := GatherGlobalCenters(c, localSourceCoords)
	if err != nil {
		return nil, xferr.Communicationf("spline: gathering source centers: %v", err)
	}

	sourcePairing := BuildPairing(sources, sources.Coords, opts.SupportRadius)
	opC := BuildOperatorC(sources, sourcePairing, basis, dim)
	if opts.Regularization > 0 {
		for i := 0; i < opC.N; i++ {
			opC.Matrix.M.Set(i, i, opC.Matrix.At(i, i)+opts.Regularization)
		}
	}

	targetPairing := BuildPairing(sources, localTargetCoords, opts.SupportRadius)
	opA := BuildOperatorA(sources, localTargetCoords, targetPairing, basis, dim)

	c.Barrier()

	return &Interpolator{c: c, basis: basis, dim: dim, opts: opts, sources: sources, opC: opC, opA: opA}, nil
}

// Apply interpolates sourceValues (this rank's local source field, one
// value vector per point in the same order Setup's localSourceCoords
// used) onto this rank's local target points, via a gather-solve-evaluate
// sequence. Every rank must call Apply collectively.
func (in *Interpolator) Apply(sourceValues [][]float64) ([][]float64, error) {
	buf, err := gobEncode(sourceValues)
	if err != nil {
		return nil, xferr.Communicationf("spline: encoding source values: %v", err)
	}
	gathered := in.c.AllGatherBytes(buf)

	globalValues := make([][]float64, 0, in.sources.Len())
	for _, raw := range gathered {
		var vals [][]float64
		if decErr := gobDecode(raw, &vals); decErr != nil {
			return nil, xferr.Communicationf("spline: decoding gathered source values: %v", decErr)
		}
		globalValues = append(globalValues, vals...)
	}
	if len(globalValues) != in.sources.Len() {
		return nil, xferr.Invariantf("spline: gathered %d source values, expected %d", len(globalValues), in.sources.Len())
	}

	fieldDim := 0
	if len(globalValues) > 0 {
		fieldDim = len(globalValues[0])
	}

	rhs := make([][]float64, in.opC.Size())
	for i := range rhs {
		rhs[i] = make([]float64, fieldDim)
	}
	for i, v := range globalValues {
		if len(v) != fieldDim {
			return nil, xferr.Invariantf("spline: source value %d has %d components, want %d", i, len(v), fieldDim)
		}
		copy(rhs[i], v)
	}

	coeff, err := solveGMRESColumns(in.opC.Matrix, rhs, in.opts.NumBlocks, in.opts.MaximumIterations, in.opts.ConvergenceTolerance)
	if err != nil {
		return nil, xferr.Communicationf("spline: GMRES solve failed: %v", err)
	}

	out := make([][]float64, in.opA.M)
	for i := range out {
		out[i] = make([]float64, fieldDim)
	}
	for comp := 0; comp < fieldDim; comp++ {
		colCoeff := make([]float64, len(coeff))
		for i := range coeff {
			colCoeff[i] = coeff[i][comp]
		}
		vals := in.opA.Apply(colCoeff)
		for i, v := range vals {
			out[i][comp] = v
		}
	}

	return out, nil
}

// NumTargets returns the number of local target points this
// Interpolator evaluates onto.
func (in *Interpolator) NumTargets() int { return in.opA.M }
