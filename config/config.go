// Package config holds the named-parameter option bags for the spline
// interpolator and the shared-domain map, parsed from YAML with a
// Parse([]byte) error convention.
package config

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// SplineOptions carries the spline interpolator's recognized keys.
type SplineOptions struct {
	Verbosity            int     `json:"verbosity"`
	MaximumIterations    int     `json:"maximum_iterations"`
	ConvergenceTolerance float64 `json:"convergence_tolerance"`
	NumBlocks            int     `json:"num_blocks"`
	BlockSize            int     `json:"block_size"`

	SupportRadius  float64 `json:"support_radius"`
	Regularization float64 `json:"regularization"`
}

// DefaultSplineOptions returns the documented defaults:
// maximum_iterations=1000, convergence_tolerance=1e-8. Support radius and
// restart length have no sensible module-wide default and are left zero.
func DefaultSplineOptions() SplineOptions {
	return SplineOptions{
		MaximumIterations:    1000,
		ConvergenceTolerance: 1e-8,
	}
}

// Parse unmarshals YAML into o, leaving any field absent from data at
// whatever value o already carried (typically the package defaults).
// ghodss/yaml converts the document to JSON and decodes it with
// encoding/json, so the keys are matched through the fields' json tags.
func (o *SplineOptions) Parse(data []byte) error {
	return yaml.Unmarshal(data, o)
}

// Print dumps o's values for diagnostics.
func (o *SplineOptions) Print() {
	fmt.Printf("%#x\t\t= verbosity\n", o.Verbosity)
	fmt.Printf("%d\t\t= maximum_iterations\n", o.MaximumIterations)
	fmt.Printf("%8.5e\t= convergence_tolerance\n", o.ConvergenceTolerance)
	fmt.Printf("%d\t\t= num_blocks\n", o.NumBlocks)
	fmt.Printf("%d\t\t= block_size\n", o.BlockSize)
	fmt.Printf("%8.5f\t\t= support_radius\n", o.SupportRadius)
	fmt.Printf("%8.5f\t\t= regularization\n", o.Regularization)
}

// MapOptions carries the shared-domain map's setup-time options: the
// geometric tolerance used by point-in-element tests and whether missed
// target points are tracked for diagnostics.
type MapOptions struct {
	Tolerance         float64 `json:"tolerance"`
	TrackMissedPoints bool    `json:"track_missed_points"`
}

// DefaultMapOptions returns the tolerance cell.Tolerance also defaults to
// (1e-8), with missed-point tracking off.
func DefaultMapOptions() MapOptions {
	return MapOptions{Tolerance: 1e-8}
}

func (o *MapOptions) Parse(data []byte) error {
	return yaml.Unmarshal(data, o)
}

func (o *MapOptions) Print() {
	fmt.Printf("%8.5e\t= tolerance\n", o.Tolerance)
	fmt.Printf("%v\t\t= track_missed_points\n", o.TrackMissedPoints)
}
