// Package sweep evaluates generation over a grid of fixed panel orientations
// and picks the best orientation per site.
package sweep

import (
	"fmt"
	"math"

	"github.com/bonesbb/HASPR/internal/poa"
	"gonum.org/v1/gonum/floats"
)

// Range is a rectangular grid of orientations, both bounds inclusive.
type Range struct {
	AzimuthMin float64
	AzimuthMax float64
	TiltMin    float64
	TiltMax    float64
	Increment  float64
}

// FirstOptimisation is the full-circle coarse sweep: azimuth 0..360 (360
// kept as its own entry) and tilt 10..90.
func FirstOptimisation(increment float64) Range {
	return Range{AzimuthMin: 0, AzimuthMax: 360, TiltMin: 10, TiltMax: 90, Increment: increment}
}

// DefaultRefinement is the second, finer sweep around south-facing panels.
func DefaultRefinement() Range {
	return Range{AzimuthMin: 120, AzimuthMax: 240, TiltMin: 20, TiltMax: 80, Increment: 5}
}

// Validate checks the range lies inside the orientation domain.
func (r Range) Validate() error {
	if !(r.Increment > 0) {
		return fmt.Errorf("sweep increment must be positive, got %v", r.Increment)
	}
	lo := poa.Orientation{Azimuth: r.AzimuthMin, Tilt: r.TiltMin}
	hi := poa.Orientation{Azimuth: r.AzimuthMax, Tilt: r.TiltMax}
	if err := lo.Validate(); err != nil {
		return fmt.Errorf("sweep lower bound: %w", err)
	}
	if err := hi.Validate(); err != nil {
		return fmt.Errorf("sweep upper bound: %w", err)
	}
	if r.AzimuthMin > r.AzimuthMax || r.TiltMin > r.TiltMax {
		return fmt.Errorf("sweep bounds are reversed")
	}
	return nil
}

// Orientations enumerates the range azimuth-major.
func (r Range) Orientations() []poa.Orientation {
	azimuths := steps(r.AzimuthMin, r.AzimuthMax, r.Increment)
	tilts := steps(r.TiltMin, r.TiltMax, r.Increment)

	out := make([]poa.Orientation, 0, len(azimuths)*len(tilts))
	for _, az := range azimuths {
		for _, tilt := range tilts {
			out = append(out, poa.Orientation{Azimuth: az, Tilt: tilt})
		}
	}
	return out
}

// steps returns lo, lo+step, ... up to hi.
func steps(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	if n < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, lo+float64(n-1)*step)
}

// Batches cuts orientations into contiguous slices of at most size entries.
func Batches(orientations []poa.Orientation, size int) [][]poa.Orientation {
	if size <= 0 {
		size = len(orientations)
	}
	var out [][]poa.Orientation
	for i := 0; i < len(orientations); i += size {
		out = append(out, orientations[i:min(i+size, len(orientations))])
	}
	return out
}

// Batch returns the index-th slice of Batches.
func Batch(orientations []poa.Orientation, size, index int) ([]poa.Orientation, error) {
	batches := Batches(orientations, size)
	if index < 0 || index >= len(batches) {
		return nil, fmt.Errorf("sweep batch index %d outside [0, %d)", index, len(batches))
	}
	return batches[index], nil
}
