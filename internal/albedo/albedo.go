// Package albedo estimates ground reflectance from a pentad surface albedo dataset.
package albedo

import (
	"time"

	"github.com/bonesbb/HASPR/internal/grid"
	"gonum.org/v1/gonum/stat"
)

// pentadSpan is how far past its start a pentad reaches, inclusive.
const pentadSpan = 4 * 24 * time.Hour

// Average returns the mean surface albedo of a cell for the calendar date of
// t, as a fraction. Every pentad whose (month, day) start, moved to t's year,
// opens a window [start, start+4 days] containing the date contributes its
// value when that value is positive. ok is false when nothing contributes.
func Average(ds *grid.Dataset, c grid.Cell, t time.Time) (float64, bool) {
	day := civilDay(t)

	var vals []float64
	for i := 0; i < ds.Len(); i++ {
		s := ds.TimeAt(i).UTC()
		start := time.Date(day.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(start) || day.After(start.Add(pentadSpan)) {
			continue
		}
		if v, ok := ds.AtIndex(c, i); ok && v > 0 {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil) / 100, true
}

func civilDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type result struct {
	value float64
	ok    bool
}

// Estimator memoises Average per calendar date for one site.
type Estimator struct {
	ds    *grid.Dataset
	cell  grid.Cell
	cache map[time.Time]result
}

// NewEstimator locates the site on the albedo grid.
func NewEstimator(ds *grid.Dataset, lat, lon float64) (*Estimator, error) {
	c, err := ds.Locate(lat, lon)
	if err != nil {
		return nil, err
	}
	return &Estimator{ds: ds, cell: c, cache: make(map[time.Time]result)}, nil
}

// Average returns the albedo fraction for t's date. Each call without a
// valid value increments *missing, cached or not.
func (e *Estimator) Average(t time.Time, missing *int) float64 {
	day := civilDay(t)
	r, found := e.cache[day]
	if !found {
		r.value, r.ok = Average(e.ds, e.cell, day)
		e.cache[day] = r
	}
	if !r.ok {
		*missing++
	}
	return r.value
}
