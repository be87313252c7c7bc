// Package grid holds gridded satellite fields (lat × lon × time) and the
// point sampler the generation engine reads them through.
package grid

import (
	"fmt"
	"math"
	"time"
)

// Cadence is the temporal resolution of a dataset: a fixed step in minutes,
// or five-day pentads for the surface albedo product.
type Cadence struct {
	Minutes int
	Pentad  bool
}

// PentadCadence marks a dataset whose timestamps are pentad starts.
var PentadCadence = Cadence{Pentad: true}

// EveryMinutes returns a fixed-step cadence.
func EveryMinutes(m int) Cadence {
	return Cadence{Minutes: m}
}

// Step returns the fixed step, or zero for pentads.
func (c Cadence) Step() time.Duration {
	if c.Pentad {
		return 0
	}
	return time.Duration(c.Minutes) * time.Minute
}

func (c Cadence) String() string {
	if c.Pentad {
		return "pentad"
	}
	return fmt.Sprintf("%dmin", c.Minutes)
}

// Meta describes a dataset independently of its values.
type Meta struct {
	Name       string
	Resolution float64 // degrees per cell
	Cadence    Cadence
}

// Cell addresses one grid column of a dataset.
type Cell struct {
	Lat int
	Lon int
}

// Dataset is an immutable lat × lon × time field of one variable. Axes are
// ascending; latitude and longitude are regular at Meta.Resolution.
type Dataset struct {
	meta Meta

	lats  []float64
	lons  []float64
	times []time.Time
	index map[int64]int

	// values are laid out [time][lat][lon]
	values []float32
}

// New builds a dataset from its axes and a dense value block laid out
// [time][lat][lon]. The slices are owned by the dataset afterwards.
func New(meta Meta, lats, lons []float64, times []time.Time, values []float32) (*Dataset, error) {
	if meta.Resolution <= 0 || math.IsNaN(meta.Resolution) {
		return nil, fmt.Errorf("%s: spatial resolution must be positive, got %v", meta.Name, meta.Resolution)
	}
	if !meta.Cadence.Pentad && meta.Cadence.Minutes <= 0 {
		return nil, fmt.Errorf("%s: temporal resolution must be positive, got %d minutes", meta.Name, meta.Cadence.Minutes)
	}
	if len(lats) == 0 || len(lons) == 0 || len(times) == 0 {
		return nil, fmt.Errorf("%s: dataset has an empty axis", meta.Name)
	}
	if want := len(times) * len(lats) * len(lons); len(values) != want {
		return nil, fmt.Errorf("%s: expected %d values for %d×%d×%d grid, got %d",
			meta.Name, want, len(times), len(lats), len(lons), len(values))
	}
	if err := checkRegular(lats, meta.Resolution); err != nil {
		return nil, fmt.Errorf("%s: latitude axis: %w", meta.Name, err)
	}
	if err := checkRegular(lons, meta.Resolution); err != nil {
		return nil, fmt.Errorf("%s: longitude axis: %w", meta.Name, err)
	}

	index := make(map[int64]int, len(times))
	step := meta.Cadence.Step()
	for i, t := range times {
		if i > 0 {
			if !t.After(times[i-1]) {
				return nil, fmt.Errorf("%s: time axis not strictly increasing at %s", meta.Name, t.UTC().Format(time.RFC3339))
			}
			if step > 0 && t.Sub(times[i-1]) != step {
				return nil, fmt.Errorf("%s: time axis not contiguous at %s (step %s, want %s)",
					meta.Name, t.UTC().Format(time.RFC3339), t.Sub(times[i-1]), step)
			}
		}
		index[t.UnixMilli()] = i
	}

	return &Dataset{
		meta:   meta,
		lats:   lats,
		lons:   lons,
		times:  times,
		index:  index,
		values: values,
	}, nil
}

func checkRegular(axis []float64, res float64) error {
	for i := 1; i < len(axis); i++ {
		d := axis[i] - axis[i-1]
		if math.Abs(d-res) > res*1e-3 {
			return fmt.Errorf("spacing %.6f at index %d does not match resolution %.6f", d, i, res)
		}
	}
	return nil
}

// Meta returns the dataset's description.
func (d *Dataset) Meta() Meta { return d.meta }

// Name returns the dataset's name.
func (d *Dataset) Name() string { return d.meta.Name }

// Len returns the number of timestamps on the time axis.
func (d *Dataset) Len() int { return len(d.times) }

// Times returns a copy of the time axis.
func (d *Dataset) Times() []time.Time {
	out := make([]time.Time, len(d.times))
	copy(out, d.times)
	return out
}

// TimeAt returns the i-th timestamp.
func (d *Dataset) TimeAt(i int) time.Time { return d.times[i] }

// Covers reports whether t lies inside the dataset's time range.
func (d *Dataset) Covers(t time.Time) bool {
	return !t.Before(d.times[0]) && !t.After(d.times[len(d.times)-1])
}

// Locate snaps a site to its pixel and resolves the cell centred on it.
func (d *Dataset) Locate(lat, lon float64) (Cell, error) {
	return d.cellFor(PixelFor(lat, lon, d.meta.Resolution))
}

func (d *Dataset) cellFor(p Pixel) (Cell, error) {
	i := axisIndex(d.lats, p.Lat, d.meta.Resolution)
	j := axisIndex(d.lons, p.Lon, d.meta.Resolution)
	if i < 0 || j < 0 {
		return Cell{}, &DataRangeError{Dataset: d.meta.Name, Lat: p.Lat, Lon: p.Lon}
	}
	return Cell{Lat: i, Lon: j}, nil
}

// axisIndex returns the index of the cell centre within ± res/2 of v, or -1.
// A pixel halfway between two centres takes the upper one.
func axisIndex(axis []float64, v, res float64) int {
	k := int(math.Floor((v-axis[0])/res + 0.5 + gridTolerance))
	if k < 0 || k >= len(axis) {
		return -1
	}
	if math.Abs(axis[k]-v) > res/2+res*1e-6 {
		return -1
	}
	return k
}

// ValueAt reads the cell centred on p at exactly t. ok is false when the
// stored value is NaN or negative, or when t falls between axis entries.
func (d *Dataset) ValueAt(p Pixel, t time.Time) (float64, bool, error) {
	c, err := d.cellFor(p)
	if err != nil {
		return 0, false, err
	}
	return d.At(c, t)
}

// At reads a located cell at exactly t.
func (d *Dataset) At(c Cell, t time.Time) (float64, bool, error) {
	if !d.Covers(t) {
		return 0, false, &DataRangeError{
			Dataset: d.meta.Name,
			Lat:     d.lats[c.Lat],
			Lon:     d.lons[c.Lon],
			Time:    t,
		}
	}
	ti, found := d.index[t.UnixMilli()]
	if !found {
		return 0, false, nil
	}
	v, ok := d.AtIndex(c, ti)
	return v, ok, nil
}

// AtIndex reads a located cell at the ti-th timestamp.
func (d *Dataset) AtIndex(c Cell, ti int) (float64, bool) {
	v := float64(d.values[(ti*len(d.lats)+c.Lat)*len(d.lons)+c.Lon])
	if math.IsNaN(v) || v < 0 {
		return v, false
	}
	return v, true
}

// Sample reads a located cell at t for one evaluation. Invalid values read
// as 0.0 and increment *missing; the dataset is left as it is.
func Sample(d *Dataset, c Cell, t time.Time, missing *int) (float64, error) {
	v, ok, err := d.At(c, t)
	if err != nil {
		return 0, err
	}
	if !ok {
		*missing++
		return 0, nil
	}
	return v, nil
}

// Bundle is the set of fields one run samples from.
type Bundle struct {
	Global *Dataset // surface incoming shortwave (SIS)
	Direct *Dataset // surface incoming direct (SID)
	Albedo *Dataset // surface albedo (SAL), optional
}

// Check verifies the bundle carries what a model needs.
func (b *Bundle) Check(needDirect bool) error {
	if b == nil || b.Global == nil {
		return fmt.Errorf("global irradiance dataset is required")
	}
	if needDirect && b.Direct == nil {
		return fmt.Errorf("direct irradiance dataset is required")
	}
	return nil
}
