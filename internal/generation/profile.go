package generation

import (
	"math"
	"time"

	"github.com/bonesbb/HASPR/internal/poa"
	"gonum.org/v1/gonum/floats"
)

// Season splits the year for aggregation.
type Season int

const (
	Summer Season = iota
	Winter
)

// SeasonOf puts November through April in winter; October is summer
// (month < 5 or month > 10).
func SeasonOf(t time.Time) Season {
	if m := t.Month(); m < time.May || m > time.October {
		return Winter
	}
	return Summer
}

// Point is one timestep of a generation profile.
type Point struct {
	Time     time.Time
	EnergyWh float64
}

// Profile is an ordered generation time series in Wh/m².
type Profile []Point

// Overview summarises one site's profile for one orientation.
type Overview struct {
	SiteID            string
	Lat               float64
	Lon               float64
	Total             float64
	Winter            float64
	Summer            float64
	IrradianceMissing int
	AlbedoMissing     int
}

// Result is the output of one (site, orientation) evaluation.
type Result struct {
	Profile   Profile
	Breakdown []poa.Components // nil for flat panels
	Overview  Overview
}

// Aggregate sums a profile per season. Negative and NaN samples are left
// out of the sums.
func Aggregate(p Profile) (total, winter, summer float64) {
	var all, w, s []float64
	for _, pt := range p {
		if math.IsNaN(pt.EnergyWh) || pt.EnergyWh < 0 {
			continue
		}
		all = append(all, pt.EnergyWh)
		if SeasonOf(pt.Time) == Winter {
			w = append(w, pt.EnergyWh)
		} else {
			s = append(s, pt.EnergyWh)
		}
	}
	return floats.Sum(all), floats.Sum(w), floats.Sum(s)
}

// Generate evaluates a model over prepared inputs.
func Generate(m Model, in *Inputs) Result {
	n := in.Len()
	r := Result{Profile: make(Profile, n)}
	if m.Kind() != Flat {
		r.Breakdown = make([]poa.Components, n)
	}

	for i := 0; i < n; i++ {
		s := m.Evaluate(in, i)
		r.Profile[i] = Point{Time: in.Times[i], EnergyWh: s.EnergyWh}
		if r.Breakdown != nil {
			r.Breakdown[i] = s.Breakdown
		}
	}

	total, winter, summer := Aggregate(r.Profile)
	r.Overview = Overview{
		SiteID:            in.Site.ID,
		Lat:               in.Site.Lat,
		Lon:               in.Site.Lon,
		Total:             total,
		Winter:            winter,
		Summer:            summer,
		IrradianceMissing: in.Missing.Irradiance,
		AlbedoMissing:     in.Missing.Albedo,
	}
	return r
}
