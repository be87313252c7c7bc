package generation

import (
	"errors"
	"fmt"
	"time"

	"github.com/bonesbb/HASPR/internal/albedo"
	"github.com/bonesbb/HASPR/internal/grid"
	"github.com/bonesbb/HASPR/internal/poa"
	"github.com/bonesbb/HASPR/internal/sites"
	"github.com/bonesbb/HASPR/internal/solar"
)

// DefaultAlbedo is the ground reflectance used when no albedo dataset is loaded.
const DefaultAlbedo = 0.1

// Source is what sites are prepared from.
type Source struct {
	Bundle        *grid.Bundle
	DefaultAlbedo float64
}

// Missing counts invalid samples seen while preparing one site.
type Missing struct {
	Irradiance int
	Albedo     int
}

// Inputs are everything a model reads for one site, sampled once along the
// global irradiance time axis and shared by every orientation evaluated.
type Inputs struct {
	Site       sites.Site
	Times      []time.Time
	Hours      float64 // length of one timestep
	Irradiance []poa.Irradiance
	Positions  []solar.Position // set when geometry is required
	Albedo     []float64        // set when albedo is required
	Missing    Missing
}

// Prepare samples the bundle for a site. A site outside an irradiance
// dataset's extent fails with *grid.DataRangeError. Outside the albedo
// dataset every timestep counts as missing albedo and reads 0.
func Prepare(src Source, site sites.Site, req Requirements) (*Inputs, error) {
	if err := src.Bundle.Check(req.Direct); err != nil {
		return nil, err
	}
	global := src.Bundle.Global
	cadence := global.Meta().Cadence
	if cadence.Pentad {
		return nil, fmt.Errorf("%s: irradiance needs a fixed cadence", global.Name())
	}

	view := &grid.Bundle{Global: global}
	if req.Direct {
		view.Direct = src.Bundle.Direct
	}
	cells, err := poa.Locate(view, site.Lat, site.Lon)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.ID, err)
	}

	var est *albedo.Estimator
	albedoUncovered := false
	if req.Albedo && src.Bundle.Albedo != nil {
		est, err = albedo.NewEstimator(src.Bundle.Albedo, site.Lat, site.Lon)
		var rangeErr *grid.DataRangeError
		switch {
		case errors.As(err, &rangeErr):
			albedoUncovered = true
		case err != nil:
			return nil, fmt.Errorf("site %s: %w", site.ID, err)
		}
	}

	n := global.Len()
	in := &Inputs{
		Site:       site,
		Times:      global.Times(),
		Hours:      float64(cadence.Minutes) / 60,
		Irradiance: make([]poa.Irradiance, n),
	}
	if req.Geometry {
		in.Positions = make([]solar.Position, n)
	}
	if req.Albedo {
		in.Albedo = make([]float64, n)
	}

	for i, t := range in.Times {
		if in.Irradiance[i], err = poa.Sample(view, cells, t, &in.Missing.Irradiance); err != nil {
			return nil, fmt.Errorf("site %s: %w", site.ID, err)
		}
		if req.Geometry {
			in.Positions[i] = solar.At(site.Lat, site.Lon, t)
		}
		if req.Albedo {
			switch {
			case albedoUncovered:
				in.Missing.Albedo++
			case est != nil:
				in.Albedo[i] = est.Average(t, &in.Missing.Albedo)
			default:
				in.Albedo[i] = src.DefaultAlbedo
			}
		}
	}
	return in, nil
}

// Len is the number of timesteps.
func (in *Inputs) Len() int { return len(in.Times) }

func (in *Inputs) planeOfArray(i int, o poa.Orientation, efficiency float64) Sample {
	c := poa.Decompose(in.Irradiance[i], in.Albedo[i], in.Positions[i], o)
	return Sample{EnergyWh: c.Total() * efficiency * in.Hours, Breakdown: c}
}
