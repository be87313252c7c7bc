// Package poa decomposes irradiance onto a tilted plane of array.
package poa

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bonesbb/HASPR/internal/grid"
	"github.com/bonesbb/HASPR/internal/solar"
)

// Orientation is a panel's tilt from horizontal and azimuth clockwise from
// north, in degrees.
type Orientation struct {
	Azimuth float64
	Tilt    float64
}

// String renders the orientation as used in output file names ("180-30").
func (o Orientation) String() string {
	return strconv.FormatFloat(o.Azimuth, 'f', -1, 64) + "-" + strconv.FormatFloat(o.Tilt, 'f', -1, 64)
}

// ParseOrientation reads the "<azimuth>-<tilt>" form produced by String.
func ParseOrientation(s string) (Orientation, error) {
	az, tilt, found := strings.Cut(s, "-")
	if !found {
		return Orientation{}, fmt.Errorf("orientation %q: expected <azimuth>-<tilt>", s)
	}
	var o Orientation
	var err error
	if o.Azimuth, err = strconv.ParseFloat(strings.TrimSpace(az), 64); err != nil {
		return Orientation{}, fmt.Errorf("orientation %q: bad azimuth: %w", s, err)
	}
	if o.Tilt, err = strconv.ParseFloat(strings.TrimSpace(tilt), 64); err != nil {
		return Orientation{}, fmt.Errorf("orientation %q: bad tilt: %w", s, err)
	}
	return o, o.Validate()
}

// Validate checks tilt ∈ [0, 90] and azimuth ∈ [0, 360].
func (o Orientation) Validate() error {
	if o.Tilt < 0 || o.Tilt > 90 || math.IsNaN(o.Tilt) {
		return fmt.Errorf("tilt %v outside [0, 90]", o.Tilt)
	}
	if o.Azimuth < 0 || o.Azimuth > 360 || math.IsNaN(o.Azimuth) {
		return fmt.Errorf("azimuth %v outside [0, 360]", o.Azimuth)
	}
	return nil
}

// Tracking is the orientation of a dual-axis tracker facing the sun. Below
// the horizon the panel lies flat.
func Tracking(pos solar.Position) Orientation {
	if !pos.Up() {
		return Orientation{}
	}
	return Orientation{Azimuth: pos.AzimuthDeg, Tilt: 90 - pos.AltitudeDeg}
}

// Components is the plane-of-array irradiance (W/m²) split by source.
type Components struct {
	Beam    float64
	Diffuse float64
	Ground  float64
}

// Total is the plane-of-array irradiance.
func (c Components) Total() float64 { return c.Beam + c.Diffuse + c.Ground }

// Irradiance is one horizontal sample of the irradiance fields.
type Irradiance struct {
	Global float64
	Direct float64
}

// Diffuse is the horizontal diffuse part.
func (i Irradiance) Diffuse() float64 { return i.Global - i.Direct }

// Cells are a site's located cells in the irradiance datasets.
type Cells struct {
	Global grid.Cell
	Direct grid.Cell
}

// Locate resolves a site on every irradiance dataset of the bundle.
func Locate(b *grid.Bundle, lat, lon float64) (Cells, error) {
	var c Cells
	var err error
	if c.Global, err = b.Global.Locate(lat, lon); err != nil {
		return Cells{}, err
	}
	if b.Direct != nil {
		if c.Direct, err = b.Direct.Locate(lat, lon); err != nil {
			return Cells{}, err
		}
	}
	return c, nil
}

// Sample reads global and, when the bundle has it, direct irradiance at t.
// Missing values read as 0 and increment *missing once per field.
func Sample(b *grid.Bundle, c Cells, t time.Time, missing *int) (Irradiance, error) {
	var irr Irradiance
	var err error
	if irr.Global, err = grid.Sample(b.Global, c.Global, t, missing); err != nil {
		return Irradiance{}, err
	}
	if b.Direct != nil {
		if irr.Direct, err = grid.Sample(b.Direct, c.Direct, t, missing); err != nil {
			return Irradiance{}, err
		}
	}
	return irr, nil
}

// CosIncidence is the cosine of the angle between the sun and the panel normal.
func CosIncidence(pos solar.Position, o Orientation) float64 {
	zen := pos.ZenithDeg * math.Pi / 180
	sunAz := pos.AzimuthDeg * math.Pi / 180
	tilt := o.Tilt * math.Pi / 180
	panelAz := o.Azimuth * math.Pi / 180

	return math.Sin(zen)*math.Cos(sunAz)*math.Sin(tilt)*math.Cos(panelAz) +
		math.Sin(zen)*math.Sin(sunAz)*math.Sin(tilt)*math.Sin(panelAz) +
		math.Cos(zen)*math.Cos(tilt)
}

// Decompose splits one irradiance sample onto the panel plane with an
// isotropic sky. Beam is counted only while the sun is above the horizon
// and in front of the panel.
func Decompose(irr Irradiance, albedo float64, pos solar.Position, o Orientation) Components {
	cosTilt := math.Cos(o.Tilt * math.Pi / 180)

	var c Components
	if cosA := CosIncidence(pos, o); cosA > 0 && pos.Up() {
		c.Beam = cosA * irr.Direct / math.Cos(pos.ZenithDeg*math.Pi/180)
	}
	c.Diffuse = irr.Diffuse() * (1 + cosTilt) / 2
	c.Ground = irr.Global * albedo * (1 - cosTilt) / 2
	return c
}
