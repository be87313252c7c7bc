// Package generation turns sampled irradiance into per-site generation
// profiles for flat, tracking and fixed-tilt panels.
package generation

import (
	"fmt"
	"strings"

	"github.com/bonesbb/HASPR/internal/poa"
)

// DefaultEfficiency is the panel conversion efficiency used when none is configured.
const DefaultEfficiency = 0.15

// Kind selects a generation model.
type Kind int

const (
	Flat Kind = iota
	Tracking
	FixedTilt
)

func (k Kind) String() string {
	switch k {
	case Flat:
		return "flat"
	case Tracking:
		return "tracking"
	case FixedTilt:
		return "fixed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the model names of the run configuration.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "sis":
		return Flat, nil
	case "tracking", "poa_tracking":
		return Tracking, nil
	case "fixed", "fixed-tilt", "poa_fixed", "poa":
		return FixedTilt, nil
	}
	return 0, fmt.Errorf("unknown generation model %q", s)
}

// Requirements are the inputs a model reads besides global irradiance.
type Requirements struct {
	Direct   bool
	Albedo   bool
	Geometry bool
}

var poaRequirements = Requirements{Direct: true, Albedo: true, Geometry: true}

// Sample is a model's output for one timestep.
type Sample struct {
	EnergyWh  float64        // per m² of panel
	Breakdown poa.Components // plane-of-array irradiance, zero for flat panels
}

// Model evaluates generation at the i-th timestep of prepared inputs.
type Model interface {
	Kind() Kind
	Requires() Requirements
	Evaluate(in *Inputs, i int) Sample
}

// New builds the model of the given kind. The orientation is used by
// fixed-tilt models only.
func New(kind Kind, efficiency float64, o poa.Orientation) (Model, error) {
	if efficiency <= 0 || efficiency > 1 {
		return nil, fmt.Errorf("efficiency %v outside (0, 1]", efficiency)
	}
	switch kind {
	case Flat:
		return FlatModel{Efficiency: efficiency}, nil
	case Tracking:
		return TrackingModel{Efficiency: efficiency}, nil
	case FixedTilt:
		if err := o.Validate(); err != nil {
			return nil, err
		}
		return FixedTiltModel{Efficiency: efficiency, Orientation: o}, nil
	}
	return nil, fmt.Errorf("unknown generation model %v", kind)
}

// FlatModel converts horizontal global irradiance directly.
type FlatModel struct {
	Efficiency float64
}

func (FlatModel) Kind() Kind             { return Flat }
func (FlatModel) Requires() Requirements { return Requirements{} }

func (m FlatModel) Evaluate(in *Inputs, i int) Sample {
	return Sample{EnergyWh: in.Irradiance[i].Global * m.Efficiency * in.Hours}
}

// TrackingModel follows the sun on two axes.
type TrackingModel struct {
	Efficiency float64
}

func (TrackingModel) Kind() Kind             { return Tracking }
func (TrackingModel) Requires() Requirements { return poaRequirements }

func (m TrackingModel) Evaluate(in *Inputs, i int) Sample {
	pos := in.Positions[i]
	return in.planeOfArray(i, poa.Tracking(pos), m.Efficiency)
}

// FixedTiltModel holds one static orientation.
type FixedTiltModel struct {
	Efficiency  float64
	Orientation poa.Orientation
}

func (FixedTiltModel) Kind() Kind             { return FixedTilt }
func (FixedTiltModel) Requires() Requirements { return poaRequirements }

func (m FixedTiltModel) Evaluate(in *Inputs, i int) Sample {
	return in.planeOfArray(i, m.Orientation, m.Efficiency)
}
