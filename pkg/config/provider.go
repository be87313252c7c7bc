// Package config loads and validates the run configuration of the
// generation engine from YAML files or a SQLite store.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/sweep"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load the complete run configuration, defaults not yet applied
	LoadConfig() (*RunConfiguration, error)

	IsReadOnly() bool
	Close() error
}

// Environment variables that override the loaded configuration.
const (
	EnvOutputDir   = "HASPR_OUTPUT_DIR"
	EnvCoordinates = "HASPR_COORDINATES"
	EnvLogFile     = "HASPR_LOG_FILE"
)

// Defaults applied to unset fields.
const (
	DefaultModel                = "fixed"
	DefaultSpatialResolution    = 0.05
	DefaultAlbedoResolution     = 0.25
	DefaultTemporalResolution   = 30
	DefaultSweepIncrement       = 10.0
	DefaultSweepBatchSize       = 20
	DefaultOptimisation         = 1
	DefaultLogMaxSizeMB         = 100
	DefaultLogMaxBackups        = 3
	defaultRunConfigurationName = "default"
)

// RunConfiguration is the complete configuration of one engine run.
type RunConfiguration struct {
	Name            string       `json:"name"`
	Model           string       `json:"model"`
	Coordinates     string       `json:"coordinates"`
	OutputDir       string       `json:"output_dir"`
	Efficiency      float64      `json:"efficiency,omitempty"`
	DefaultAlbedo   *float64     `json:"default_albedo,omitempty"`
	SkipProfiles    bool         `json:"skip_profiles,omitempty"`
	Datasets        DatasetsData `json:"datasets"`
	Sweep           SweepData    `json:"sweep,omitempty"`
	Log             LogData      `json:"log,omitempty"`
	MetricsTextfile string       `json:"metrics_textfile,omitempty"`
}

// DatasetsData holds the gridded inputs of a run
type DatasetsData struct {
	GlobalIrradiance DatasetData `json:"global_irradiance"`
	DirectIrradiance DatasetData `json:"direct_irradiance,omitempty"`
	Albedo           DatasetData `json:"albedo,omitempty"`
}

// DatasetData describes one dataset file
type DatasetData struct {
	Path                      string  `json:"path"`
	SpatialResolution         float64 `json:"spatial_resolution,omitempty"`
	TemporalResolutionMinutes int     `json:"temporal_resolution_minutes,omitempty"`
}

// SweepData holds the fixed-tilt sweep settings
type SweepData struct {
	Increment    float64   `json:"increment,omitempty"`
	BatchSize    int       `json:"batch_size,omitempty"`
	Optimisation int       `json:"optimisation,omitempty"`
	BatchIndex   *int      `json:"batch_index,omitempty"`
	Refined      RangeData `json:"refined,omitempty"`
}

// RangeData is an orientation range of the second optimisation
type RangeData struct {
	AzimuthMin float64 `json:"azimuth_min"`
	AzimuthMax float64 `json:"azimuth_max"`
	TiltMin    float64 `json:"tilt_min"`
	TiltMax    float64 `json:"tilt_max"`
	Increment  float64 `json:"increment"`
}

// LogData configures the optional rotating log file
type LogData struct {
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
}

// ConfigurationError reports an invalid configuration field.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Err: fmt.Errorf(format, args...)}
}

// GroundAlbedo is the reflectance used when no albedo dataset is loaded.
// An explicit 0 is kept; only an unset value falls back to the default.
func (c *RunConfiguration) GroundAlbedo() float64 {
	if c.DefaultAlbedo == nil {
		return generation.DefaultAlbedo
	}
	return *c.DefaultAlbedo
}

// ApplyDefaults fills unset fields.
func (c *RunConfiguration) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultRunConfigurationName
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Efficiency == 0 {
		c.Efficiency = generation.DefaultEfficiency
	}
	if c.DefaultAlbedo == nil {
		albedo := generation.DefaultAlbedo
		c.DefaultAlbedo = &albedo
	}

	c.Datasets.GlobalIrradiance.applyDefaults(DefaultSpatialResolution)
	c.Datasets.DirectIrradiance.applyDefaults(DefaultSpatialResolution)
	c.Datasets.Albedo.applyDefaults(DefaultAlbedoResolution)

	if c.Sweep.Increment == 0 {
		c.Sweep.Increment = DefaultSweepIncrement
	}
	if c.Sweep.BatchSize == 0 {
		c.Sweep.BatchSize = DefaultSweepBatchSize
	}
	if c.Sweep.Optimisation == 0 {
		c.Sweep.Optimisation = DefaultOptimisation
	}
	if c.Sweep.Refined == (RangeData{}) {
		r := sweep.DefaultRefinement()
		c.Sweep.Refined = RangeData{
			AzimuthMin: r.AzimuthMin,
			AzimuthMax: r.AzimuthMax,
			TiltMin:    r.TiltMin,
			TiltMax:    r.TiltMax,
			Increment:  r.Increment,
		}
	}

	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
}

func (d *DatasetData) applyDefaults(resolution float64) {
	if d.SpatialResolution == 0 {
		d.SpatialResolution = resolution
	}
	if d.TemporalResolutionMinutes == 0 {
		d.TemporalResolutionMinutes = DefaultTemporalResolution
	}
}

// Kind returns the configured generation model.
func (c *RunConfiguration) Kind() (generation.Kind, error) {
	k, err := generation.ParseKind(c.Model)
	if err != nil {
		return 0, &ConfigurationError{Field: "model", Err: err}
	}
	return k, nil
}

// SweepRange returns the orientation range of the configured optimisation.
func (c *RunConfiguration) SweepRange() sweep.Range {
	if c.Sweep.Optimisation == 2 {
		r := c.Sweep.Refined
		return sweep.Range{
			AzimuthMin: r.AzimuthMin,
			AzimuthMax: r.AzimuthMax,
			TiltMin:    r.TiltMin,
			TiltMax:    r.TiltMax,
			Increment:  r.Increment,
		}
	}
	return sweep.FirstOptimisation(c.Sweep.Increment)
}

// Validate checks the configuration before any computation starts. It
// returns a *ConfigurationError naming the first bad field.
func (c *RunConfiguration) Validate() error {
	kind, err := c.Kind()
	if err != nil {
		return err
	}

	if c.Coordinates == "" {
		return invalid("coordinates", "path is required")
	}
	if c.OutputDir == "" {
		return invalid("output_dir", "path is required")
	}
	if !(c.Efficiency > 0 && c.Efficiency <= 1) {
		return invalid("efficiency", "must be in (0, 1], got %v", c.Efficiency)
	}
	if a := c.GroundAlbedo(); !(a >= 0 && a <= 1) {
		return invalid("default_albedo", "must be in [0, 1], got %v", a)
	}

	if err := c.Datasets.GlobalIrradiance.validate("datasets.global_irradiance", true); err != nil {
		return err
	}
	if err := c.Datasets.DirectIrradiance.validate("datasets.direct_irradiance", kind != generation.Flat); err != nil {
		return err
	}
	if err := c.Datasets.Albedo.validate("datasets.albedo", false); err != nil {
		return err
	}

	if kind != generation.FixedTilt {
		return nil
	}
	if c.Sweep.Optimisation != 1 && c.Sweep.Optimisation != 2 {
		return invalid("sweep.optimisation", "must be 1 or 2, got %d", c.Sweep.Optimisation)
	}
	if c.Sweep.BatchSize <= 0 {
		return invalid("sweep.batch_size", "must be positive, got %d", c.Sweep.BatchSize)
	}
	r := c.SweepRange()
	if err := r.Validate(); err != nil {
		return &ConfigurationError{Field: "sweep", Err: err}
	}
	if idx := c.Sweep.BatchIndex; idx != nil {
		if _, err := sweep.Batch(r.Orientations(), c.Sweep.BatchSize, *idx); err != nil {
			return &ConfigurationError{Field: "sweep.batch_index", Err: err}
		}
	}
	return nil
}

func (d DatasetData) validate(field string, required bool) error {
	if d.Path == "" {
		if required {
			return invalid(field+".path", "path is required")
		}
		return nil
	}
	if !(d.SpatialResolution > 0) || math.IsInf(d.SpatialResolution, 0) {
		return invalid(field+".spatial_resolution", "must be positive, got %v", d.SpatialResolution)
	}
	if d.TemporalResolutionMinutes <= 0 {
		return invalid(field+".temporal_resolution_minutes", "must be positive, got %d", d.TemporalResolutionMinutes)
	}
	return nil
}

// Overrides are the command-line and environment values that replace
// configured ones when set.
type Overrides struct {
	Coordinates      string
	OutputDir        string
	GlobalIrradiance string
	DirectIrradiance string
	Optimisation     int
	BatchIndex       *int
	LogFile          string
}

// ParseArgs reads the positional engine arguments
// [coordinates] [output dir] [global ds] [direct ds] [optimisation] [batch index].
func ParseArgs(args []string) (Overrides, error) {
	var o Overrides
	if len(args) > 6 {
		return o, invalid("arguments", "expected at most 6 positional arguments, got %d", len(args))
	}
	fields := []*string{&o.Coordinates, &o.OutputDir, &o.GlobalIrradiance, &o.DirectIrradiance}
	for i, arg := range args {
		if i < len(fields) {
			*fields[i] = arg
		}
	}
	if len(args) > 4 {
		n, err := strconv.Atoi(args[4])
		if err != nil || (n != 1 && n != 2) {
			return o, invalid("sweep.optimisation", "must be 1 or 2, got %q", args[4])
		}
		o.Optimisation = n
	}
	if len(args) > 5 {
		n, err := strconv.Atoi(args[5])
		if err != nil || n < 0 {
			return o, invalid("sweep.batch_index", "must be a non-negative integer, got %q", args[5])
		}
		o.BatchIndex = &n
	}
	return o, nil
}

// EnvOverrides reads the HASPR_* environment variables.
func EnvOverrides() Overrides {
	return Overrides{
		Coordinates: os.Getenv(EnvCoordinates),
		OutputDir:   os.Getenv(EnvOutputDir),
		LogFile:     os.Getenv(EnvLogFile),
	}
}

// Apply copies the set overrides into c.
func (c *RunConfiguration) Apply(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Coordinates, o.Coordinates)
	set(&c.OutputDir, o.OutputDir)
	set(&c.Datasets.GlobalIrradiance.Path, o.GlobalIrradiance)
	set(&c.Datasets.DirectIrradiance.Path, o.DirectIrradiance)
	set(&c.Log.File, o.LogFile)
	if o.Optimisation != 0 {
		c.Sweep.Optimisation = o.Optimisation
	}
	if o.BatchIndex != nil {
		idx := *o.BatchIndex
		c.Sweep.BatchIndex = &idx
	}
}

// Load reads the configuration from a provider, applies overrides in
// order, fills defaults and validates the result.
func Load(p ConfigProvider, overrides ...Overrides) (*RunConfiguration, error) {
	cfg, err := p.LoadConfig()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		cfg.Apply(o)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsConfigurationError reports whether err stems from an invalid configuration.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
