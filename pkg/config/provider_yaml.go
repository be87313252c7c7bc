package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// YAML mirrors of the configuration structs

type RunYAML struct {
	Name            string       `yaml:"name,omitempty"`
	Model           string       `yaml:"model,omitempty"`
	Coordinates     string       `yaml:"coordinates"`
	OutputDir       string       `yaml:"output_dir"`
	Efficiency      float64      `yaml:"efficiency,omitempty"`
	DefaultAlbedo   *float64     `yaml:"default_albedo,omitempty"`
	SkipProfiles    bool         `yaml:"skip_profiles,omitempty"`
	Datasets        DatasetsYAML `yaml:"datasets"`
	Sweep           SweepYAML    `yaml:"sweep,omitempty"`
	Log             LogYAML      `yaml:"log,omitempty"`
	MetricsTextfile string       `yaml:"metrics_textfile,omitempty"`
}

type DatasetsYAML struct {
	GlobalIrradiance DatasetYAML `yaml:"global_irradiance"`
	DirectIrradiance DatasetYAML `yaml:"direct_irradiance,omitempty"`
	Albedo           DatasetYAML `yaml:"albedo,omitempty"`
}

type DatasetYAML struct {
	Path                      string  `yaml:"path"`
	SpatialResolution         float64 `yaml:"spatial_resolution,omitempty"`
	TemporalResolutionMinutes int     `yaml:"temporal_resolution_minutes,omitempty"`
}

type SweepYAML struct {
	Increment    float64   `yaml:"increment,omitempty"`
	BatchSize    int       `yaml:"batch_size,omitempty"`
	Optimisation int       `yaml:"optimisation,omitempty"`
	BatchIndex   *int      `yaml:"batch_index,omitempty"`
	Refined      RangeYAML `yaml:"refined,omitempty"`
}

type RangeYAML struct {
	AzimuthMin float64 `yaml:"azimuth_min"`
	AzimuthMax float64 `yaml:"azimuth_max"`
	TiltMin    float64 `yaml:"tilt_min"`
	TiltMax    float64 `yaml:"tilt_max"`
	Increment  float64 `yaml:"increment"`
}

type LogYAML struct {
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// LoadConfig loads the run configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*RunConfiguration, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var run RunYAML
	dec := yaml.NewDecoder(bytes.NewReader(cfgFile))
	dec.KnownFields(true)
	if err := dec.Decode(&run); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.filename, err)
	}

	return run.toConfig(), nil
}

func (r RunYAML) toConfig() *RunConfiguration {
	return &RunConfiguration{
		Name:          r.Name,
		Model:         r.Model,
		Coordinates:   r.Coordinates,
		OutputDir:     r.OutputDir,
		Efficiency:    r.Efficiency,
		DefaultAlbedo: r.DefaultAlbedo,
		SkipProfiles:  r.SkipProfiles,
		Datasets: DatasetsData{
			GlobalIrradiance: DatasetData(r.Datasets.GlobalIrradiance),
			DirectIrradiance: DatasetData(r.Datasets.DirectIrradiance),
			Albedo:           DatasetData(r.Datasets.Albedo),
		},
		Sweep: SweepData{
			Increment:    r.Sweep.Increment,
			BatchSize:    r.Sweep.BatchSize,
			Optimisation: r.Sweep.Optimisation,
			BatchIndex:   r.Sweep.BatchIndex,
			Refined:      RangeData(r.Sweep.Refined),
		},
		Log:             LogData(r.Log),
		MetricsTextfile: r.MetricsTextfile,
	}
}

// ToYAML converts a configuration into its YAML form.
func ToYAML(c *RunConfiguration) ([]byte, error) {
	run := RunYAML{
		Name:          c.Name,
		Model:         c.Model,
		Coordinates:   c.Coordinates,
		OutputDir:     c.OutputDir,
		Efficiency:    c.Efficiency,
		DefaultAlbedo: c.DefaultAlbedo,
		SkipProfiles:  c.SkipProfiles,
		Datasets: DatasetsYAML{
			GlobalIrradiance: DatasetYAML(c.Datasets.GlobalIrradiance),
			DirectIrradiance: DatasetYAML(c.Datasets.DirectIrradiance),
			Albedo:           DatasetYAML(c.Datasets.Albedo),
		},
		Sweep: SweepYAML{
			Increment:    c.Sweep.Increment,
			BatchSize:    c.Sweep.BatchSize,
			Optimisation: c.Sweep.Optimisation,
			BatchIndex:   c.Sweep.BatchIndex,
			Refined:      RangeYAML(c.Sweep.Refined),
		},
		Log:             LogYAML(c.Log),
		MetricsTextfile: c.MetricsTextfile,
	}
	return yaml.Marshal(&run)
}

// IsReadOnly returns true since YAML files are read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
