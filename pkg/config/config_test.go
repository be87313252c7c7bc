package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
model: fixed
coordinates: coords/coords1.csv
output_dir: output/B1
datasets:
  global_irradiance:
    path: datasets/2017/00_2017_SIS_merged.parquet
  direct_irradiance:
    path: datasets/2017/01_2017_SID_merged.parquet
    temporal_resolution_minutes: 30
  albedo:
    path: datasets/2017/SAL.parquet
sweep:
  optimisation: 2
  batch_index: 3
log:
  file: output/B1/haspr.log
metrics_textfile: output/B1/haspr.prom
`

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "haspr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func validConfig() *RunConfiguration {
	c := &RunConfiguration{
		Coordinates: "coords.csv",
		OutputDir:   "out",
		Datasets: DatasetsData{
			GlobalIrradiance: DatasetData{Path: "sis.parquet"},
			DirectIrradiance: DatasetData{Path: "sid.parquet"},
		},
	}
	c.ApplyDefaults()
	return c
}

func TestYAMLProviderLoad(t *testing.T) {
	p := NewYAMLProvider(writeYAML(t, testYAML))
	defer p.Close()
	assert.True(t, p.IsReadOnly())

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, "fixed", cfg.Model)
	assert.Equal(t, 0.15, cfg.Efficiency)
	require.NotNil(t, cfg.DefaultAlbedo)
	assert.Equal(t, 0.1, cfg.GroundAlbedo())
	assert.Equal(t, 0.05, cfg.Datasets.GlobalIrradiance.SpatialResolution)
	assert.Equal(t, 30, cfg.Datasets.GlobalIrradiance.TemporalResolutionMinutes)
	assert.Equal(t, 0.25, cfg.Datasets.Albedo.SpatialResolution)
	assert.Equal(t, 2, cfg.Sweep.Optimisation)
	require.NotNil(t, cfg.Sweep.BatchIndex)
	assert.Equal(t, 3, *cfg.Sweep.BatchIndex)
	assert.Equal(t, "output/B1/haspr.log", cfg.Log.File)
	assert.Equal(t, 100, cfg.Log.MaxSizeMB)

	r := cfg.SweepRange()
	assert.Equal(t, 120.0, r.AzimuthMin)
	assert.Equal(t, 5.0, r.Increment)
}

func TestYAMLProviderRejectsUnknownFields(t *testing.T) {
	p := NewYAMLProvider(writeYAML(t, "coordinates: a.csv\nefficency: 0.2\n"))
	_, err := p.LoadConfig()
	assert.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg, err := NewYAMLProvider(writeYAML(t, testYAML)).LoadConfig()
	require.NoError(t, err)

	out, err := ToYAML(cfg)
	require.NoError(t, err)

	again, err := NewYAMLProvider(writeYAML(t, string(out))).LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestExplicitZeroAlbedo(t *testing.T) {
	cfg, err := Load(NewYAMLProvider(writeYAML(t, testYAML+"default_albedo: 0\n")))
	require.NoError(t, err)
	require.NotNil(t, cfg.DefaultAlbedo)
	assert.Zero(t, cfg.GroundAlbedo())

	out, err := ToYAML(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "default_albedo: 0")

	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureSchema())
	require.NoError(t, p.SaveConfig(cfg))

	stored, err := Load(p)
	require.NoError(t, err)
	require.NotNil(t, stored.DefaultAlbedo)
	assert.Zero(t, stored.GroundAlbedo())

	unset := &RunConfiguration{}
	assert.Equal(t, 0.1, unset.GroundAlbedo())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *RunConfiguration)
		field  string
	}{
		{"valid", func(c *RunConfiguration) {}, ""},
		{"unknown model", func(c *RunConfiguration) { c.Model = "bifacial" }, "model"},
		{"missing coordinates", func(c *RunConfiguration) { c.Coordinates = "" }, "coordinates"},
		{"missing output dir", func(c *RunConfiguration) { c.OutputDir = "" }, "output_dir"},
		{"missing global dataset", func(c *RunConfiguration) { c.Datasets.GlobalIrradiance.Path = "" }, "datasets.global_irradiance.path"},
		{"missing direct dataset", func(c *RunConfiguration) { c.Datasets.DirectIrradiance.Path = "" }, "datasets.direct_irradiance.path"},
		{"flat needs no direct dataset", func(c *RunConfiguration) {
			c.Model = "flat"
			c.Datasets.DirectIrradiance.Path = ""
		}, ""},
		{"bad resolution", func(c *RunConfiguration) { c.Datasets.GlobalIrradiance.SpatialResolution = -0.05 }, "datasets.global_irradiance.spatial_resolution"},
		{"bad cadence", func(c *RunConfiguration) { c.Datasets.DirectIrradiance.TemporalResolutionMinutes = -30 }, "datasets.direct_irradiance.temporal_resolution_minutes"},
		{"bad efficiency", func(c *RunConfiguration) { c.Efficiency = 1.5 }, "efficiency"},
		{"bad albedo", func(c *RunConfiguration) {
			albedo := 1.2
			c.DefaultAlbedo = &albedo
		}, "default_albedo"},
		{"bad optimisation", func(c *RunConfiguration) { c.Sweep.Optimisation = 3 }, "sweep.optimisation"},
		{"bad batch index", func(c *RunConfiguration) {
			idx := 17
			c.Sweep.BatchIndex = &idx
		}, "sweep.batch_index"},
		{"last batch index", func(c *RunConfiguration) {
			idx := 16
			c.Sweep.BatchIndex = &idx
		}, ""},
		{"tracking ignores sweep", func(c *RunConfiguration) {
			c.Model = "tracking"
			c.Sweep.Optimisation = 9
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Overrides
		wantErr bool
	}{
		{"none", nil, Overrides{}, false},
		{"paths only", []string{"c.csv", "out"}, Overrides{Coordinates: "c.csv", OutputDir: "out"}, false},
		{"optimisation", []string{"c.csv", "out", "sis", "sid", "2"},
			Overrides{Coordinates: "c.csv", OutputDir: "out", GlobalIrradiance: "sis", DirectIrradiance: "sid", Optimisation: 2}, false},
		{"bad optimisation", []string{"c.csv", "out", "sis", "sid", "3"}, Overrides{}, true},
		{"bad batch index", []string{"c.csv", "out", "sis", "sid", "1", "-1"}, Overrides{}, true},
		{"too many", []string{"1", "2", "3", "4", "1", "0", "x"}, Overrides{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if tt.wantErr {
				assert.True(t, IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	o, err := ParseArgs([]string{"c.csv", "out", "sis", "sid", "1", "4"})
	require.NoError(t, err)
	require.NotNil(t, o.BatchIndex)
	assert.Equal(t, 4, *o.BatchIndex)
}

func TestApplyOverrides(t *testing.T) {
	c := validConfig()
	idx := 2
	c.Apply(Overrides{OutputDir: "elsewhere", BatchIndex: &idx})
	c.Apply(Overrides{})

	assert.Equal(t, "elsewhere", c.OutputDir)
	assert.Equal(t, "coords.csv", c.Coordinates)
	require.NotNil(t, c.Sweep.BatchIndex)
	assert.Equal(t, 2, *c.Sweep.BatchIndex)

	t.Setenv(EnvCoordinates, "env.csv")
	c.Apply(EnvOverrides())
	assert.Equal(t, "env.csv", c.Coordinates)
}

func TestSQLiteProvider(t *testing.T) {
	p, err := NewSQLiteProvider(filepath.Join(t.TempDir(), "config.db"))
	require.NoError(t, err)
	defer p.Close()
	assert.False(t, p.IsReadOnly())

	require.NoError(t, p.EnsureSchema())
	require.NoError(t, p.EnsureSchema())

	_, err = p.LoadConfig()
	assert.Error(t, err, "empty store has no default run")

	src, err := NewYAMLProvider(writeYAML(t, testYAML)).LoadConfig()
	require.NoError(t, err)
	require.NoError(t, p.SaveConfig(src))
	require.NoError(t, p.SaveConfig(src))

	got, err := p.LoadConfig()
	require.NoError(t, err)

	src.Name = "default"
	assert.Equal(t, src, got)

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Datasets.Albedo.SpatialResolution)
}
