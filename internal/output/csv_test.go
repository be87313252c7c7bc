package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/poa"
	"github.com/bonesbb/HASPR/internal/sites"
	"github.com/bonesbb/HASPR/internal/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstLine(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	line, _, _ := strings.Cut(string(b), "\n")
	return line
}

func TestWriteResult(t *testing.T) {
	sink, err := NewCSVSink(filepath.Join(t.TempDir(), "B1"))
	require.NoError(t, err)

	start := time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)
	r := generation.Result{
		Profile: generation.Profile{
			{Time: start, EnergyWh: 37.5},
			{Time: start.Add(30 * time.Minute), EnergyWh: 0},
		},
		Breakdown: []poa.Components{{Beam: 300, Diffuse: 150, Ground: 10}, {}},
	}
	site := sites.Site{ID: "7"}
	require.NoError(t, sink.WriteResult("180-30", site, r))

	profilePath := filepath.Join(sink.Dir(), "180-30 Site 7 Generation.csv")
	assert.Equal(t, "Time,Generation [Wh/m2]", firstLine(t, profilePath))
	assert.Equal(t, "Direct Component [W],Diffuse Component [W],Ground Component [W]",
		firstLine(t, filepath.Join(sink.Dir(), "180-30 Site 7 POA Breakdown.csv")))

	p, err := ReadProfile(profilePath)
	require.NoError(t, err)
	assert.Equal(t, r.Profile, p)

	r.Breakdown = nil
	require.NoError(t, sink.WriteResult("Flat", site, r))
	_, err = os.Stat(filepath.Join(sink.Dir(), "Flat Site 7 POA Breakdown.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestOverviewRoundTrip(t *testing.T) {
	sink, err := NewCSVSink(t.TempDir())
	require.NoError(t, err)

	records := []generation.Overview{
		{SiteID: "1", Lat: 46.9, Lon: 7.45, Total: 1200.5, Winter: 300.25, Summer: 900.25, IrradianceMissing: 3, AlbedoMissing: 1},
		{SiteID: "2", Lat: 46.1, Lon: 7.05, Total: 1100, Winter: 280, Summer: 820},
	}
	require.NoError(t, sink.WriteOverview("180-30 Fixed Generation Overview", records))

	path := filepath.Join(sink.Dir(), "180-30 Fixed Generation Overview.csv")
	assert.Equal(t, "Site ID,Latitude,Longitude,Total Generation [Wh/m2],Winter Generation [Wh/m2],"+
		"Summer Generation [Wh/m2],# Irradiation NaNs,# Surface Albedo NaNs", firstLine(t, path))

	got, err := ReadOverview(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestOrientationOf(t *testing.T) {
	tests := []struct {
		name string
		want poa.Orientation
		ok   bool
	}{
		{"out/B3/180-30 Fixed Generation Overview.csv", poa.Orientation{Azimuth: 180, Tilt: 30}, true},
		{"122.5-17.5 Fixed Generation Overview.csv", poa.Orientation{Azimuth: 122.5, Tilt: 17.5}, true},
		{"Optimal Fixed Generation Overview.csv", poa.Orientation{}, false},
		{"Tracking Generation Overview.csv", poa.Orientation{}, false},
		{"180-30 Site 1 Generation.csv", poa.Orientation{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OrientationOf(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectRecordsAndWriteOptima(t *testing.T) {
	root := t.TempDir()
	for _, b := range []struct {
		dir    string
		name   string
		totals []float64
	}{
		{"B0", "180-30", []float64{100, 90}},
		{"B1", "190-30", []float64{120, 80}},
	} {
		sink, err := NewCSVSink(filepath.Join(root, b.dir))
		require.NoError(t, err)
		require.NoError(t, sink.WriteOverview(b.name+" Fixed Generation Overview", []generation.Overview{
			{SiteID: "1", Total: b.totals[0], Winter: b.totals[0] / 4},
			{SiteID: "2", Total: b.totals[1], Winter: b.totals[1] / 4},
		}))
		require.NoError(t, sink.WriteResult(b.name, sites.Site{ID: "1"}, generation.Result{}))
	}

	records, err := CollectRecords(root)
	require.NoError(t, err)
	require.Len(t, records, 4)

	optima := sweep.SelectOptimum(records)
	require.Len(t, optima, 2)
	assert.Equal(t, poa.Orientation{Azimuth: 190, Tilt: 30}, optima[0].Total)
	assert.Equal(t, poa.Orientation{Azimuth: 180, Tilt: 30}, optima[1].Total)

	out := filepath.Join(root, "Optimal Positions.csv")
	require.NoError(t, WriteOptima(out, optima))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Site ID,Opt Az Total,Opt Tilt Total,Opt Az Winter,Opt Tilt Winter\n"+
		"1,190,30,190,30\n"+
		"2,180,30,180,30\n", string(b))
}
