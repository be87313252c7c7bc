package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/grid"
	"github.com/bonesbb/HASPR/internal/poa"
	"github.com/bonesbb/HASPR/internal/sites"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFirstOptimisation(t *testing.T) {
	all := FirstOptimisation(10).Orientations()
	require.Len(t, all, 333)
	assert.Equal(t, poa.Orientation{Azimuth: 0, Tilt: 10}, all[0])
	assert.Equal(t, poa.Orientation{Azimuth: 0, Tilt: 20}, all[1], "azimuth-major")
	assert.Equal(t, poa.Orientation{Azimuth: 360, Tilt: 90}, all[332])
	assert.NoError(t, FirstOptimisation(10).Validate())
}

func TestRangeOrientations(t *testing.T) {
	tests := []struct {
		name  string
		r     Range
		count int
		last  poa.Orientation
	}{
		{"refinement", DefaultRefinement(), 25 * 13, poa.Orientation{Azimuth: 240, Tilt: 80}},
		{"single orientation", Range{AzimuthMin: 180, AzimuthMax: 180, TiltMin: 30, TiltMax: 30, Increment: 5}, 1, poa.Orientation{Azimuth: 180, Tilt: 30}},
		{"upper bound off the step", Range{AzimuthMin: 170, AzimuthMax: 195, TiltMin: 30, TiltMax: 40, Increment: 10}, 3 * 2, poa.Orientation{Azimuth: 190, Tilt: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.Orientations()
			require.Len(t, got, tt.count)
			assert.Equal(t, tt.last, got[len(got)-1])
		})
	}
}

func TestRangeValidate(t *testing.T) {
	for _, r := range []Range{
		{AzimuthMin: 0, AzimuthMax: 360, TiltMin: 10, TiltMax: 90},
		{AzimuthMin: 0, AzimuthMax: 400, TiltMin: 10, TiltMax: 90, Increment: 10},
		{AzimuthMin: 0, AzimuthMax: 360, TiltMin: 10, TiltMax: 95, Increment: 10},
		{AzimuthMin: 240, AzimuthMax: 120, TiltMin: 10, TiltMax: 90, Increment: 10},
	} {
		assert.Error(t, r.Validate(), "%+v", r)
	}
}

func TestBatches(t *testing.T) {
	all := FirstOptimisation(10).Orientations()
	batches := Batches(all, 20)
	require.Len(t, batches, 17)
	assert.Len(t, batches[16], 13)

	var joined []poa.Orientation
	for _, b := range batches {
		joined = append(joined, b...)
	}
	assert.Equal(t, all, joined)

	b, err := Batch(all, 20, 3)
	require.NoError(t, err)
	assert.Equal(t, all[60:80], b)

	_, err = Batch(all, 20, 17)
	assert.Error(t, err)
	_, err = Batch(all, 20, -1)
	assert.Error(t, err)
}

func TestSelectOptimum(t *testing.T) {
	o := func(az, tilt float64) poa.Orientation { return poa.Orientation{Azimuth: az, Tilt: tilt} }
	rec := func(id string, orientation poa.Orientation, total, winter float64) Record {
		return Record{Orientation: orientation, Overview: generation.Overview{SiteID: id, Total: total, Winter: winter}}
	}

	got := SelectOptimum([]Record{
		rec("2", o(170, 30), 100, 40),
		rec("1", o(180, 30), 90, 50),
		rec("2", o(180, 30), 120, 40),
		rec("2", o(190, 30), 120, 45),
		rec("1", o(180, 60), 80, 50),
		rec("3", o(180, 30), 0, 0),
	})

	assert.Equal(t, []Optimum{
		{SiteID: "2", Total: o(180, 30), TotalWh: 120, Winter: o(190, 30), WinterWh: 45},
		{SiteID: "1", Total: o(180, 30), TotalWh: 90, Winter: o(180, 30), WinterWh: 50},
		{SiteID: "3"},
	}, got)
}

type written struct {
	label string
	site  string
}

type fakeSink struct {
	results    []written
	overviews  map[string][]generation.Overview
	order      []string
	onOverview func()
}

func (s *fakeSink) WriteResult(label string, site sites.Site, r generation.Result) error {
	s.results = append(s.results, written{label: label, site: site.ID})
	return nil
}

func (s *fakeSink) WriteOverview(name string, records []generation.Overview) error {
	if s.overviews == nil {
		s.overviews = make(map[string][]generation.Overview)
	}
	s.overviews[name] = records
	s.order = append(s.order, name)
	if s.onOverview != nil {
		s.onOverview()
	}
	return nil
}

type countingRecorder struct {
	evaluations int
	failures    int
}

func (r *countingRecorder) ObserveEvaluation(string, time.Duration, generation.Missing) { r.evaluations++ }
func (r *countingRecorder) ObserveFailure(string)                                       { r.failures++ }

func testSource(t *testing.T) generation.Source {
	t.Helper()
	start := time.Date(2017, 6, 1, 11, 0, 0, 0, time.UTC)
	times := []time.Time{start, start.Add(30 * time.Minute), start.Add(time.Hour)}
	lats := []float64{46.85, 46.9}
	lons := []float64{7.45}

	global, err := grid.New(grid.Meta{Name: "SIS", Resolution: 0.05, Cadence: grid.EveryMinutes(30)},
		lats, lons, times, []float32{600, 610, 650, 660, 700, 710})
	require.NoError(t, err)
	direct, err := grid.New(grid.Meta{Name: "SID", Resolution: 0.05, Cadence: grid.EveryMinutes(30)},
		lats, lons, times, []float32{400, 410, 450, 460, 500, 510})
	require.NoError(t, err)

	return generation.Source{Bundle: &grid.Bundle{Global: global, Direct: direct}, DefaultAlbedo: 0.1}
}

var testSites = []sites.Site{
	{ID: "1", Lat: 46.84, Lon: 7.46},
	{ID: "2", Lat: 46.89, Lon: 7.46},
}

func TestRunSweep(t *testing.T) {
	sink := &fakeSink{}
	rec := &countingRecorder{}
	o := New(testSource(t), Options{Kind: generation.FixedTilt}, sink, rec, zap.NewNop().Sugar())

	list := append([]sites.Site{}, testSites...)
	list = append(list, sites.Site{ID: "far", Lat: 10, Lon: 10})
	orientations := []poa.Orientation{{Azimuth: 180, Tilt: 30}, {Azimuth: 180, Tilt: 60}}

	result, err := o.Run(context.Background(), list, orientations)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Evaluations)
	assert.Len(t, result.Records, 4)
	require.NotNil(t, result.Failed)
	assert.Len(t, result.Failed.Errors, 1)
	var rangeErr *grid.DataRangeError
	assert.True(t, errors.As(result.Failed.Errors[0], &rangeErr))

	assert.Equal(t, []string{"180-30 Fixed Generation Overview", "180-60 Fixed Generation Overview"}, sink.order)
	assert.Equal(t, []written{{"180-30", "1"}, {"180-30", "2"}, {"180-60", "1"}, {"180-60", "2"}}, sink.results)
	assert.Len(t, sink.overviews["180-30 Fixed Generation Overview"], 2)

	assert.Equal(t, 4, rec.evaluations)
	assert.Equal(t, 1, rec.failures)

	optima := SelectOptimum(result.Records)
	require.Len(t, optima, 2)
	assert.Greater(t, optima[0].TotalWh, 0.0)
}

func TestRunSkipProfiles(t *testing.T) {
	sink := &fakeSink{}
	o := New(testSource(t), Options{Kind: generation.FixedTilt, SkipProfiles: true}, sink, nil, zap.NewNop().Sugar())

	result, err := o.Run(context.Background(), testSites, []poa.Orientation{{Azimuth: 180, Tilt: 30}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Evaluations)
	assert.Empty(t, sink.results)
	assert.Len(t, sink.overviews, 1)
}

func TestRunOptimumShortCircuit(t *testing.T) {
	sink := &fakeSink{}
	o := New(testSource(t), Options{Kind: generation.FixedTilt}, sink, nil, zap.NewNop().Sugar())

	list := []sites.Site{
		{ID: "1", Lat: 46.84, Lon: 7.46, Optimum: &poa.Orientation{Azimuth: 170, Tilt: 35}},
		{ID: "2", Lat: 46.89, Lon: 7.46, Optimum: &poa.Orientation{Azimuth: 185, Tilt: 40}},
	}
	result, err := o.Run(context.Background(), list, FirstOptimisation(10).Orientations())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Evaluations, "one orientation per site")
	assert.Equal(t, []string{"Optimal Fixed Generation Overview"}, sink.order)
	assert.Equal(t, []written{{"170-35", "1"}, {"185-40", "2"}}, sink.results)
	assert.Equal(t, poa.Orientation{Azimuth: 185, Tilt: 40}, result.Records[1].Orientation)
}

func TestRunMixedOptimum(t *testing.T) {
	o := New(testSource(t), Options{Kind: generation.FixedTilt}, &fakeSink{}, nil, zap.NewNop().Sugar())
	list := []sites.Site{
		{ID: "1", Lat: 46.84, Lon: 7.46, Optimum: &poa.Orientation{Azimuth: 170, Tilt: 35}},
		{ID: "2", Lat: 46.89, Lon: 7.46},
	}
	_, err := o.Run(context.Background(), list, nil)
	assert.ErrorIs(t, err, sites.ErrMixedOptimum)
}

func TestRunFlatAndTracking(t *testing.T) {
	tests := []struct {
		kind     generation.Kind
		label    string
		overview string
	}{
		{generation.Flat, "Flat", "Flat Generation Overview"},
		{generation.Tracking, "Tracking", "Tracking Generation Overview"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			sink := &fakeSink{}
			o := New(testSource(t), Options{Kind: tt.kind}, sink, nil, zap.NewNop().Sugar())
			result, err := o.Run(context.Background(), testSites, FirstOptimisation(10).Orientations())
			require.NoError(t, err)
			assert.Equal(t, 2, result.Evaluations)
			assert.Equal(t, []string{tt.overview}, sink.order)
			assert.Equal(t, []written{{tt.label, "1"}, {tt.label, "2"}}, sink.results)
		})
	}
}

func TestRunCancelledBetweenOrientations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &fakeSink{onOverview: cancel}
	o := New(testSource(t), Options{Kind: generation.FixedTilt}, sink, nil, zap.NewNop().Sugar())

	result, err := o.Run(ctx, testSites, []poa.Orientation{{Azimuth: 180, Tilt: 30}, {Azimuth: 180, Tilt: 60}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"180-30 Fixed Generation Overview"}, sink.order)
	assert.Equal(t, 2, result.Evaluations)
}
