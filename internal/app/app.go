package app

import (
	"context"
	"fmt"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/bonesbb/HASPR/internal/constants"
	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/grid"
	"github.com/bonesbb/HASPR/internal/metrics"
	"github.com/bonesbb/HASPR/internal/output"
	"github.com/bonesbb/HASPR/internal/poa"
	"github.com/bonesbb/HASPR/internal/sites"
	"github.com/bonesbb/HASPR/internal/sweep"
	"github.com/bonesbb/HASPR/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App is one engine run: a validated configuration and the state it needs
// while the run is in progress.
type App struct {
	cfg    *config.RunConfiguration
	runID  uuid.UUID
	logger *zap.SugaredLogger
}

// Summary describes a finished run.
type Summary struct {
	RunID        string
	Model        string
	Sites        int
	Orientations int
	Evaluations  int
	FailedSites  int
	Duration     time.Duration
}

// New creates a run for a validated configuration.
func New(cfg *config.RunConfiguration, logger *zap.SugaredLogger) *App {
	runID := uuid.New()
	return &App{
		cfg:    cfg,
		runID:  runID,
		logger: logger.With("run_id", runID.String()),
	}
}

// RunID identifies this run in logs and metrics.
func (a *App) RunID() string { return a.runID.String() }

// Run loads the inputs, evaluates the configured model and writes the
// results. SIGINT and SIGTERM stop the run between orientations.
func (a *App) Run(ctx context.Context) (*Summary, error) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()

	kind, err := a.cfg.Kind()
	if err != nil {
		return nil, err
	}

	list, err := sites.Read(a.cfg.Coordinates)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "coordinates", Err: err}
	}
	if len(list) == 0 {
		return nil, &config.ConfigurationError{Field: "coordinates", Err: fmt.Errorf("%s: no sites", a.cfg.Coordinates)}
	}

	probe, err := generation.New(kind, a.cfg.Efficiency, poa.Orientation{})
	if err != nil {
		return nil, err
	}
	bundle, err := a.loadDatasets(list, probe.Requires())
	if err != nil {
		return nil, err
	}

	orientations, err := a.orientations(kind)
	if err != nil {
		return nil, err
	}

	sink, err := output.NewCSVSink(a.cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	recorder.SetRunInfo(a.RunID(), kind.String(), constants.Version)

	a.logger.Infow("starting run", "model", kind, "sites", len(list), "orientations", len(orientations),
		"output_dir", a.cfg.OutputDir, "version", constants.Version)

	source := generation.Source{Bundle: bundle, DefaultAlbedo: a.cfg.GroundAlbedo()}
	opts := sweep.Options{Kind: kind, Efficiency: a.cfg.Efficiency, SkipProfiles: a.cfg.SkipProfiles}
	result, runErr := sweep.New(source, opts, sink, recorder, a.logger).Run(ctx, list, orientations)

	summary := &Summary{
		RunID:        a.RunID(),
		Model:        kind.String(),
		Sites:        len(list),
		Orientations: len(orientations),
		Duration:     time.Since(started),
	}
	if result != nil {
		summary.Evaluations = result.Evaluations
		if result.Failed != nil {
			summary.FailedSites = result.Failed.Len()
		}
	}

	if a.cfg.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			a.logger.Warnf("%v", err)
		}
	}

	a.logger.Infow("run finished", "evaluations", summary.Evaluations, "failed_sites", summary.FailedSites,
		"duration", summary.Duration.Round(time.Millisecond))

	if runErr != nil {
		return summary, runErr
	}
	if summary.FailedSites == summary.Sites {
		return summary, fmt.Errorf("no site could be evaluated: %w", result.Failed)
	}
	return summary, nil
}

// loadDatasets reads the datasets the model needs, cropped to the sites.
func (a *App) loadDatasets(list []sites.Site, req generation.Requirements) (*grid.Bundle, error) {
	ds := a.cfg.Datasets
	bounds := grid.Around(sites.Points(list), cropMargin(ds))

	load := func(d config.DatasetData, cadence grid.Cadence) (*grid.Dataset, error) {
		started := time.Now()
		meta := grid.Meta{Resolution: d.SpatialResolution, Cadence: cadence}
		dataset, err := grid.Load(d.Path, meta, bounds)
		if err != nil {
			return nil, err
		}
		a.logger.Infow("loaded dataset", "path", d.Path, "timestamps", dataset.Len(),
			"duration", time.Since(started).Round(time.Millisecond))
		return dataset, nil
	}

	bundle := &grid.Bundle{}
	var err error
	if bundle.Global, err = load(ds.GlobalIrradiance, grid.EveryMinutes(ds.GlobalIrradiance.TemporalResolutionMinutes)); err != nil {
		return nil, err
	}
	if req.Direct {
		if bundle.Direct, err = load(ds.DirectIrradiance, grid.EveryMinutes(ds.DirectIrradiance.TemporalResolutionMinutes)); err != nil {
			return nil, err
		}
	}
	if req.Albedo && ds.Albedo.Path != "" {
		if bundle.Albedo, err = load(ds.Albedo, grid.PentadCadence); err != nil {
			return nil, err
		}
	}
	return bundle, bundle.Check(req.Direct)
}

// cropMargin keeps two cells of the coarsest dataset around the sites.
func cropMargin(ds config.DatasetsData) float64 {
	res := math.Max(ds.GlobalIrradiance.SpatialResolution, ds.DirectIrradiance.SpatialResolution)
	if ds.Albedo.Path != "" {
		res = math.Max(res, ds.Albedo.SpatialResolution)
	}
	return 2 * res
}

// orientations returns the fixed-tilt orientations this run sweeps.
func (a *App) orientations(kind generation.Kind) ([]poa.Orientation, error) {
	if kind != generation.FixedTilt {
		return nil, nil
	}
	all := a.cfg.SweepRange().Orientations()
	if a.cfg.Sweep.BatchIndex == nil {
		return all, nil
	}
	batch, err := sweep.Batch(all, a.cfg.Sweep.BatchSize, *a.cfg.Sweep.BatchIndex)
	if err != nil {
		return nil, &config.ConfigurationError{Field: "sweep.batch_index", Err: err}
	}
	return batch, nil
}
