package sweep

import (
	"context"
	"time"

	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/poa"
	"github.com/bonesbb/HASPR/internal/sites"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Sink receives the output of a run.
type Sink interface {
	// WriteResult stores one site's profile (and breakdown, when present)
	// under label, which is an orientation or a model name.
	WriteResult(label string, site sites.Site, r generation.Result) error
	// WriteOverview stores the overview records of one pass under name.
	WriteOverview(name string, records []generation.Overview) error
}

// Recorder observes evaluations.
type Recorder interface {
	ObserveEvaluation(model string, d time.Duration, missing generation.Missing)
	ObserveFailure(model string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(string, time.Duration, generation.Missing) {}
func (nopRecorder) ObserveFailure(string)                                       {}

// Options configure an Orchestrator.
type Options struct {
	Kind         generation.Kind
	Efficiency   float64
	SkipProfiles bool // write overview records only
}

// Result is what a run produced.
type Result struct {
	Records     []Record
	Evaluations int
	// Failed collects the sites that could not be evaluated.
	Failed *multierror.Error
}

// Orchestrator runs a generation model over sites and orientations.
type Orchestrator struct {
	source   generation.Source
	opts     Options
	sink     Sink
	recorder Recorder
	logger   *zap.SugaredLogger
}

// New creates an Orchestrator. recorder may be nil.
func New(source generation.Source, opts Options, sink Sink, recorder Recorder, logger *zap.SugaredLogger) *Orchestrator {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if opts.Efficiency == 0 {
		opts.Efficiency = generation.DefaultEfficiency
	}
	return &Orchestrator{
		source:   source,
		opts:     opts,
		sink:     sink,
		recorder: recorder,
		logger:   logger,
	}
}

// pass is one labelled evaluation of some sites at one orientation.
type pass struct {
	label       string
	orientation poa.Orientation
	inputs      []*generation.Inputs
}

// Run prepares every site once, then evaluates the model. Fixed-tilt runs
// sweep orientations (outer) over sites (inner), writing one overview per
// orientation; when the sites carry precomputed optima each site is
// evaluated at its own optimum only. Flat and tracking runs ignore
// orientations. Sites outside a dataset's extent are logged, collected in
// Result.Failed and skipped. Cancellation is honoured between orientations;
// everything written so far stays.
func (o *Orchestrator) Run(ctx context.Context, list []sites.Site, orientations []poa.Orientation) (*Result, error) {
	haveOptimum, err := sites.HaveOptimum(list)
	if err != nil {
		return nil, err
	}
	probe, err := generation.New(o.opts.Kind, o.opts.Efficiency, poa.Orientation{})
	if err != nil {
		return nil, err
	}

	result := &Result{}
	prepared := o.prepare(ctx, list, probe.Requires(), result)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	switch {
	case o.opts.Kind == generation.Flat:
		return result, o.runPass(pass{label: "Flat", inputs: prepared}, "Flat Generation Overview", result)
	case o.opts.Kind == generation.Tracking:
		return result, o.runPass(pass{label: "Tracking", inputs: prepared}, "Tracking Generation Overview", result)
	case haveOptimum:
		return result, o.runOptimum(prepared, result)
	}

	for _, orientation := range orientations {
		if err := ctx.Err(); err != nil {
			o.logger.Warnf("sweep cancelled before orientation %s", orientation)
			return result, err
		}
		p := pass{label: orientation.String(), orientation: orientation, inputs: prepared}
		if err := o.runPass(p, orientation.String()+" Fixed Generation Overview", result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (o *Orchestrator) prepare(ctx context.Context, list []sites.Site, req generation.Requirements, result *Result) []*generation.Inputs {
	prepared := make([]*generation.Inputs, 0, len(list))
	for _, site := range list {
		if ctx.Err() != nil {
			break
		}
		in, err := generation.Prepare(o.source, site, req)
		if err != nil {
			o.logger.Errorw("skipping site", "site", site.ID, "lat", site.Lat, "lon", site.Lon, "error", err)
			o.recorder.ObserveFailure(o.opts.Kind.String())
			result.Failed = multierror.Append(result.Failed, err)
			continue
		}
		o.logger.Debugw("prepared site", "site", site.ID, "steps", in.Len(),
			"irradiance_missing", in.Missing.Irradiance, "albedo_missing", in.Missing.Albedo)
		prepared = append(prepared, in)
	}
	return prepared
}

func (o *Orchestrator) runPass(p pass, overviewName string, result *Result) error {
	m, err := generation.New(o.opts.Kind, o.opts.Efficiency, p.orientation)
	if err != nil {
		return err
	}

	overviews := make([]generation.Overview, 0, len(p.inputs))
	for _, in := range p.inputs {
		r, err := o.evaluate(m, p.label, in)
		if err != nil {
			return err
		}
		overviews = append(overviews, r.Overview)
		result.Records = append(result.Records, Record{Orientation: p.orientation, Overview: r.Overview})
		result.Evaluations++
	}

	if err := o.sink.WriteOverview(overviewName, overviews); err != nil {
		return err
	}
	o.logger.Infow("pass complete", "label", p.label, "sites", len(overviews))
	return nil
}

func (o *Orchestrator) runOptimum(prepared []*generation.Inputs, result *Result) error {
	overviews := make([]generation.Overview, 0, len(prepared))
	for _, in := range prepared {
		orientation := *in.Site.Optimum
		m, err := generation.New(generation.FixedTilt, o.opts.Efficiency, orientation)
		if err != nil {
			return err
		}
		r, err := o.evaluate(m, orientation.String(), in)
		if err != nil {
			return err
		}
		overviews = append(overviews, r.Overview)
		result.Records = append(result.Records, Record{Orientation: orientation, Overview: r.Overview})
		result.Evaluations++
	}
	if err := o.sink.WriteOverview("Optimal Fixed Generation Overview", overviews); err != nil {
		return err
	}
	o.logger.Infow("optimal orientations evaluated", "sites", len(overviews))
	return nil
}

func (o *Orchestrator) evaluate(m generation.Model, label string, in *generation.Inputs) (generation.Result, error) {
	started := time.Now()
	r := generation.Generate(m, in)
	o.recorder.ObserveEvaluation(m.Kind().String(), time.Since(started), in.Missing)

	if !o.opts.SkipProfiles {
		if err := o.sink.WriteResult(label, in.Site, r); err != nil {
			return r, err
		}
	}
	return r, nil
}
