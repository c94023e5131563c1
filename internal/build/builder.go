package build

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/cssstore"
	"git.home.luguber.info/inful/pagehooks/internal/eventstore"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/hooks/builtin"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
	"git.home.luguber.info/inful/pagehooks/internal/metrics"
	"git.home.luguber.info/inful/pagehooks/internal/observability"
	"git.home.luguber.info/inful/pagehooks/internal/page"
)

// Builder is the default Service.
type Builder struct {
	settings *config.Settings
	engine   *hooks.Engine
	css      *cssstore.Store
	history  eventstore.Store
	recorder metrics.Recorder
	logger   *slog.Logger
	newID    func() string
	shuffle  func(n int, swap func(i, j int))
}

// Option configures a Builder.
type Option func(*Builder)

// WithCSS sets the css store shared by every page of the build.
func WithCSS(s *cssstore.Store) Option { return func(b *Builder) { b.css = s } }

// WithHistory records build events into store.
func WithHistory(store eventstore.Store) Option { return func(b *Builder) { b.history = store } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a builder running engine's stages for settings.
func NewBuilder(settings *config.Settings, engine *hooks.Engine, opts ...Option) *Builder {
	b := &Builder{
		settings: settings,
		engine:   engine,
		css:      cssstore.New(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
		shuffle:  rand.Shuffle,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type pageResult struct {
	req      *hooks.Request
	c        *hooks.Context
	err      error
	duration time.Duration
}

// Run executes one build.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{BuildID: b.newID(), StartTime: start}
	ctx = observability.WithBuildID(ctx, res.BuildID)

	if b.settings == nil || b.engine == nil {
		b.finish(res, StatusFailed)
		return res, ferrors.ConfigError("build needs settings and an engine").Build()
	}

	bc := hooks.NewBuildContext(b.settings)
	if _, err := b.engine.Run(ctx, hooks.StageBootstrap, bc); err != nil {
		b.finish(res, StatusFailed)
		return res, ferrors.WrapError(err, ferrors.CategoryBuild, "bootstrap failed").Build()
	}

	reqs := b.requests()
	workers := b.workers(len(reqs))
	b.logger.InfoContext(ctx, "Build started", logfields.Count(len(reqs)), slog.Int("workers", workers))
	b.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewBuildStarted(res.BuildID, len(reqs), workers, b.shuffled())
	})

	host := page.NewHost(b.engine, b.settings,
		page.WithCSS(b.css),
		page.WithHelpers(bc.Helpers),
		page.WithRecorder(b.recorder),
		page.WithLogger(b.logger))
	results := b.renderAll(ctx, host, reqs, workers)

	for _, r := range results {
		if r == nil {
			continue
		}
		res.Pages++
		b.collect(ctx, bc, res, r)
	}

	if err := ctx.Err(); err != nil {
		b.finish(res, StatusCancelled)
		res.Errors = bc.Errors()
		b.recordCompletion(ctx, res)
		return res, ferrors.WrapError(err, ferrors.CategoryRuntime, "build cancelled").Build()
	}

	if _, err := b.engine.Run(ctx, hooks.StageBuildComplete, bc); err != nil {
		b.finish(res, StatusFailed)
		return res, ferrors.WrapError(err, ferrors.CategoryBuild, "buildComplete failed").Build()
	}

	res.Errors = bc.Errors()
	status := StatusSuccess
	if len(res.Errors) > 0 {
		status = StatusWarning
	}
	var err error
	if len(res.Errors) > 0 && b.settings.Build != nil && b.settings.Build.FailOnError {
		status = StatusFailed
		err = ferrors.BuildError(fmt.Sprintf("build finished with %d errors", len(res.Errors))).
			WithContext("build_id", res.BuildID).
			Build()
	}
	b.finish(res, status)
	b.recordCompletion(ctx, res)
	b.logger.InfoContext(ctx, "Build finished",
		slog.String("status", string(res.Status)),
		logfields.Count(res.Pages),
		slog.Int("errors", len(res.Errors)),
		logfields.Duration(res.Duration))
	return res, err
}

func (b *Builder) requests() []*hooks.Request {
	reqs := make([]*hooks.Request, 0, len(b.settings.Routes))
	for _, r := range b.settings.Routes {
		reqs = append(reqs, &hooks.Request{Route: r.Name, Permalink: r.Permalink, Type: hooks.RequestBuild})
	}
	if b.shuffled() {
		b.shuffle(len(reqs), func(i, j int) { reqs[i], reqs[j] = reqs[j], reqs[i] })
	}
	return reqs
}

func (b *Builder) shuffled() bool {
	return b.settings.Build != nil && b.settings.Build.Shuffle
}

func (b *Builder) workers(pages int) int {
	n := runtime.NumCPU()
	if b.settings.Build != nil && b.settings.Build.Workers > 0 {
		n = b.settings.Build.Workers
	}
	return max(1, min(n, pages))
}

// renderAll renders reqs on n workers. Results keep request order; entries
// for requests skipped after cancellation stay nil.
func (b *Builder) renderAll(ctx context.Context, host *page.Host, reqs []*hooks.Request, n int) []*pageResult {
	results := make([]*pageResult, len(reqs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 1; w <= n; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range jobs {
				req := reqs[i]
				pctx := observability.WithWorker(observability.WithPage(ctx, req.Route, req.Permalink), worker)
				results[i] = b.renderOne(pctx, host, req)
			}
		}(w)
	}

feed:
	for i := range reqs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (b *Builder) renderOne(ctx context.Context, host *page.Host, req *hooks.Request) *pageResult {
	start := time.Now()
	r := &pageResult{req: req}
	p, err := host.Render(ctx, req)
	if err == nil {
		_, err = p.HTML(ctx)
		r.c = p.Context()
	}
	r.err = err
	r.duration = time.Since(start)
	return r
}

// collect folds one page into the build context and the history.
func (b *Builder) collect(ctx context.Context, bc *hooks.Context, res *Result, r *pageResult) {
	var errs []error
	var timings []hooks.Timing
	if r.c != nil {
		errs = r.c.Errors()
		timings = r.c.Timings()
	}
	if r.err != nil {
		res.Failed++
		errs = append(errs, ferrors.WrapError(r.err, ferrors.CategoryRender, "page failed").
			WithContext("route", r.req.Route).
			WithContext("permalink", r.req.Permalink).
			Build())
	}
	bc.Apply(hooks.Patch{Errors: errs, BuildTimings: [][]hooks.Timing{timings}})

	b.record(ctx, func() (eventstore.Event, error) {
		return eventstore.NewPageRendered(res.BuildID, r.req.Route, r.req.Permalink, r.duration, len(errs))
	})
	for _, err := range errs {
		d := builtin.Describe(err)
		if d.Permalink == "" {
			d.Permalink = r.req.Permalink
		}
		b.record(ctx, func() (eventstore.Event, error) {
			return eventstore.NewHookFailed(res.BuildID, d.Hook, d.Stage, d.Permalink, d.Category, d.Message)
		})
	}
}

func (b *Builder) finish(res *Result, status Status) {
	res.Status = status
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(outcomeLabel(status))
}

func (b *Builder) recordCompletion(ctx context.Context, res *Result) {
	b.record(context.WithoutCancel(ctx), func() (eventstore.Event, error) {
		return eventstore.NewBuildCompleted(res.BuildID, string(res.Status), res.Pages, len(res.Errors), res.Duration)
	})
}

// record appends an event to the history. History problems are logged and
// never fail the build.
func (b *Builder) record(ctx context.Context, mk func() (eventstore.Event, error)) {
	if b.history == nil {
		return
	}
	e, err := mk()
	if err == nil {
		err = b.history.Append(ctx, e)
	}
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to record build event", logfields.Error(err))
	}
}

func outcomeLabel(s Status) metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildSuccess
	case StatusWarning:
		return metrics.BuildWarning
	case StatusCancelled:
		return metrics.BuildCanceled
	default:
		return metrics.BuildFailed
	}
}
