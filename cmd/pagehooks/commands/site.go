package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/cssstore"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/fsout"
	"git.home.luguber.info/inful/pagehooks/internal/helpers"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/hooks/builtin"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
	"git.home.luguber.info/inful/pagehooks/internal/metrics"
	"git.home.luguber.info/inful/pagehooks/internal/page"
	"git.home.luguber.info/inful/pagehooks/internal/report"
	"git.home.luguber.info/inful/pagehooks/internal/shortcode"
)

// site bundles everything a build or the dev server needs for one set of
// settings.
type site struct {
	settings *config.Settings
	engine   *hooks.Engine
	host     *page.Host
	css      *cssstore.Store
	recorder metrics.Recorder
	logger   *slog.Logger
}

// newRecorder creates Prometheus collectors when metrics are enabled.
func newRecorder(settings *config.Settings) (metrics.Recorder, *prometheus.Registry) {
	if !settings.Metrics.Enabled {
		return metrics.NoopRecorder{}, nil
	}
	reg := prometheus.NewRegistry()
	return metrics.NewPrometheusRecorder(reg), reg
}

// newSite wires the built-in hooks to their production collaborators.
func newSite(settings *config.Settings, recorder metrics.Recorder, logger *slog.Logger, out io.Writer) (*site, error) {
	parser, err := shortcode.NewParser(settings.Shortcodes)
	if err != nil {
		return nil, err
	}

	css := cssstore.New()
	if dir := settings.Resolve(settings.Locations.CSS); dir != "" {
		n, err := css.LoadDir(dir)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to load css").
				WithContext("dir", dir).
				Build()
		}
		logger.Debug("Loaded component css", logfields.Path(dir), logfields.Count(n))
	}

	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s := &site{settings: settings, css: css, recorder: recorder, logger: logger}

	deps := builtin.Deps{
		Helpers:    helpers.FileLoader{},
		Shortcodes: parser,
		Renderer: builtin.RendererFunc(func(ctx context.Context, req *hooks.Request) (builtin.Page, error) {
			return s.host.Render(ctx, req)
		}),
		Writer:  fsout.New(),
		Reports: report.Multi{&report.ConsoleSink{Out: out, Logger: logger}, metrics.ReportSink{Recorder: s.recorder}},
		Logger:  logger,
	}
	reg, err := builtin.Registry(deps, settings)
	if err != nil {
		return nil, err
	}
	s.engine = hooks.NewEngine(reg,
		hooks.WithLogger(logger),
		hooks.WithRecorder(s.recorder),
		hooks.WithDebug(settings.Debug.Hooks),
		hooks.WithTimings(settings.Debug.Performance))
	s.host = page.NewHost(s.engine, settings,
		page.WithCSS(css),
		page.WithRecorder(s.recorder),
		page.WithLogger(logger))
	return s, nil
}

// bootstrap runs the bootstrap stage once and hands its helpers to the page
// host, for the dev server where no build runs it.
func (s *site) bootstrap(ctx context.Context) (hooks.Helpers, error) {
	bc := hooks.NewBuildContext(s.settings)
	if _, err := s.engine.Run(ctx, hooks.StageBootstrap, bc); err != nil {
		return nil, err
	}
	if errs := bc.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	s.host = page.NewHost(s.engine, s.settings,
		page.WithCSS(s.css),
		page.WithHelpers(bc.Helpers),
		page.WithRecorder(s.recorder),
		page.WithLogger(s.logger))
	return bc.Helpers, nil
}
