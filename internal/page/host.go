// Package page renders one page by driving the request stages of the hook
// pipeline.
package page

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/cssstore"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/hooks/builtin"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
	"git.home.luguber.info/inful/pagehooks/internal/markdown"
	"git.home.luguber.info/inful/pagehooks/internal/metrics"
)

// Host renders pages for one site.
type Host struct {
	engine   *hooks.Engine
	settings *config.Settings
	css      *cssstore.Store
	helpers  hooks.Helpers
	markdown *markdown.Renderer
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Host.
type Option func(*Host)

// WithCSS sets the css store routes pull their css from.
func WithCSS(s *cssstore.Store) Option { return func(h *Host) { h.css = s } }

// WithHelpers sets the helpers every request starts with, usually the result of bootstrap.
func WithHelpers(helpers hooks.Helpers) Option { return func(h *Host) { h.helpers = helpers } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Host) {
		if r != nil {
			h.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates a host running engine's request stages.
func NewHost(engine *hooks.Engine, settings *config.Settings, opts ...Option) *Host {
	h := &Host{
		engine:   engine,
		settings: settings,
		css:      cssstore.New(),
		helpers:  hooks.Helpers{},
		markdown: markdown.New(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Render prepares the page for req. Nothing runs until HTML is called.
func (h *Host) Render(_ context.Context, req *hooks.Request) (*Page, error) {
	if req == nil {
		return nil, ferrors.ValidationError("nil page request").Build()
	}
	route, ok := h.settings.RouteByName(req.Route)
	if !ok {
		return nil, ferrors.NewError(ferrors.CategoryNotFound, "unknown route").
			WithContext("route", req.Route).
			Build()
	}
	return &Page{host: h, req: req, route: route}, nil
}

// Renderer adapts the host to the middleware hook.
func (h *Host) Renderer() builtin.Renderer {
	return builtin.RendererFunc(func(ctx context.Context, req *hooks.Request) (builtin.Page, error) {
		p, err := h.Render(ctx, req)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// Page is one rendered page. HTML runs the pipeline once.
type Page struct {
	host  *Host
	req   *hooks.Request
	route config.Route

	once sync.Once
	c    *hooks.Context
	html string
	err  error
}

// Request returns the request the page was created for.
func (p *Page) Request() *hooks.Request { return p.req }

// HTML runs the request stages and returns the final document.
func (p *Page) HTML(ctx context.Context) (string, error) {
	p.once.Do(func() { p.html, p.err = p.run(ctx) })
	return p.html, p.err
}

// Context returns the finished stage context, nil before HTML ran.
func (p *Page) Context() *hooks.Context { return p.c }

// run drives the stages. Hook failures accumulate in the context; only caller
// errors from the engine abort the page.
func (p *Page) run(ctx context.Context) (string, error) {
	h := p.host
	start := h.now()
	c := hooks.NewRequestContext(h.settings, p.req)
	c.Helpers = maps.Clone(h.helpers)
	c.Data = maps.Clone(p.route.Data)
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	p.c = c

	steps := []struct {
		name string
		fn   func(context.Context, *hooks.Context) error
	}{
		{string(hooks.StageRequest), p.stage(hooks.StageRequest)},
		{string(hooks.StageData), p.stage(hooks.StageData)},
		{"template", p.template},
		{string(hooks.StageShortcodes), p.stage(hooks.StageShortcodes)},
		{"layout", p.layout},
		{"css", p.css},
		{string(hooks.StageStacks), p.stage(hooks.StageStacks)},
		{"headString", p.head},
		{string(hooks.StageHead), p.stage(hooks.StageHead)},
		{"footerString", p.footer},
		{string(hooks.StageCompileHTML), p.stage(hooks.StageCompileHTML)},
		{string(hooks.StageHTML), p.stage(hooks.StageHTML)},
	}
	for _, s := range steps {
		if err := p.timed(ctx, c, s.name, s.fn); err != nil {
			return "", err
		}
	}
	c.Apply(hooks.Patch{Timings: []hooks.Timing{{Name: "request.total", Duration: h.now().Sub(start)}}})
	if _, err := h.engine.Run(ctx, hooks.StageRequestComplete, c); err != nil {
		return "", err
	}
	// Errors from requestComplete hooks are reported too.
	if len(c.Errors()) > 0 {
		if _, err := h.engine.Run(ctx, hooks.StageError, c); err != nil {
			return "", err
		}
	}

	h.recorder.ObserveRequestDuration(p.req.Route, h.now().Sub(start))
	h.recorder.IncPageRendered(len(c.Errors()) == 0)

	html, err := c.Output(hooks.OutputHTMLString)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "page produced no html").
			WithContext("permalink", p.req.Permalink).
			WithContext("errors", len(c.Errors())).
			Build()
	}
	return html, nil
}

func (p *Page) timed(ctx context.Context, c *hooks.Context, name string, fn func(context.Context, *hooks.Context) error) error {
	start := p.host.now()
	err := fn(ctx, c)
	c.Apply(hooks.Patch{Timings: []hooks.Timing{{Name: name, Duration: p.host.now().Sub(start)}}})
	return err
}

func (p *Page) stage(stage hooks.Stage) func(context.Context, *hooks.Context) error {
	return func(ctx context.Context, c *hooks.Context) error {
		_, err := p.host.engine.Run(ctx, stage, c)
		return err
	}
}

// template renders the route's markdown into templateHtml. A failure is
// recorded on the context and leaves an empty template.
func (p *Page) template(_ context.Context, c *hooks.Context) error {
	source, err := p.source()
	var out string
	if err == nil {
		out, err = p.host.markdown.Render(source)
	}
	if err != nil {
		c.Apply(hooks.Patch{Errors: []error{
			ferrors.WrapError(err, ferrors.CategoryRender, "failed to render template").
				WithContext("route", p.route.Name).
				WithContext("permalink", p.req.Permalink).
				Build(),
		}})
	}
	c.Apply(hooks.Patch{Outputs: map[hooks.Output]string{hooks.OutputTemplateHTML: out}})
	return nil
}

func (p *Page) source() ([]byte, error) {
	if p.route.Template == "" {
		return []byte(p.route.Content), nil
	}
	s := p.host.settings
	path := filepath.Join(s.Resolve(s.Locations.Source), filepath.FromSlash(p.route.Template))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return data, nil
}

func (p *Page) layout(_ context.Context, c *hooks.Context) error {
	tmpl, err := c.Output(hooks.OutputTemplateHTML)
	if err != nil {
		return err
	}
	c.Apply(hooks.Patch{Outputs: map[hooks.Output]string{hooks.OutputLayoutHTML: `<main>` + tmpl + `</main>`}})
	return nil
}

// css pushes the route's css from the build store onto the css stack.
func (p *Page) css(_ context.Context, c *hooks.Context) error {
	bundle := p.host.css.Bundle(p.route.CSS)
	if len(bundle.CSS) == 0 {
		return nil
	}
	frags := make([]hooks.Fragment, len(bundle.CSS))
	for i, css := range bundle.CSS {
		frags[i] = hooks.Fragment{Source: "css:" + bundle.Matches[i], String: css, Priority: hooks.DefaultFragmentPriority}
	}
	c.Apply(hooks.Patch{Push: map[hooks.Stack][]hooks.Fragment{hooks.StackCSS: frags}})
	return nil
}

func (p *Page) head(_ context.Context, c *hooks.Context) error {
	p.checkStacks(c, hooks.StackHead, hooks.StackCSS)
	head := hooks.Compose(c.Stack(hooks.StackHead))
	if css := hooks.Compose(c.Stack(hooks.StackCSS)); css != "" {
		head += "<style>" + css + "</style>"
	}
	c.Apply(hooks.Patch{Outputs: map[hooks.Output]string{hooks.OutputHeadString: head}})
	return nil
}

func (p *Page) footer(_ context.Context, c *hooks.Context) error {
	p.checkStacks(c, hooks.StackBeforeHydrate, hooks.StackHydrate, hooks.StackCustomJS, hooks.StackFooter)
	var sb strings.Builder
	sb.WriteString(hooks.Compose(c.Stack(hooks.StackBeforeHydrate)))
	sb.WriteString(hooks.Compose(c.Stack(hooks.StackHydrate)))
	if js := hooks.Compose(c.Stack(hooks.StackCustomJS)); js != "" {
		sb.WriteString("<script>" + js + "</script>")
	}
	sb.WriteString(hooks.Compose(c.Stack(hooks.StackFooter)))
	c.Apply(hooks.Patch{Outputs: map[hooks.Output]string{hooks.OutputFooterString: sb.String()}})
	return nil
}

// checkStacks logs stack contents and malformed markup when debug.stacks is set.
// Css and js stacks hold raw code, not markup, so only their sizes are logged.
func (p *Page) checkStacks(c *hooks.Context, stacks ...hooks.Stack) {
	if !p.host.settings.Debug.Stacks {
		return
	}
	for _, s := range stacks {
		frags := c.Stack(s)
		p.host.logger.Debug("Stack composed",
			logfields.Permalink(p.req.Permalink),
			slog.String("stack", string(s)),
			logfields.Count(len(frags)))
		if s == hooks.StackCSS || s == hooks.StackCustomJS {
			continue
		}
		for _, f := range frags {
			if err := hooks.ValidateFragment(f); err != nil {
				p.host.logger.Warn("Malformed stack fragment",
					logfields.Permalink(p.req.Permalink),
					slog.String("stack", string(s)),
					logfields.Error(err))
			}
		}
	}
}
