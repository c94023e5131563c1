package server

import (
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"sync/atomic"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
)

// Pipeline is what a request runs against. It is replaced as a whole when
// settings are reloaded.
type Pipeline struct {
	Settings *config.Settings
	Engine   *hooks.Engine
	// Helpers are the bootstrap helpers every request starts from.
	Helpers hooks.Helpers

	lookup map[string]*hooks.Request
	static http.Handler
}

// Lookup maps request paths (server prefix plus permalink, always ending in a
// slash) to the route that serves them.
func Lookup(settings *config.Settings) map[string]*hooks.Request {
	out := map[string]*hooks.Request{}
	if settings == nil {
		return out
	}
	for _, r := range settings.Routes {
		key := settings.Server.Prefix + "/" + strings.Trim(r.Permalink, "/")
		if !strings.HasSuffix(key, "/") {
			key += "/"
		}
		out[key] = &hooks.Request{Route: r.Name, Permalink: r.Permalink, Type: hooks.RequestServer}
	}
	return out
}

func (p *Pipeline) prepare() {
	p.lookup = Lookup(p.Settings)
	if dir := p.Settings.PublicDir(); dir != "" {
		p.static = http.FileServer(http.Dir(dir))
	} else {
		p.static = http.NotFoundHandler()
	}
}

// Handler answers dev server requests through the middleware stage.
type Handler struct {
	current atomic.Pointer[Pipeline]
	errors  *ferrors.HTTPErrorAdapter
	logger  *slog.Logger
}

// NewHandler creates a handler serving p.
func NewHandler(p *Pipeline, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{errors: ferrors.NewHTTPErrorAdapter(logger), logger: logger}
	h.Swap(p)
	return h
}

// Swap replaces the pipeline for subsequent requests. Requests in flight
// finish on the pipeline they started with.
func (h *Handler) Swap(p *Pipeline) {
	p.prepare()
	h.current.Store(p)
}

// Pipeline returns the pipeline currently serving requests.
func (h *Handler) Pipeline() *Pipeline { return h.current.Load() }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := h.current.Load()
	res := newResponseAdapter(w)

	c := hooks.NewRequestContext(p.Settings, nil)
	c.Helpers = maps.Clone(p.Helpers)
	if c.Helpers == nil {
		c.Helpers = hooks.Helpers{}
	}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			c.Query[k] = v[0]
		}
	}
	c.Req = &hooks.IncomingRequest{Method: r.Method, Path: r.URL.Path}
	c.Res = res
	c.ServerLookup = p.lookup
	c.Next = func() any {
		if !res.HeaderSent() {
			p.static.ServeHTTP(res, r)
		}
		return nil
	}

	out, err := p.Engine.Run(r.Context(), hooks.StageMiddleware, c)
	if err != nil {
		h.fail(res, r, err)
		return
	}
	if errs := c.Errors(); len(errs) > 0 {
		for _, e := range errs {
			h.logger.WarnContext(r.Context(), "Middleware hook failed", logfields.Path(r.URL.Path), logfields.Error(e))
		}
		if !res.HeaderSent() {
			h.fail(res, r, errs[0])
		}
		return
	}
	if !out.Stopped && !res.HeaderSent() {
		c.Next()
	}
}

func (h *Handler) fail(res *responseAdapter, r *http.Request, err error) {
	if res.HeaderSent() {
		return
	}
	h.errors.WriteErrorResponse(res, r, err)
}
