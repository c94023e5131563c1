package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/hooks/builtin"
	"git.home.luguber.info/inful/pagehooks/internal/metrics"
	"git.home.luguber.info/inful/pagehooks/internal/page"
)

func devSettings(t *testing.T) *config.Settings {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "robots.txt"), []byte("User-agent: *\n"), 0o644))
	return &config.Settings{
		RootDir:   root,
		Locations: config.Locations{Public: "public"},
		Routes: []config.Route{
			{Name: "Home", Permalink: "/", Content: "# Home\n"},
			{Name: "About", Permalink: "/about/", Content: "# About\n"},
		},
	}
}

func newPipeline(t *testing.T, s *config.Settings, extra ...hooks.Hook) *Pipeline {
	t.Helper()
	var host *page.Host
	renderer := builtin.RendererFunc(func(ctx context.Context, req *hooks.Request) (builtin.Page, error) {
		return host.Render(ctx, req)
	})
	reg, err := builtin.Registry(builtin.Deps{Renderer: renderer}, s, extra...)
	require.NoError(t, err)
	engine := hooks.NewEngine(reg)
	host = page.NewHost(engine, s)
	return &Pipeline{Settings: s, Engine: engine}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLookup(t *testing.T) {
	s := &config.Settings{
		Server: config.ServerSettings{Prefix: "/dev"},
		Routes: []config.Route{
			{Name: "Home", Permalink: "/"},
			{Name: "About", Permalink: "/about"},
		},
	}
	got := Lookup(s)
	require.Len(t, got, 2)
	assert.Equal(t, "Home", got["/dev/"].Route)
	assert.Equal(t, "About", got["/dev/about/"].Route)
	assert.Equal(t, hooks.RequestServer, got["/dev/about/"].Type)
	assert.Empty(t, Lookup(nil))
}

func TestHandlerServesPages(t *testing.T) {
	h := NewHandler(newPipeline(t, devSettings(t)), nil)

	rec := get(t, h, "/about")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>About</h1>")

	rec = get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Home</h1>")
}

func TestHandlerFallsBackToPublicDir(t *testing.T) {
	h := NewHandler(newPipeline(t, devSettings(t)), nil)

	rec := get(t, h, "/robots.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User-agent: *\n", rec.Body.String())

	rec = get(t, h, "/missing.css")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPrefix(t *testing.T) {
	s := devSettings(t)
	s.Server.Prefix = "/dev"
	h := NewHandler(newPipeline(t, s), nil)

	rec := get(t, h, "/dev")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Home</h1>")

	// Outside the prefix requests go to the static files.
	rec = get(t, h, "/about/")
	assert.NotContains(t, rec.Body.String(), "<h1>About</h1>")
}

func TestHandlerPassesQuery(t *testing.T) {
	var query map[string]any
	probe := hooks.Hook{
		Name: "probe", Stage: hooks.StageMiddleware, Priority: 1,
		Run: func(_ context.Context, c *hooks.Context) (hooks.Result, error) {
			query = c.Query
			return hooks.NoOp(), nil
		},
	}
	s := devSettings(t)
	s.Hooks.Disable = []string{"expressLikeMiddleware"}
	h := NewHandler(newPipeline(t, s, probe), nil)

	rec := get(t, h, "/robots.txt?draft=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"draft": "1"}, query)
}

func TestHandlerHookErrorResponse(t *testing.T) {
	failing := hooks.Hook{
		Name: "auth", Stage: hooks.StageMiddleware, Priority: 10,
		Run: func(context.Context, *hooks.Context) (hooks.Result, error) {
			return hooks.NoOp(), errors.New("denied")
		},
	}
	s := devSettings(t)
	s.Hooks.Disable = []string{"expressLikeMiddleware"}
	h := NewHandler(newPipeline(t, s, failing), nil)

	rec := get(t, h, "/about/")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ferrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(ferrors.CategoryHook), body.Code)
	assert.Equal(t, "auth", body.Details["hook"])
}

func TestHandlerSwap(t *testing.T) {
	s := devSettings(t)
	h := NewHandler(newPipeline(t, s), nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/blog/").Code)

	next := *s
	next.Routes = append(append([]config.Route(nil), s.Routes...), config.Route{Name: "Blog", Permalink: "/blog/", Content: "# Blog\n"})
	h.Swap(newPipeline(t, &next))

	rec := get(t, h, "/blog/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Blog</h1>")
}

func TestServerRoutesMetrics(t *testing.T) {
	s := devSettings(t)
	s.Metrics = config.MetricsSettings{Enabled: true, Path: "/metrics"}
	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	recorder.IncBuildOutcome(metrics.BuildSuccess)

	srv := New(NewHandler(newPipeline(t, s), nil), nil, WithMetrics(metrics.HTTPHandler(reg)))
	rec := get(t, srv.Routes(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pagehooks_build_outcomes_total{outcome="success"} 1`)

	s.Metrics.Enabled = false
	srv = New(NewHandler(newPipeline(t, s), nil), nil, WithMetrics(metrics.HTTPHandler(reg)))
	assert.Equal(t, http.StatusNotFound, get(t, srv.Routes(), "/metrics").Code)
}

func TestServerStartStop(t *testing.T) {
	srv := New(NewHandler(newPipeline(t, devSettings(t)), nil), nil)
	require.NoError(t, srv.Start(t.Context(), "127.0.0.1:0"))
	require.NotNil(t, srv.Addr())

	resp, err := http.Get("http://" + srv.Addr().String() + "/about/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop(context.Background()))
}
