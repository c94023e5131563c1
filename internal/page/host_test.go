package page

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/cssstore"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/fsout"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/hooks/builtin"
	"git.home.luguber.info/inful/pagehooks/internal/shortcode"
)

func newHost(t *testing.T, s *config.Settings, extra []hooks.Hook, opts ...Option) *Host {
	t.Helper()
	parser, err := shortcode.NewParser(s.Shortcodes)
	require.NoError(t, err)
	reg, err := builtin.Registry(builtin.Deps{Shortcodes: parser, Writer: fsout.New()}, s, extra...)
	require.NoError(t, err)
	return NewHost(hooks.NewEngine(reg), s, opts...)
}

func render(t *testing.T, h *Host, route, permalink string) (*Page, string) {
	t.Helper()
	p, err := h.Render(context.Background(), &hooks.Request{Route: route, Permalink: permalink, Type: hooks.RequestBuild})
	require.NoError(t, err)
	html, err := p.HTML(context.Background())
	require.NoError(t, err)
	return p, html
}

func TestRenderFullDocument(t *testing.T) {
	s := &config.Settings{Routes: []config.Route{{Name: "Home", Permalink: "/", Content: "# Hi\n"}}}
	p, html := render(t, newHost(t, s, nil), "Home", "/")

	assert.True(t, strings.HasPrefix(html, `<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8" /><link rel="preload" href="/static/s.min.js" as="script" /><meta name="viewport"`), html)
	assert.Contains(t, html, `<body class="Home"><main><h1>Hi</h1>`)
	assert.True(t, strings.HasSuffix(html, `<script data-name="systemjs" src="/static/s.min.js"></script></body></html>`), html)
	assert.Less(t, strings.Index(html, "IntersectionObserver"), strings.Index(html, "systemjs"))

	c := p.Context()
	require.NotNil(t, c)
	assert.Empty(t, c.Errors())
	var names []string
	for _, tm := range c.Timings() {
		names = append(names, tm.Name)
	}
	assert.Equal(t, []string{
		"request", "data", "template", "shortcodes", "layout", "css", "stacks",
		"headString", "head", "footerString", "compileHtml", "html", "request.total",
	}, names)
}

func TestRenderShortcodesAndCSS(t *testing.T) {
	s := &config.Settings{
		Routes: []config.Route{{
			Name: "Home", Permalink: "/",
			Content: "{{box title=\"Hi\"}}inner{{/box}}\n",
			CSS:     []string{"layouts/Main"},
		}},
		Shortcodes: []config.Shortcode{{
			Name:     "box",
			Template: `<div class="box">{{.Attrs.title}}: {{.Content}}</div>`,
			CSS:      ".box{}",
			JS:       `console.log("box");`,
		}},
	}
	store := cssstore.New()
	store.Set("layouts/Main", "body{}"+cssstore.MapIntro+"xyz*/")

	_, html := render(t, newHost(t, s, nil, WithCSS(store)), "Home", "/")
	assert.Contains(t, html, `<div class="box">Hi: inner</div>`)
	assert.Contains(t, html, `<style>.box{}body{}</style>`)
	assert.NotContains(t, html, "sourceMappingURL")
	assert.Contains(t, html, `<script>console.log("box");</script>`)
}

func TestRenderWritesPage(t *testing.T) {
	root := t.TempDir()
	s := &config.Settings{
		RootDir:   root,
		Build:     &config.BuildSettings{},
		Locations: config.Locations{Public: "public", Source: "src"},
		Routes:    []config.Route{{Name: "About", Permalink: "/about/", Template: "about.md"}},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "about.md"), []byte("About *us*\n"), 0o600))

	_, html := render(t, newHost(t, s, nil), "About", "/about/")
	written, err := os.ReadFile(filepath.Join(root, "public", "about", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, html, string(written))
	assert.Contains(t, html, "About <em>us</em>")
}

func TestRenderRecordsTemplateFailure(t *testing.T) {
	var errorStageRan atomic.Bool
	observer := hooks.Hook{Name: "observe", Stage: hooks.StageError, Priority: 50, Run: func(context.Context, *hooks.Context) (hooks.Result, error) {
		errorStageRan.Store(true)
		return hooks.NoOp(), nil
	}}
	s := &config.Settings{
		RootDir:   t.TempDir(),
		Worker:    true,
		Locations: config.Locations{Source: "src"},
		Routes:    []config.Route{{Name: "Gone", Permalink: "/gone/", Template: "missing.md"}},
	}

	p, html := render(t, newHost(t, s, []hooks.Hook{observer}), "Gone", "/gone/")
	assert.Contains(t, html, `<body class="Gone"><main></main>`)
	require.Len(t, p.Context().Errors(), 1)
	assert.True(t, ferrors.HasCategory(p.Context().Errors()[0], ferrors.CategoryRender))
	assert.True(t, errorStageRan.Load())
}

type failingWriter struct{}

func (failingWriter) WriteFile(string, string) error { return errors.New("disk full") }
func (failingWriter) WriteJSON(string, any) error    { return errors.New("disk full") }

func TestRenderReportsWriteFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := &config.Settings{
		RootDir:   t.TempDir(),
		Build:     &config.BuildSettings{},
		Locations: config.Locations{Public: "public"},
		Routes:    []config.Route{{Name: "Home", Permalink: "/", Content: "# Hi\n"}},
	}
	parser, err := shortcode.NewParser(nil)
	require.NoError(t, err)
	reg, err := builtin.Registry(builtin.Deps{Shortcodes: parser, Writer: failingWriter{}, Logger: logger}, s)
	require.NoError(t, err)

	p, _ := render(t, NewHost(hooks.NewEngine(reg), s), "Home", "/")
	require.Len(t, p.Context().Errors(), 1)
	assert.True(t, ferrors.HasCategory(p.Context().Errors()[0], ferrors.CategoryWrite))
	assert.Contains(t, logs.String(), "Request failed")
	assert.Contains(t, logs.String(), "disk full")
}

func TestHTMLRunsOnce(t *testing.T) {
	var runs atomic.Int32
	counter := hooks.Hook{Name: "count", Stage: hooks.StageRequest, Priority: 1, Run: func(context.Context, *hooks.Context) (hooks.Result, error) {
		runs.Add(1)
		return hooks.NoOp(), nil
	}}
	s := &config.Settings{Routes: []config.Route{{Name: "Home", Permalink: "/", Content: "x"}}}
	p, first := render(t, newHost(t, s, []hooks.Hook{counter}), "Home", "/")

	second, err := p.HTML(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRenderUnknownRoute(t *testing.T) {
	h := newHost(t, &config.Settings{}, nil)
	_, err := h.Render(context.Background(), &hooks.Request{Route: "Nope"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	_, err = h.Renderer().Render(context.Background(), &hooks.Request{Route: "Nope"})
	require.Error(t, err)
}

func TestRouteDataAndHelpersSeedContext(t *testing.T) {
	var seen map[string]any
	var helpers hooks.Helpers
	probe := hooks.Hook{Name: "probe", Stage: hooks.StageData, Priority: 1, Run: func(_ context.Context, c *hooks.Context) (hooks.Result, error) {
		seen = c.Data
		helpers = c.Helpers
		return hooks.NoOp(), nil
	}}
	s := &config.Settings{Routes: []config.Route{{Name: "Home", Permalink: "/", Content: "x", Data: map[string]any{"foo": "bar"}}}}
	render(t, newHost(t, s, []hooks.Hook{probe}, WithHelpers(hooks.Helpers{"siteName": "Example"})), "Home", "/")

	assert.Equal(t, "bar", seen["foo"])
	assert.Equal(t, "Example", helpers["siteName"])
}
