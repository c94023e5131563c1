package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/server"
)

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Stdout: &out}, &out
}

func writeConfig(t *testing.T, yaml string) *CLI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagehooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return &CLI{Config: path}
}

func TestInitThenBuild(t *testing.T) {
	g, out := testGlobal()
	root := &CLI{Config: filepath.Join(t.TempDir(), "pagehooks.yaml")}

	require.NoError(t, (&InitCmd{}).Run(g, root))
	assert.Contains(t, out.String(), "initialized successfully")

	err := (&InitCmd{}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	require.NoError(t, (&InitCmd{Force: true}).Run(g, root))

	out.Reset()
	require.NoError(t, (&BuildCmd{Workers: 2}).Run(g, root))
	assert.Contains(t, out.String(), "Build success: 1 pages, 0 errors")

	html, err := os.ReadFile(filepath.Join(filepath.Dir(root.Config), "public", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h2>Welcome</h2>")
	assert.Contains(t, string(html), ".box{border:1px solid #ddd;padding:1rem;}")
}

func TestBuildFailOnError(t *testing.T) {
	root := writeConfig(t, `
locations:
  public: public
routes:
  - name: Home
    permalink: /
    template: missing.md
`)
	g, out := testGlobal()

	require.NoError(t, (&BuildCmd{}).Run(g, root))
	assert.Contains(t, out.String(), "Build warning: 1 pages, 1 errors")

	errs, err := os.ReadFile(filepath.Join(filepath.Dir(root.Config), ".pagehooks", "build-errors.json"))
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(errs, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "render", records[0]["category"])

	err = (&BuildCmd{FailOnError: true}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
}

func TestBuildRecordsHistory(t *testing.T) {
	root := writeConfig(t, `
locations:
  public: public
history:
  path: .pagehooks/history.db
routes:
  - name: Home
    permalink: /
    content: "# Home"
  - name: About
    permalink: /about/
    content: "# About"
`)
	g, out := testGlobal()
	require.NoError(t, (&BuildCmd{}).Run(g, root))

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(g, root))
	assert.Contains(t, out.String(), "success")
	assert.Contains(t, out.String(), "2 pages")

	out.Reset()
	err := (&HistoryCmd{Limit: 5, Build: "nope"}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestHistoryDisabled(t *testing.T) {
	root := writeConfig(t, "routes: []\n")
	g, _ := testGlobal()
	err := (&HistoryCmd{Limit: 5}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestHooksWithoutConfig(t *testing.T) {
	g, out := testGlobal()
	root := &CLI{Config: filepath.Join(t.TempDir(), "absent.yaml")}

	require.NoError(t, (&HooksCmd{Format: "text"}).Run(g, root))
	assert.Contains(t, out.String(), "Hook Pipeline")
	assert.Contains(t, out.String(), "expressLikeMiddleware")
	assert.Contains(t, out.String(), "Total: 13 hooks")
}

func TestHooksHonoursDisable(t *testing.T) {
	root := writeConfig(t, `
hooks:
  disable: [expressLikeMiddleware]
routes: []
`)
	g, out := testGlobal()
	require.NoError(t, (&HooksCmd{Format: "json"}).Run(g, root))
	assert.NotContains(t, out.String(), "expressLikeMiddleware")
	assert.Contains(t, out.String(), "writeHtmlFileToPublic")
}

func TestHooksToFile(t *testing.T) {
	g, out := testGlobal()
	dest := filepath.Join(t.TempDir(), "pipeline.mmd")
	root := &CLI{Config: filepath.Join(t.TempDir(), "absent.yaml")}

	require.NoError(t, (&HooksCmd{Format: "mermaid", Output: dest}).Run(g, root))
	assert.Empty(t, out.String())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "subgraph")
}

func TestHooksStages(t *testing.T) {
	g, out := testGlobal()
	require.NoError(t, (&HooksCmd{Stages: true}).Run(g, &CLI{}))
	assert.Contains(t, out.String(), "compileHtml")
	assert.Contains(t, out.String(), "htmlString")
}

func TestServePipelineDoesNotWritePages(t *testing.T) {
	g, _ := testGlobal()
	root := &CLI{Config: filepath.Join(t.TempDir(), "pagehooks.yaml")}
	require.NoError(t, (&InitCmd{}).Run(g, root))

	settings, err := loadSettings(root)
	require.NoError(t, err)
	require.NotNil(t, settings.Build)

	recorder, _ := newRecorder(settings)
	p, err := newPipeline(context.Background(), g, settings, recorder)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.NewHandler(p, g.logger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h2>Welcome</h2>")

	_, err = os.Stat(filepath.Join(filepath.Dir(root.Config), "public", "index.html"))
	assert.True(t, os.IsNotExist(err), "dev requests must not write to public")
}
