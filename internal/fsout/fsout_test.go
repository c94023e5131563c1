package fsout

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagehooks/internal/retry"
)

func TestWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "public", "foo", "index.html")

	w := New()
	require.NoError(t, w.WriteFile(path, "<html>one</html>"))
	require.NoError(t, w.WriteFile(path, "<html>two</html>"))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>two</html>", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestWriteFileFailsWhenParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "public")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := (&OSWriter{}).WriteFile(filepath.Join(blocker, "index.html"), "x")
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.json")
	require.NoError(t, New().WriteJSON(path, map[string]any{"errors": []string{"a"}}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors":["a"]}`, string(got))
}

func TestWriteFileReturnsPermanentFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "public")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	w := &OSWriter{Retry: retry.NewPolicy(retry.BackoffFixed, time.Hour, time.Hour, 1)}
	err := w.WriteFile(filepath.Join(blocker, "index.html"), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.ENOTDIR)
}
