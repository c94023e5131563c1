// Package fsout writes rendered pages and reports to disk.
package fsout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/pagehooks/internal/retry"
)

// OSWriter writes files to the local filesystem, creating parent directories.
// Transient failures are retried according to Retry; the zero policy writes once.
type OSWriter struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
	Retry    retry.Policy
}

// New returns an OSWriter with the usual 0o755/0o644 permissions and the
// default retry policy.
func New() *OSWriter {
	return &OSWriter{DirPerm: 0o755, FilePerm: 0o644, Retry: retry.DefaultPolicy()}
}

// WriteFile writes contents to path, replacing any existing file.
func (w *OSWriter) WriteFile(path, contents string) error {
	return w.Retry.Do(context.Background(), transient, func() error {
		return w.writeOnce(path, contents)
	})
}

// transient reports whether a failed write is worth repeating.
func transient(err error) bool {
	return !errors.Is(err, fs.ErrPermission) && !errors.Is(err, syscall.ENOTDIR) && !errors.Is(err, fs.ErrExist)
}

func (w *OSWriter) writeOnce(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), w.dirPerm()); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	// Write to a sibling temp file first so readers never see a partial page.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(contents); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), w.filePerm()); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes data as indented JSON.
func (w *OSWriter) WriteJSON(path string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return w.WriteFile(path, string(b)+"\n")
}

func (w *OSWriter) dirPerm() os.FileMode {
	if w.DirPerm == 0 {
		return 0o755
	}
	return w.DirPerm
}

func (w *OSWriter) filePerm() os.FileMode {
	if w.FilePerm == 0 {
		return 0o644
	}
	return w.FilePerm
}
