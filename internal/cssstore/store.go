// Package cssstore keeps component css for one build.
//
// A Store is created by the build (or dev server) that owns it and handed to
// every page host by reference. Nothing here is global.
package cssstore

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MapIntro starts an inline source map comment appended to compiled css.
const MapIntro = "/*# sourceMappingURL=data:application/json;charset=utf-8;base64,"

// Bundle is the css matched for a set of keys.
type Bundle struct {
	CSS     []string
	Maps    []string
	Matches []string
}

// String joins the css of the bundle.
func (b Bundle) String() string { return strings.Join(b.CSS, "") }

// Store maps keys to css source. Safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	css map[string]string
}

// New returns an empty store.
func New() *Store {
	return &Store{css: make(map[string]string)}
}

// Set stores code under key. The last write wins.
func (s *Store) Set(key, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.css[key] = code
}

// Get returns the css stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.css[key]
	return v, ok
}

// Keys returns the stored keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.css))
	for k := range s.css {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bundle collects the css of keys in the given order, splitting inline source
// maps from the css. Unknown keys are skipped and missing from Matches.
func (s *Store) Bundle(keys []string) Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b Bundle
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		code, ok := s.css[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		css, m := SplitSourceMap(code)
		b.CSS = append(b.CSS, css)
		b.Maps = append(b.Maps, m)
		b.Matches = append(b.Matches, k)
	}
	return b
}

// SplitSourceMap separates css from a trailing inline source map comment.
// The map keeps its comment prefix; it is empty when there is none.
func SplitSourceMap(code string) (css, sourceMap string) {
	i := strings.Index(code, MapIntro)
	if i < 0 {
		return code, ""
	}
	return code[:i], code[i:]
}

// LoadDir stores every *.css file below root under its slash separated path
// relative to root, without the extension. A missing root is not an error.
func (s *Store) LoadDir(root string) (int, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".css" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		s.Set(strings.TrimSuffix(filepath.ToSlash(rel), ".css"), string(data))
		n++
		return nil
	})
	return n, err
}
