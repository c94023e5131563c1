package server

import (
	"net/http"
	"sync"
)

// responseAdapter exposes an http.ResponseWriter through hooks.Response.
// Only the first End writes; later calls are ignored.
type responseAdapter struct {
	w    http.ResponseWriter
	mu   sync.Mutex
	sent bool
}

func newResponseAdapter(w http.ResponseWriter) *responseAdapter {
	return &responseAdapter{w: w}
}

func (r *responseAdapter) HeaderSent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

func (r *responseAdapter) SetHeader(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.w.Header().Set(name, value)
}

func (r *responseAdapter) End(body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.sent = true
	r.w.WriteHeader(http.StatusOK)
	_, _ = r.w.Write([]byte(body))
}

// Header, Write and WriteHeader let the static fallback write through the
// adapter so HeaderSent stays accurate.
func (r *responseAdapter) Header() http.Header { return r.w.Header() }

func (r *responseAdapter) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.sent = true
	r.w.WriteHeader(code)
}

func (r *responseAdapter) Write(b []byte) (int, error) {
	r.mu.Lock()
	r.sent = true
	r.mu.Unlock()
	return r.w.Write(b)
}
