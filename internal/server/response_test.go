package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseAdapterEndsOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	res := newResponseAdapter(rec)

	assert.False(t, res.HeaderSent())
	res.SetHeader("Content-Type", "text/html")
	res.End("<p>first</p>")
	assert.True(t, res.HeaderSent())

	res.SetHeader("X-Late", "1")
	res.End("<p>second</p>")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>first</p>", rec.Body.String())
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("X-Late"))
}

func TestResponseAdapterTracksDirectWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	res := newResponseAdapter(rec)

	http.NotFound(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, res.HeaderSent())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
