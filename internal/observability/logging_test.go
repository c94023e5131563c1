package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLogContextAccumulates(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")
	ctx = WithPage(ctx, "Home", "/")
	ctx = WithWorker(ctx, 2)

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" || lc.Route != "Home" || lc.Permalink != "/" || lc.Worker != 2 {
		t.Errorf("unexpected log context %+v", lc)
	}
}

func TestGetContextEmpty(t *testing.T) {
	if lc := GetContext(context.Background()); lc != (LogContext{}) {
		t.Errorf("expected empty context, got %+v", lc)
	}
}

func TestContextHandlerAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "test")

	ctx := WithPage(WithBuildID(context.Background(), "b1"), "About", "/about/")
	logger.InfoContext(ctx, "rendered")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	for key, want := range map[string]string{"build_id": "b1", "route": "About", "permalink": "/about/", "component": "test"} {
		if rec[key] != want {
			t.Errorf("expected %s=%s, got %v", key, want, rec[key])
		}
	}
	if _, ok := rec["worker"]; ok {
		t.Error("worker should be omitted when unset")
	}
}
