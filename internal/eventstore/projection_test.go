package eventstore

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func mustEvent[E Event](t *testing.T) func(E, error) E {
	t.Helper()
	return func(e E, err error) E {
		if err != nil {
			t.Fatalf("create event: %v", err)
		}
		return e
	}
}

func TestBuildHistoryProjection_ApplyEvents(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()
	projection := NewBuildHistoryProjection(store, 10)

	projection.Apply(mustEvent[*BuildStarted](t)(NewBuildStarted(testBuildID, 2, 1, false)))
	summary, ok := projection.GetBuild(testBuildID)
	if !ok {
		t.Fatal("expected build to exist")
	}
	if summary.Status != "running" || summary.Pages != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}

	projection.Apply(mustEvent[*PageRendered](t)(NewPageRendered(testBuildID, "Home", "/", time.Millisecond, 0)))
	projection.Apply(mustEvent[*PageRendered](t)(NewPageRendered(testBuildID, "About", "/about/", time.Millisecond, 1)))
	projection.Apply(mustEvent[*HookFailed](t)(NewHookFailed(testBuildID, "writeHtmlFileToPublic", "requestComplete", "/about/", "write", "disk full")))
	projection.Apply(mustEvent[*BuildCompleted](t)(NewBuildCompleted(testBuildID, "warning", 2, 1, 3*time.Second)))

	summary, _ = projection.GetBuild(testBuildID)
	if summary.Rendered != 2 || summary.Errors != 1 || summary.Status != "warning" {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.FailedHooks["requestComplete.writeHtmlFileToPublic"] != 1 {
		t.Errorf("expected failed hook count, got %v", summary.FailedHooks)
	}
	if summary.CompletedAt == nil || summary.Duration != 3*time.Second {
		t.Errorf("expected completion data, got %+v", summary)
	}
	if len(projection.GetHistory()) != 1 {
		t.Errorf("expected one completed build")
	}
}

func TestBuildHistoryProjection_RebuildAndTrim(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := range 3 {
		id := fmt.Sprintf("build-%d", i)
		started := mustEvent[*BuildStarted](t)(NewBuildStarted(id, 1, 1, false))
		started.EventTimestamp = base.Add(time.Duration(i) * time.Minute)
		done := mustEvent[*BuildCompleted](t)(NewBuildCompleted(id, "success", 1, 0, time.Second))
		done.EventTimestamp = started.EventTimestamp.Add(time.Second)
		for _, e := range []Event{started, done} {
			if err := store.Append(ctx, e); err != nil {
				t.Fatalf("append: %v", err)
			}
		}
	}

	projection := NewBuildHistoryProjection(store, 2)
	if err := projection.Rebuild(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	history := projection.GetHistory()
	if len(history) != 2 {
		t.Fatalf("expected 2 builds, got %d", len(history))
	}
	if history[0].BuildID != "build-2" || history[1].BuildID != "build-1" {
		t.Errorf("expected newest first, got %s, %s", history[0].BuildID, history[1].BuildID)
	}
	if _, ok := projection.GetBuild("build-0"); ok {
		t.Error("trimmed build should be dropped")
	}
}
