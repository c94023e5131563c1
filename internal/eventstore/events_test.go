package eventstore

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTypedEventPayloads(t *testing.T) {
	started, err := NewBuildStarted(testBuildID, 4, 2, true)
	if err != nil {
		t.Fatalf("build started: %v", err)
	}
	if started.Type() != TypeBuildStarted || started.BuildID() != testBuildID {
		t.Fatalf("unexpected base: %s %s", started.Type(), started.BuildID())
	}
	var payload map[string]any
	if err := json.Unmarshal(started.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["pages"] != float64(4) || payload["shuffle"] != true {
		t.Errorf("unexpected payload %v", payload)
	}
	if _, leaked := payload["EventBuildID"]; leaked {
		t.Error("base event fields must not leak into the payload")
	}

	page, err := NewPageRendered(testBuildID, "Home", "/", 1500*time.Millisecond, 1)
	if err != nil {
		t.Fatalf("page rendered: %v", err)
	}
	if page.DurationMS != 1500 {
		t.Errorf("expected 1500ms, got %d", page.DurationMS)
	}

	failed, err := NewHookFailed(testBuildID, "compileHtml", "compileHtml", "/", "hook", "boom")
	if err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if failed.Timestamp().IsZero() {
		t.Error("expected timestamp")
	}

	done, err := NewBuildCompleted(testBuildID, "success", 4, 0, time.Second)
	if err != nil {
		t.Fatalf("build completed: %v", err)
	}
	if done.Outcome != "success" || done.DurationMS != 1000 {
		t.Errorf("unexpected event %+v", done)
	}
}
