package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypePageRendered   = "PageRendered"
	TypeHookFailed     = "HookFailed"
	TypeBuildCompleted = "BuildCompleted"
)

// BuildStarted is emitted when a batch build begins.
type BuildStarted struct {
	BaseEvent
	Pages   int  `json:"pages"`
	Workers int  `json:"workers"`
	Shuffle bool `json:"shuffle"`
}

// PageRendered is emitted once per page of a build.
type PageRendered struct {
	BaseEvent
	Route      string `json:"route"`
	Permalink  string `json:"permalink"`
	DurationMS int64  `json:"duration_ms"`
	Errors     int    `json:"errors"`
}

// HookFailed is emitted for every error a page or build accumulated.
type HookFailed struct {
	BaseEvent
	Hook      string `json:"hook,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

// BuildCompleted is emitted after buildComplete ran.
type BuildCompleted struct {
	BaseEvent
	Outcome    string `json:"outcome"`
	Pages      int    `json:"pages"`
	Errors     int    `json:"errors"`
	DurationMS int64  `json:"duration_ms"`
}

func newBase(buildID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, pages, workers int, shuffle bool) (*BuildStarted, error) {
	e := &BuildStarted{Pages: pages, Workers: workers, Shuffle: shuffle}
	base, err := newBase(buildID, TypeBuildStarted, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// NewPageRendered creates a PageRendered event.
func NewPageRendered(buildID, route, permalink string, d time.Duration, errCount int) (*PageRendered, error) {
	e := &PageRendered{Route: route, Permalink: permalink, DurationMS: d.Milliseconds(), Errors: errCount}
	base, err := newBase(buildID, TypePageRendered, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// NewHookFailed creates a HookFailed event from an accumulated error.
func NewHookFailed(buildID string, hook, stage, permalink, category, message string) (*HookFailed, error) {
	e := &HookFailed{Hook: hook, Stage: stage, Permalink: permalink, Category: category, Message: message}
	base, err := newBase(buildID, TypeHookFailed, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID, outcome string, pages, errCount int, d time.Duration) (*BuildCompleted, error) {
	e := &BuildCompleted{Outcome: outcome, Pages: pages, Errors: errCount, DurationMS: d.Milliseconds()}
	base, err := newBase(buildID, TypeBuildCompleted, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}
