package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const buildStatusRunning = "running"

// BuildSummary is a read model of one build.
type BuildSummary struct {
	BuildID     string         `json:"build_id"`
	Status      string         `json:"status"` // running, or the BuildCompleted outcome
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration  `json:"duration,omitempty"`
	Pages       int            `json:"pages"`
	Rendered    int            `json:"rendered"`
	Errors      int            `json:"errors"`
	FailedHooks map[string]int `json:"failed_hooks,omitempty"` // "stage.hook" -> count
}

// BuildHistoryProjection is an in-memory view of build history rebuilt from the store.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // completed builds, newest first
	maxSize int
}

// NewBuildHistoryProjection creates a projection keeping at most maxHistorySize completed builds.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every stored event.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	return nil
}

// Apply folds one event into the projection.
func (p *BuildHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *BuildHistoryProjection) applyLocked(e Event) {
	id := e.BuildID()
	if id == "" {
		return
	}
	s, ok := p.builds[id]
	if !ok {
		s = &BuildSummary{BuildID: id, Status: buildStatusRunning, StartedAt: e.Timestamp()}
		p.builds[id] = s
	}

	switch e.Type() {
	case TypeBuildStarted:
		var payload BuildStarted
		if err := json.Unmarshal(e.Payload(), &payload); err == nil {
			s.Pages = payload.Pages
		}
		s.StartedAt = e.Timestamp()

	case TypePageRendered:
		s.Rendered++

	case TypeHookFailed:
		var payload HookFailed
		if err := json.Unmarshal(e.Payload(), &payload); err == nil && payload.Hook != "" {
			if s.FailedHooks == nil {
				s.FailedHooks = make(map[string]int)
			}
			s.FailedHooks[payload.Stage+"."+payload.Hook]++
		}

	case TypeBuildCompleted:
		var payload BuildCompleted
		if err := json.Unmarshal(e.Payload(), &payload); err == nil {
			s.Status = payload.Outcome
			s.Errors = payload.Errors
			s.Duration = time.Duration(payload.DurationMS) * time.Millisecond
		}
		ts := e.Timestamp()
		s.CompletedAt = &ts
		p.addToHistoryLocked(s)
	}
}

func (p *BuildHistoryProjection) addToHistoryLocked(s *BuildSummary) {
	for _, h := range p.history {
		if h.BuildID == s.BuildID {
			return
		}
	}
	p.history = append([]*BuildSummary{s}, p.history...)
	if len(p.history) > p.maxSize {
		for _, dropped := range p.history[p.maxSize:] {
			delete(p.builds, dropped.BuildID)
		}
		p.history = p.history[:p.maxSize]
	}
}

// GetHistory returns copies of the completed builds, newest first.
func (p *BuildHistoryProjection) GetHistory() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]BuildSummary, len(p.history))
	for i, s := range p.history {
		out[i] = *s
	}
	return out
}

// GetBuild returns a copy of one build's summary.
func (p *BuildHistoryProjection) GetBuild(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *s, true
}
