package hooks

import (
	"errors"
	"fmt"
	"slices"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
)

// Registry is an immutable catalogue of hooks indexed by stage.
type Registry struct {
	hooks   []Hook
	byStage map[Stage][]Hook
}

// Register validates hooks and builds a registry. Registration is all or
// nothing: every problem found is reported in one validation error.
func Register(hooks ...Hook) (*Registry, error) {
	var problems []error
	seen := make(map[Stage]map[string]struct{})

	for i, h := range hooks {
		label := h.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			problems = append(problems, fmt.Errorf("hook %s: name is required", label))
		}
		if !h.Stage.Valid() {
			problems = append(problems, fmt.Errorf("hook %s: unknown stage %q", label, h.Stage))
		}
		if h.Priority < MinPriority || h.Priority > MaxPriority {
			problems = append(problems, fmt.Errorf("hook %s: priority %d outside [%d,%d]", label, h.Priority, MinPriority, MaxPriority))
		}
		if h.Run == nil {
			problems = append(problems, fmt.Errorf("hook %s: run function is nil", label))
		}
		if h.Name == "" {
			continue
		}
		names := seen[h.Stage]
		if names == nil {
			names = make(map[string]struct{})
			seen[h.Stage] = names
		}
		if _, dup := names[h.Name]; dup {
			problems = append(problems, fmt.Errorf("hook %s: duplicate name in stage %s", h.Name, h.Stage))
		}
		names[h.Name] = struct{}{}
	}

	if len(problems) > 0 {
		return nil, ferrors.WrapError(errors.Join(problems...), ferrors.CategoryValidation, "invalid hook registration").
			Fatal().
			UserAction().
			WithContext("problems", len(problems)).
			Build()
	}
	return newRegistry(slices.Clone(hooks)), nil
}

func newRegistry(hooks []Hook) *Registry {
	r := &Registry{hooks: hooks, byStage: make(map[Stage][]Hook)}
	for _, h := range hooks {
		r.byStage[h.Stage] = append(r.byStage[h.Stage], h)
	}
	for stage, list := range r.byStage {
		slices.SortStableFunc(list, func(a, b Hook) int { return a.Priority - b.Priority })
		r.byStage[stage] = list
	}
	return r
}

// ForStage returns the hooks of stage in run order: ascending priority, ties
// in registration order.
func (r *Registry) ForStage(stage Stage) []Hook {
	return slices.Clone(r.byStage[stage])
}

// Hooks returns the whole catalogue in registration order.
func (r *Registry) Hooks() []Hook {
	return slices.Clone(r.hooks)
}

// Len is the number of registered hooks.
func (r *Registry) Len() int { return len(r.hooks) }

// Disable returns a registry without the named hooks. Unknown names are ignored.
func (r *Registry) Disable(names ...string) *Registry {
	if len(names) == 0 {
		return r
	}
	kept := slices.DeleteFunc(slices.Clone(r.hooks), func(h Hook) bool {
		return slices.Contains(names, h.Name)
	})
	return newRegistry(kept)
}
