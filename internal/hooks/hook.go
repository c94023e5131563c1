package hooks

import "context"

// Priority bounds. Lower priorities run first.
const (
	MinPriority = 1
	MaxPriority = 100
)

// RunFunc is the body of a hook. It must not retain c after returning.
type RunFunc func(ctx context.Context, c *Context) (Result, error)

// Hook is a named unit of work attached to one stage.
type Hook struct {
	Name        string
	Description string
	Stage       Stage
	Priority    int
	Run         RunFunc
}

// ID is the "stage.name" form used for timings and metrics.
func (h Hook) ID() string { return string(h.Stage) + "." + h.Name }
