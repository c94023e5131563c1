package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
	"git.home.luguber.info/inful/pagehooks/internal/metrics"
)

// Outcome is what Run hands back to the host.
type Outcome struct {
	Context   *Context
	Stopped   bool
	StoppedBy string
	Value     any
}

// Engine runs the hooks of one stage against a context.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
	recorder metrics.Recorder
	timings  bool
	debug    bool
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithTimings records every hook duration into the context timings.
func WithTimings(on bool) Option {
	return func(e *Engine) { e.timings = on }
}

// WithDebug logs one line per hook run.
func WithDebug(on bool) Option {
	return func(e *Engine) { e.debug = on }
}

// NewEngine creates an engine over reg.
func NewEngine(reg *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine runs.
func (e *Engine) Registry() *Registry { return e.registry }

// Run executes stage's hooks sequentially against c.
//
// Hook failures never surface here: they are appended to c's errors and the
// next hook runs. The returned error is reserved for caller mistakes: a nil
// context, an unknown stage, a scope mismatch or a cancelled ctx.
func (e *Engine) Run(ctx context.Context, stage Stage, c *Context) (Outcome, error) {
	if c == nil {
		return Outcome{}, ferrors.InternalError("nil hook context").WithContext("stage", string(stage)).Build()
	}
	if !stage.Valid() {
		return Outcome{Context: c}, ferrors.ValidationError(fmt.Sprintf("unknown stage %q", stage)).Build()
	}
	if stage.Scope() != c.Scope() {
		return Outcome{Context: c}, ferrors.ValidationError("stage scope mismatch").
			WithContext("stage", string(stage)).
			WithContext("stage_scope", stage.Scope().String()).
			WithContext("context_scope", c.Scope().String()).
			Build()
	}

	for _, h := range e.registry.ForStage(stage) {
		if err := ctx.Err(); err != nil {
			return Outcome{Context: c}, ferrors.WrapError(err, ferrors.CategoryRuntime, "stage cancelled").
				WithContext("stage", string(stage)).
				WithContext("hook", h.Name).
				Build()
		}

		start := e.now()
		res, err := invoke(ctx, h, c)
		elapsed := e.now().Sub(start)

		e.recorder.ObserveHookDuration(string(stage), h.Name, elapsed)
		if e.timings {
			c.timings = append(c.timings, Timing{Name: h.ID(), Duration: elapsed})
		}

		label := e.settle(stage, h, c, res, err)
		e.recorder.IncHookResult(string(stage), h.Name, label)
		if e.debug {
			e.logger.DebugContext(ctx, "Hook finished",
				logfields.Stage(string(stage)),
				logfields.Hook(h.Name),
				logfields.Priority(h.Priority),
				slog.String("result", string(label)),
				logfields.Duration(elapsed))
		}

		if label == metrics.ResultStop {
			return Outcome{Context: c, Stopped: true, StoppedBy: h.Name, Value: res.Value()}, nil
		}
	}
	return Outcome{Context: c}, nil
}

// settle merges a hook's result into c and reports how it ended.
func (e *Engine) settle(stage Stage, h Hook, c *Context, res Result, err error) metrics.ResultLabel {
	if err != nil {
		c.errs = append(c.errs, hookError(stage, h, err))
		return metrics.ResultError
	}
	switch res.Action() {
	case ActionStop:
		return metrics.ResultStop
	case ActionContinue:
		p := res.Patch()
		var denied []string
		for _, f := range p.Fields() {
			if !stage.Mutable(f) {
				denied = append(denied, string(f))
			}
		}
		if len(denied) > 0 {
			c.errs = append(c.errs, ferrors.HookError("patch touches fields not mutable in stage").
				WithContext("hook", h.Name).
				WithContext("stage", string(stage)).
				WithContext("fields", denied).
				Build())
			return metrics.ResultRejected
		}
		c.Apply(p)
		return metrics.ResultContinue
	default:
		return metrics.ResultNoOp
	}
}

func invoke(ctx context.Context, h Hook, c *Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(ctx, c)
}

// hookError classifies err, keeping an existing classification and adding
// the hook and stage to its context.
func hookError(stage Stage, h Hook, err error) error {
	if ce, ok := err.(*ferrors.ClassifiedError); ok {
		return ce.WithContext("hook", h.Name).WithContext("stage", string(stage))
	}
	return ferrors.WrapError(err, ferrors.CategoryHook, "hook failed").
		WithContext("hook", h.Name).
		WithContext("stage", string(stage)).
		Build()
}
