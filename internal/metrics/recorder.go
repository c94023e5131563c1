package metrics

import "time"

// ResultLabel enumerates hook result categories for counters.
type ResultLabel string

const (
	ResultNoOp     ResultLabel = "noop"
	ResultContinue ResultLabel = "continue"
	ResultStop     ResultLabel = "stop"
	ResultError    ResultLabel = "error"
	ResultRejected ResultLabel = "rejected" // Patch touched a field the stage does not allow
)

// BuildOutcomeLabel is the final status of a batch build.
type BuildOutcomeLabel string

const (
	BuildSuccess  BuildOutcomeLabel = "success"
	BuildWarning  BuildOutcomeLabel = "warning" // Finished with accumulated page errors
	BuildFailed   BuildOutcomeLabel = "failed"
	BuildCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for hook, page and build metrics.
// Implementations may forward to Prometheus or any other backend.
type Recorder interface {
	ObserveHookDuration(stage, hook string, d time.Duration)
	IncHookResult(stage, hook string, result ResultLabel)
	ObserveRequestDuration(route string, d time.Duration)
	IncPageRendered(success bool)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObserveTiming(name string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveHookDuration(string, string, time.Duration) {}
func (NoopRecorder) IncHookResult(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveRequestDuration(string, time.Duration)      {}
func (NoopRecorder) IncPageRendered(bool)                              {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                 {}
func (NoopRecorder) ObserveTiming(string, time.Duration)               {}
