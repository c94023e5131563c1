package metrics

import (
	"testing"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/report"
)

type testRecorder struct {
	NoopRecorder
	hookResults map[string]map[ResultLabel]int
	timings     map[string]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{hookResults: map[string]map[ResultLabel]int{}, timings: map[string]int{}}
}

func (t *testRecorder) IncHookResult(stage, hook string, result ResultLabel) {
	key := stage + "." + hook
	m, ok := t.hookResults[key]
	if !ok {
		m = map[ResultLabel]int{}
		t.hookResults[key] = m
	}
	m[result]++
}

func (t *testRecorder) ObserveTiming(name string, _ time.Duration) { t.timings[name]++ }

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveHookDuration("stacks", "addSystemJs", time.Millisecond)
	r.IncBuildOutcome(BuildSuccess)
}

func TestReportSinkForwardsRows(t *testing.T) {
	rec := newTestRecorder()
	ReportSink{Recorder: rec}.Report("Request timings", []report.Row{
		{Name: "data", Duration: time.Millisecond},
		{Name: "compileHtml", Duration: 2 * time.Millisecond},
		{Name: "data", Duration: time.Millisecond},
	})
	if rec.timings["data"] != 2 || rec.timings["compileHtml"] != 1 {
		t.Fatalf("unexpected timings: %v", rec.timings)
	}

	// A sink without a recorder drops reports.
	ReportSink{}.Report("t", []report.Row{{Name: "x"}})
}

func TestTestRecorderCountsResults(t *testing.T) {
	rec := newTestRecorder()
	var r Recorder = rec
	r.IncHookResult("stacks", "addSystemJs", ResultContinue)
	r.IncHookResult("stacks", "addSystemJs", ResultContinue)
	if got := rec.hookResults["stacks.addSystemJs"][ResultContinue]; got != 2 {
		t.Fatalf("expected 2 continue results, got %d", got)
	}
}
