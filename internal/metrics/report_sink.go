package metrics

import "git.home.luguber.info/inful/pagehooks/internal/report"

// ReportSink forwards every report row to a Recorder as a named timing.
type ReportSink struct {
	Recorder Recorder
}

func (s ReportSink) Report(_ string, rows []report.Row) {
	if s.Recorder == nil {
		return
	}
	for _, r := range rows {
		s.Recorder.ObserveTiming(r.Name, r.Duration)
	}
}
