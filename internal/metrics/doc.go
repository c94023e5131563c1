// Package metrics provides an observability layer for pagehooks hook, page
// and build metrics.
//
// # Design
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	engine := hooks.NewEngine(reg, hooks.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics are enabled the CLI swaps in a PrometheusRecorder and mounts
// HTTPHandler on the dev server:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
//
// ReportSink adapts a Recorder to the timing reports produced by the
// performance hooks, so request and build timings end up as histograms.
package metrics
