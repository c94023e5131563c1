package builtin

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/report"
)

func performanceEnabled(c *hooks.Context) bool {
	return c.Settings != nil && c.Settings.Debug.Performance
}

func displayRequestTime(sink report.Sink) hooks.RunFunc {
	return func(_ context.Context, c *hooks.Context) (hooks.Result, error) {
		if sink == nil || !performanceEnabled(c) {
			return hooks.NoOp(), nil
		}
		timings := c.Timings()
		rows := make([]report.Row, 0, len(timings))
		for _, t := range timings {
			rows = append(rows, report.Row{Name: t.Name, Duration: t.Duration, Count: 1})
		}
		var permalink string
		if c.Request != nil {
			permalink = c.Request.Permalink
		}
		sink.Report(fmt.Sprintf("Request timings %s", permalink), rows)
		return hooks.NoOp(), nil
	}
}

// AverageTimings averages timings by name across pages, in order of first appearance.
func AverageTimings(pages [][]hooks.Timing) []report.Row {
	index := make(map[string]int)
	var rows []report.Row
	var totals []time.Duration
	for _, page := range pages {
		for _, t := range page {
			i, ok := index[t.Name]
			if !ok {
				i = len(rows)
				index[t.Name] = i
				rows = append(rows, report.Row{Name: t.Name})
				totals = append(totals, 0)
			}
			rows[i].Count++
			totals[i] += t.Duration
		}
	}
	for i := range rows {
		rows[i].Duration = totals[i] / time.Duration(rows[i].Count)
	}
	return rows
}

func showParsedBuildTimes(sink report.Sink) hooks.RunFunc {
	return func(_ context.Context, c *hooks.Context) (hooks.Result, error) {
		if sink == nil || !performanceEnabled(c) {
			return hooks.NoOp(), nil
		}
		pages := c.BuildTimings()
		sink.Report(fmt.Sprintf("Build timings (average of %d pages)", len(pages)), AverageTimings(pages))
		return hooks.NoOp(), nil
	}
}
