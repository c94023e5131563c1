// Package report renders timing reports produced by the performance hooks.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Row is one line of a timing report.
type Row struct {
	Name     string
	Duration time.Duration
	Count    int // Samples aggregated into Duration; 0 or 1 for a single measurement
}

// Sink receives finished reports.
type Sink interface {
	Report(title string, rows []Row)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(title string, rows []Row)

func (f SinkFunc) Report(title string, rows []Row) { f(title, rows) }

// Multi fans a report out to several sinks.
type Multi []Sink

func (m Multi) Report(title string, rows []Row) {
	for _, s := range m {
		if s != nil {
			s.Report(title, rows)
		}
	}
}

// ConsoleSink writes a human readable table to Out and logs a summary line.
type ConsoleSink struct {
	Out    io.Writer
	Logger *slog.Logger

	mu sync.Mutex
}

func (s *ConsoleSink) Report(title string, rows []Row) {
	if s.Out != nil {
		s.mu.Lock()
		_, _ = io.WriteString(s.Out, Format(title, rows))
		s.mu.Unlock()
	}
	if s.Logger != nil {
		var total time.Duration
		for _, r := range rows {
			total += r.Duration
		}
		s.Logger.LogAttrs(context.Background(), slog.LevelInfo, title,
			slog.Int("rows", len(rows)),
			slog.Float64("total_ms", Millis(total)))
	}
}

var printer = message.NewPrinter(language.English)

// Format renders rows as an aligned table. Durations are milliseconds with
// two decimals and thousands separators.
func Format(title string, rows []Row) string {
	width := len("name")
	for _, r := range rows {
		width = max(width, len(r.Name))
	}
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "  %-*s %12s %8s\n", width, "name", "ms", "count")
	for _, r := range rows {
		count := r.Count
		if count == 0 {
			count = 1
		}
		fmt.Fprintf(&sb, "  %-*s %12s %8s\n", width, r.Name,
			printer.Sprintf("%.2f", Millis(r.Duration)),
			printer.Sprintf("%d", count))
	}
	return sb.String()
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
