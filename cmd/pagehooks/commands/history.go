package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/eventstore"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to show" default:"10"`
	Build string `arg:"" optional:"" help:"Show the details of one build"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	settings, err := loadSettings(root)
	if err != nil {
		return err
	}
	if settings.History.Path == "" {
		return ferrors.ConfigError("build history is disabled (set history.path)").UserAction().Build()
	}
	store, err := eventstore.NewSQLiteStore(settings.Resolve(settings.History.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewBuildHistoryProjection(store, max(h.Limit, 1))
	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}

	if h.Build != "" {
		b, ok := projection.GetBuild(h.Build)
		if !ok {
			return ferrors.NewError(ferrors.CategoryNotFound, "build not found").
				WithContext("build_id", h.Build).
				Build()
		}
		printBuild(g.out(), b)
		return nil
	}

	history := projection.GetHistory()
	if len(history) == 0 {
		_, _ = fmt.Fprintln(g.out(), "No builds recorded")
		return nil
	}
	for _, b := range history {
		_, _ = fmt.Fprintf(g.out(), "%s  %-9s  %s  %3d pages  %3d errors  %s\n",
			b.BuildID, b.Status, b.StartedAt.Format(time.DateTime), b.Pages, b.Errors, b.Duration)
	}
	return nil
}

func printBuild(out io.Writer, b eventstore.BuildSummary) {
	_, _ = fmt.Fprintf(out, "Build:    %s\n", b.BuildID)
	_, _ = fmt.Fprintf(out, "Status:   %s\n", b.Status)
	_, _ = fmt.Fprintf(out, "Started:  %s\n", b.StartedAt.Format(time.DateTime))
	if b.CompletedAt != nil {
		_, _ = fmt.Fprintf(out, "Finished: %s\n", b.CompletedAt.Format(time.DateTime))
	}
	_, _ = fmt.Fprintf(out, "Duration: %s\n", b.Duration)
	_, _ = fmt.Fprintf(out, "Pages:    %d rendered of %d\n", b.Rendered, b.Pages)
	_, _ = fmt.Fprintf(out, "Errors:   %d\n", b.Errors)
	for _, hook := range slices.Sorted(maps.Keys(b.FailedHooks)) {
		_, _ = fmt.Fprintf(out, "  %-40s %d\n", hook, b.FailedHooks[hook])
	}
}
