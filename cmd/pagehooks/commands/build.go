package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/build"
	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/eventstore"
	"git.home.luguber.info/inful/pagehooks/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Workers     int  `short:"w" help:"Render workers (overrides build.workers; defaults to the number of CPUs)"`
	Shuffle     bool `help:"Render routes in random order"`
	FailOnError bool `name:"fail-on-error" help:"Exit non-zero when any page recorded errors"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	settings, err := loadSettings(root)
	if err != nil {
		return err
	}
	b.apply(settings)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := RunBuild(ctx, g, settings)
	if res != nil {
		_, _ = fmt.Fprintf(g.out(), "Build %s: %d pages, %d errors in %s\n",
			res.Status, res.Pages, len(res.Errors), res.Duration.Round(time.Millisecond))
	}
	return err
}

// apply folds flag overrides into the build settings.
func (b *BuildCmd) apply(settings *config.Settings) {
	if b.Workers == 0 && !b.Shuffle && !b.FailOnError {
		return
	}
	if settings.Build == nil {
		settings.Build = &config.BuildSettings{}
	}
	if b.Workers > 0 {
		settings.Build.Workers = b.Workers
	}
	if b.Shuffle {
		settings.Build.Shuffle = true
	}
	if b.FailOnError {
		settings.Build.FailOnError = true
	}
}

// RunBuild renders every route of settings once.
func RunBuild(ctx context.Context, g *Global, settings *config.Settings) (*build.Result, error) {
	logger := g.logger()
	if settings.Build == nil {
		settings.Build = &config.BuildSettings{}
	}
	recorder, _ := newRecorder(settings)
	s, err := newSite(settings, recorder, logger, g.out())
	if err != nil {
		return nil, err
	}

	opts := []build.Option{
		build.WithCSS(s.css),
		build.WithRecorder(recorder),
		build.WithLogger(logger),
	}
	if path := settings.Resolve(settings.History.Path); path != "" {
		store, err := eventstore.NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close build history", logfields.Error(err))
			}
		}()
		opts = append(opts, build.WithHistory(store))
	}

	return build.NewBuilder(settings, s.engine, opts...).Run(ctx)
}
