package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/metrics"
	"git.home.luguber.info/inful/pagehooks/internal/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr  string `help:"Listen address (overrides server.addr)"`
	Watch bool   `short:"w" help:"Reload settings when the configuration file changes"`
}

func (c *ServeCmd) Run(g *Global, root *CLI) error {
	settings, err := loadSettings(root)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	recorder, registry := newRecorder(settings)
	pipeline, err := newPipeline(ctx, g, settings, recorder)
	if err != nil {
		return err
	}

	logger := g.logger()
	handler := server.NewHandler(pipeline, logger)
	var opts []server.Option
	if registry != nil {
		opts = append(opts, server.WithMetrics(metrics.HTTPHandler(registry)))
	}
	srv := server.New(handler, logger, opts...)

	addr := c.Addr
	if addr == "" {
		addr = settings.Server.Addr
	}
	if err := srv.Start(ctx, addr); err != nil {
		return err
	}

	if c.Watch {
		watcher, err := server.NewConfigWatcher(root.Config, func(ctx context.Context, next *config.Settings) error {
			p, err := newPipeline(ctx, g, next, recorder)
			if err != nil {
				return err
			}
			handler.Swap(p)
			return nil
		}, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping dev server")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	return srv.Stop(stopCtx)
}

// newPipeline wires a site for settings and runs its bootstrap stage.
func newPipeline(ctx context.Context, g *Global, settings *config.Settings, recorder metrics.Recorder) (*server.Pipeline, error) {
	s, err := newSite(settings, recorder, g.logger(), g.out())
	if err != nil {
		return nil, err
	}
	helpers, err := s.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Pipeline{Settings: settings, Engine: s.engine, Helpers: helpers}, nil
}
