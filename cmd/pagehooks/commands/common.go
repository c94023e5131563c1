package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/observability"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	// Stdout receives command output meant for the user. Defaults to os.Stdout.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pagehooks.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render every route into the public directory"`
	Serve   ServeCmd   `cmd:"" help:"Run the dev server"`
	Hooks   HooksCmd   `cmd:"" help:"Show the registered hooks by stage (text, mermaid, json)"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the build history"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, level)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(observability.NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadSettings reads the config file named by the global flag.
func loadSettings(root *CLI) (*config.Settings, error) {
	return config.Load(root.Config)
}
