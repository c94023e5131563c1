package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/hooks/builtin"
)

// HooksCmd implements the 'hooks' command.
type HooksCmd struct {
	Format string `short:"f" help:"Output format: text, mermaid, json" default:"text" enum:"text,mermaid,json"`
	Output string `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
	Stages bool   `short:"s" help:"List the stages with their scope and mutable fields and exit"`
}

// Run executes the hooks command. Without a configuration file the full
// built-in catalogue is shown.
func (cmd *HooksCmd) Run(g *Global, root *CLI) error {
	if cmd.Stages {
		for _, st := range hooks.Stages() {
			_, _ = fmt.Fprintf(g.out(), "%-16s %-8s %s\n", st, st.Scope(), st.Description())
			for _, f := range st.MutableFields() {
				_, _ = fmt.Fprintf(g.out(), "  %s\n", f)
			}
		}
		return nil
	}

	settings := &config.Settings{}
	if _, err := os.Stat(root.Config); err == nil {
		if settings, err = loadSettings(root); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	reg, err := builtin.Registry(builtin.Deps{}, settings)
	if err != nil {
		return err
	}
	output, err := hooks.Visualize(reg, hooks.VisualizationFormat(cmd.Format))
	if err != nil {
		return err
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		g.logger().Info("Hook visualization written", slog.String("file", cmd.Output), slog.String("format", cmd.Format))
		return nil
	}
	_, err = fmt.Fprint(g.out(), output)
	return err
}
