package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagehooks/cmd/pagehooks/commands"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{}
	ctx := kong.Parse(&cli,
		kong.Name("pagehooks"),
		kong.Description("Render static pages through a staged hook pipeline."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(global, &cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
