package builtin

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

func compileHTML(_ context.Context, c *hooks.Context) (hooks.Result, error) {
	parts := make(map[hooks.Output]string, 3)
	for _, name := range []hooks.Output{hooks.OutputHeadString, hooks.OutputLayoutHTML, hooks.OutputFooterString} {
		v, err := c.Output(name)
		if err != nil {
			return hooks.NoOp(), fmt.Errorf("compile html: %s: %w", name, err)
		}
		parts[name] = v
	}
	var route string
	if c.Request != nil {
		route = c.Request.Route
	}

	var sb strings.Builder
	sb.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	sb.WriteString(parts[hooks.OutputHeadString])
	sb.WriteString(`</head><body class="`)
	sb.WriteString(route)
	sb.WriteString(`">`)
	sb.WriteString(parts[hooks.OutputLayoutHTML])
	sb.WriteString(parts[hooks.OutputFooterString])
	sb.WriteString(`</body></html>`)

	return hooks.Continue(hooks.Patch{Outputs: map[hooks.Output]string{hooks.OutputHTMLString: sb.String()}}), nil
}
