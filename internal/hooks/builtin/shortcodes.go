package builtin

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

func processShortcodes(parser ShortcodeParser) hooks.RunFunc {
	return func(ctx context.Context, c *hooks.Context) (hooks.Result, error) {
		if parser == nil {
			return hooks.NoOp(), nil
		}
		tmpl, err := c.Output(hooks.OutputTemplateHTML)
		if err != nil {
			return hooks.NoOp(), fmt.Errorf("read template html: %w", err)
		}
		out, frags, err := parser.Parse(ctx, tmpl)
		if err != nil {
			return hooks.NoOp(), err
		}
		p := hooks.Patch{
			Outputs: map[hooks.Output]string{hooks.OutputTemplateHTML: out},
			Push:    map[hooks.Stack][]hooks.Fragment{},
		}
		if len(frags.CSS) > 0 {
			p.Push[hooks.StackCSS] = frags.CSS
		}
		if len(frags.JS) > 0 {
			p.Push[hooks.StackCustomJS] = frags.JS
		}
		if len(frags.Head) > 0 {
			p.Push[hooks.StackHead] = frags.Head
		}
		return hooks.Continue(p), nil
	}
}
