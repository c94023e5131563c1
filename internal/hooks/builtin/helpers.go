package builtin

import (
	"context"
	"maps"

	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

func addExternalHelpers(loader HelperLoader) hooks.RunFunc {
	return func(ctx context.Context, c *hooks.Context) (hooks.Result, error) {
		if loader == nil {
			return hooks.NoOp(), nil
		}
		loaded, err := loader.Load(ctx, c.Settings)
		if err != nil {
			return hooks.NoOp(), err
		}
		if len(loaded) == 0 {
			return hooks.NoOp(), nil
		}
		merged := maps.Clone(c.Helpers)
		if merged == nil {
			merged = hooks.Helpers{}
		}
		maps.Copy(merged, loaded)
		return hooks.Continue(hooks.Patch{Helpers: merged}), nil
	}
}
