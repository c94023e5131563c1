package builtin

import (
	"context"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

// PagePath returns the file a permalink is written to below public.
func PagePath(public, permalink string) string {
	return filepath.Join(public, filepath.Clean("/"+filepath.FromSlash(permalink)), "index.html")
}

func writeHTMLFileToPublic(w FileWriter) hooks.RunFunc {
	return func(_ context.Context, c *hooks.Context) (hooks.Result, error) {
		if w == nil || c.Settings == nil || c.Settings.Build == nil || c.Request == nil || c.Request.Type != hooks.RequestBuild {
			return hooks.NoOp(), nil
		}
		public := c.Settings.PublicDir()
		if public == "" {
			return hooks.NoOp(), nil
		}
		path := PagePath(public, c.Request.Permalink)

		html, err := c.Output(hooks.OutputHTMLString)
		if err == nil {
			err = w.WriteFile(path, html)
		}
		if err != nil {
			return hooks.Continue(hooks.Patch{Errors: []error{
				ferrors.WrapError(err, ferrors.CategoryWrite, "failed to write page").
					Retryable().
					WithContext("path", path).
					WithContext("permalink", c.Request.Permalink).
					Build(),
			}}), nil
		}
		return hooks.NoOp(), nil
	}
}
