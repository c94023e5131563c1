package builtin

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

func expressLikeMiddleware(renderer Renderer) hooks.RunFunc {
	return func(ctx context.Context, c *hooks.Context) (hooks.Result, error) {
		next := func() hooks.Result {
			if c.Next == nil {
				return hooks.Stop(nil)
			}
			return hooks.Stop(c.Next())
		}
		if c.Req == nil || renderer == nil {
			return next(), nil
		}

		var prefix string
		if c.Settings != nil {
			prefix = c.Settings.Server.Prefix
		}
		path := c.Req.Path
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return next(), nil
		}
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}

		req, ok := c.ServerLookup[path]
		if !ok || req == nil {
			return next(), nil
		}
		if _, known := c.Routes[req.Route]; !known {
			return next(), nil
		}
		if c.Res == nil || c.Res.HeaderSent() {
			return hooks.NoOp(), nil
		}

		page, err := renderer.Render(ctx, &hooks.Request{Route: req.Route, Permalink: req.Permalink, Type: hooks.RequestServer})
		if err != nil {
			return hooks.NoOp(), err
		}
		html, err := page.HTML(ctx)
		if err != nil {
			return hooks.NoOp(), err
		}
		c.Res.SetHeader("Content-Type", "text/html")
		c.Res.End(html)
		return hooks.Stop(nil), nil
	}
}
