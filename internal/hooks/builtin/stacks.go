package builtin

import (
	"context"

	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

const (
	metaCharset  = `<meta charset="UTF-8" />`
	metaViewport = `<meta name="viewport" content="width=device-width, initial-scale=1" />`

	intersectionObserverPolyfill = `<script type="text/javascript">
if (!('IntersectionObserver' in window)) {
    var script = document.createElement("script");
    script.src = "/static/intersection-observer.js";
    document.getElementsByTagName('head')[0].appendChild(script);
};
</script>`

	systemJsPath    = "/static/s.min.js"
	systemJsScript  = `<script data-name="systemjs" src="` + systemJsPath + `"></script>`
	systemJsPreload = `<link rel="preload" href="` + systemJsPath + `" as="script" />`
)

// pushFragment returns a hook appending one fragment to stack on every run.
func pushFragment(source string, stack hooks.Stack, markup string, priority int) hooks.RunFunc {
	return func(context.Context, *hooks.Context) (hooks.Result, error) {
		return hooks.Continue(hooks.PushOne(stack, hooks.Fragment{Source: source, String: markup, Priority: priority})), nil
	}
}

func addSystemJs(context.Context, *hooks.Context) (hooks.Result, error) {
	return hooks.Continue(hooks.Patch{Push: map[hooks.Stack][]hooks.Fragment{
		hooks.StackBeforeHydrate: {{Source: "addSystemJs", String: systemJsScript, Priority: 99}},
		hooks.StackHead:          {{Source: "addSystemJs", String: systemJsPreload, Priority: 99}},
	}}), nil
}
