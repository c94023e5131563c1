// Package builtin provides the hooks every pagehooks site runs: helper
// loading, the dev server middleware, shortcodes, default head and script
// fragments, HTML assembly, page output and reporting.
package builtin

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
	"git.home.luguber.info/inful/pagehooks/internal/report"
	"git.home.luguber.info/inful/pagehooks/internal/shortcode"
)

// HelperLoader produces the helpers merged in at bootstrap.
type HelperLoader interface {
	Load(ctx context.Context, settings *config.Settings) (hooks.Helpers, error)
}

// ShortcodeParser expands shortcodes in a rendered template.
type ShortcodeParser interface {
	Parse(ctx context.Context, templateHTML string) (string, shortcode.Fragments, error)
}

// FileWriter persists pages and reports.
type FileWriter interface {
	WriteFile(path, contents string) error
	WriteJSON(path string, data any) error
}

// Page is a rendered-on-demand page.
type Page interface {
	HTML(ctx context.Context) (string, error)
}

// Renderer turns a request into a page.
type Renderer interface {
	Render(ctx context.Context, req *hooks.Request) (Page, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, req *hooks.Request) (Page, error)

func (f RendererFunc) Render(ctx context.Context, req *hooks.Request) (Page, error) {
	return f(ctx, req)
}

// Deps are the collaborators the built-in hooks call. Nil collaborators make
// the hooks that need them no-ops.
type Deps struct {
	Helpers    HelperLoader
	Shortcodes ShortcodeParser
	Renderer   Renderer
	Writer     FileWriter
	Reports    report.Sink
	Logger     *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Catalogue returns the built-in hooks in registration order.
func Catalogue(d Deps) []hooks.Hook {
	return []hooks.Hook{
		{
			Name:        "addExternalHelpers",
			Description: "Loads external helpers and merges them over the current helpers.",
			Stage:       hooks.StageBootstrap,
			Priority:    1,
			Run:         addExternalHelpers(d.Helpers),
		},
		{
			Name:        "expressLikeMiddleware",
			Description: "Serves pages matching the server prefix from the lookup table.",
			Stage:       hooks.StageMiddleware,
			Priority:    1,
			Run:         expressLikeMiddleware(d.Renderer),
		},
		{
			Name:        "processShortcodes",
			Description: "Expands shortcodes in the template and collects their css, js and head fragments.",
			Stage:       hooks.StageShortcodes,
			Priority:    50,
			Run:         processShortcodes(d.Shortcodes),
		},
		{
			Name:        "addMetaCharsetToHead",
			Description: "Adds the UTF-8 charset meta tag to the head.",
			Stage:       hooks.StageStacks,
			Priority:    100,
			Run:         pushFragment("addMetaCharsetToHead", hooks.StackHead, metaCharset, 100),
		},
		{
			Name:        "addMetaViewportToHead",
			Description: "Adds the responsive viewport meta tag to the head.",
			Stage:       hooks.StageStacks,
			Priority:    90,
			Run:         pushFragment("addMetaViewportToHead", hooks.StackHead, metaViewport, 90),
		},
		{
			Name:        "addDefaultIntersectionObserver",
			Description: "Loads the IntersectionObserver polyfill on browsers without it.",
			Stage:       hooks.StageStacks,
			Priority:    100,
			Run:         pushFragment("addDefaultIntersectionObserver", hooks.StackBeforeHydrate, intersectionObserverPolyfill, 100),
		},
		{
			Name:        "addSystemJs",
			Description: "Adds the SystemJS loader before hydration and preloads it in the head.",
			Stage:       hooks.StageStacks,
			Priority:    99,
			Run:         addSystemJs,
		},
		{
			Name:        "compileHtml",
			Description: "Assembles the final HTML document from head, layout and footer.",
			Stage:       hooks.StageCompileHTML,
			Priority:    50,
			Run:         compileHTML,
		},
		{
			Name:        "consoleLogErrors",
			Description: "Logs the errors a request accumulated.",
			Stage:       hooks.StageError,
			Priority:    1,
			Run:         consoleLogErrors(d.logger()),
		},
		{
			Name:        "writeHtmlFileToPublic",
			Description: "Writes the page to <public>/<permalink>/index.html during builds.",
			Stage:       hooks.StageRequestComplete,
			Priority:    1,
			Run:         writeHTMLFileToPublic(d.Writer),
		},
		{
			Name:        "displayRequestTime",
			Description: "Reports request timings when debug.performance is set.",
			Stage:       hooks.StageRequestComplete,
			Priority:    50,
			Run:         displayRequestTime(d.Reports),
		},
		{
			Name:        "showParsedBuildTimes",
			Description: "Reports average timings across a build when debug.performance is set.",
			Stage:       hooks.StageBuildComplete,
			Priority:    50,
			Run:         showParsedBuildTimes(d.Reports),
		},
		{
			Name:        "writeBuildErrors",
			Description: "Persists the errors of a build as JSON.",
			Stage:       hooks.StageBuildComplete,
			Priority:    100,
			Run:         writeBuildErrors(d.Writer),
		},
	}
}

// Registry registers the catalogue without the hooks named in settings.hooks.disable.
func Registry(d Deps, settings *config.Settings, extra ...hooks.Hook) (*hooks.Registry, error) {
	reg, err := hooks.Register(append(Catalogue(d), extra...)...)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		reg = reg.Disable(settings.Hooks.Disable...)
	}
	return reg, nil
}
