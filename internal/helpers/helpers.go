// Package helpers loads the helpers exposed to templates and hooks.
package helpers

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagehooks/internal/config"
	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"git.home.luguber.info/inful/pagehooks/internal/hooks"
)

// PermalinkFunc resolves a route name to its permalink.
type PermalinkFunc func(route string) (string, error)

// FileLoader returns the built-in helpers plus string values read from the
// YAML file at settings.Locations.Helpers.
type FileLoader struct{}

// Load implements the helper loader used by the bootstrap hook.
func (FileLoader) Load(ctx context.Context, settings *config.Settings) (hooks.Helpers, error) {
	if settings == nil {
		return nil, ferrors.CollaboratorError("helpers need settings").Build()
	}
	out := hooks.Helpers{"permalink": Permalink(settings)}

	if settings.Locations.Helpers == "" {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := settings.Resolve(settings.Locations.Helpers)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCollaborator, "failed to read helpers file").
			WithContext("path", path).
			Build()
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCollaborator, "failed to parse helpers file").
			WithContext("path", path).
			Build()
	}
	for k, v := range values {
		if k == "permalink" {
			return nil, ferrors.CollaboratorError("helpers file redefines built-in helper").
				WithContext("path", path).
				WithContext("helper", k).
				Build()
		}
		out[k] = v
	}
	return out, nil
}

// Permalink returns a helper resolving route names against settings.
func Permalink(settings *config.Settings) PermalinkFunc {
	return func(route string) (string, error) {
		r, ok := settings.RouteByName(route)
		if !ok {
			return "", fmt.Errorf("unknown route %q", route)
		}
		return r.Permalink, nil
	}
}
