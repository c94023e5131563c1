package config

import (
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
)

// Validate checks the settings and reports every problem at once.
func Validate(s *Settings) error {
	v := &settingsValidator{settings: s}
	v.validateServer()
	v.validateRoutes()
	v.validateShortcodes()
	if len(v.problems) == 0 {
		return nil
	}
	return ferrors.WrapError(errors.Join(v.problems...), ferrors.CategoryConfig, "invalid configuration").
		Fatal().
		WithContext("problems", len(v.problems)).
		Build()
}

type settingsValidator struct {
	settings *Settings
	problems []error
}

func (v *settingsValidator) addf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *settingsValidator) validateServer() {
	if p := v.settings.Server.Prefix; p != "" && !strings.HasPrefix(p, "/") {
		v.addf("server.prefix %q must start with /", p)
	}
}

func (v *settingsValidator) validateRoutes() {
	names := make(map[string]struct{}, len(v.settings.Routes))
	permalinks := make(map[string]string, len(v.settings.Routes))
	for i, r := range v.settings.Routes {
		if r.Name == "" {
			v.addf("routes[%d]: name is required", i)
			continue
		}
		if _, dup := names[r.Name]; dup {
			v.addf("routes[%d]: duplicate route name %q", i, r.Name)
		}
		names[r.Name] = struct{}{}

		if !strings.HasPrefix(r.Permalink, "/") {
			v.addf("route %q: permalink %q must start with /", r.Name, r.Permalink)
		} else if other, dup := permalinks[r.Permalink]; dup {
			v.addf("route %q: permalink %q already used by %q", r.Name, r.Permalink, other)
		} else {
			permalinks[r.Permalink] = r.Name
		}

		if (r.Template == "") == (r.Content == "") {
			v.addf("route %q: exactly one of template or content must be set", r.Name)
		}
	}
}

func (v *settingsValidator) validateShortcodes() {
	seen := make(map[string]struct{}, len(v.settings.Shortcodes))
	for i, sc := range v.settings.Shortcodes {
		if sc.Name == "" {
			v.addf("shortcodes[%d]: name is required", i)
			continue
		}
		if strings.ContainsAny(sc.Name, " /{}") {
			v.addf("shortcode %q: name must not contain spaces, slashes or braces", sc.Name)
		}
		if _, dup := seen[sc.Name]; dup {
			v.addf("shortcodes[%d]: duplicate shortcode %q", i, sc.Name)
		}
		seen[sc.Name] = struct{}{}
	}
}
