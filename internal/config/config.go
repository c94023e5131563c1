package config

import (
	"path/filepath"
)

// Settings is the site configuration shared by every hook through the stage context.
type Settings struct {
	// RootDir anchors every relative location. Defaults to the directory of the
	// configuration file.
	RootDir    string          `yaml:"root_dir,omitempty"`
	Worker     bool            `yaml:"worker,omitempty"` // Running as a build worker; suppresses console error output
	Build      *BuildSettings  `yaml:"build,omitempty"`  // nil disables writing pages to disk
	Locations  Locations       `yaml:"locations"`
	Server     ServerSettings  `yaml:"server"`
	Debug      DebugSettings   `yaml:"debug"`
	Hooks      HookSettings    `yaml:"hooks"`
	Routes     []Route         `yaml:"routes,omitempty"`
	Shortcodes []Shortcode     `yaml:"shortcodes,omitempty"`
	Metrics    MetricsSettings `yaml:"metrics"`
	History    HistorySettings `yaml:"history"`
}

// BuildSettings controls batch builds.
type BuildSettings struct {
	Workers     int  `yaml:"workers,omitempty"`
	Shuffle     bool `yaml:"shuffle,omitempty"`
	FailOnError bool `yaml:"fail_on_error,omitempty"`
}

// Locations are directories relative to RootDir.
type Locations struct {
	Public  string `yaml:"public,omitempty"`
	Source  string `yaml:"source,omitempty"`
	Helpers string `yaml:"helpers,omitempty"` // Optional YAML file with string helpers
	CSS     string `yaml:"css,omitempty"`     // Optional directory with component css
}

// ServerSettings configures the dev server and the middleware hook.
type ServerSettings struct {
	Prefix string `yaml:"prefix,omitempty"`
	Addr   string `yaml:"addr,omitempty"`
}

// DebugSettings toggles diagnostic output.
type DebugSettings struct {
	Hooks       bool `yaml:"hooks,omitempty"`
	Performance bool `yaml:"performance,omitempty"`
	Stacks      bool `yaml:"stacks,omitempty"`
}

// HookSettings lists hook names that must not be registered.
type HookSettings struct {
	Disable []string `yaml:"disable,omitempty"`
}

// Route declares one page. Exactly one of Template (markdown file under
// Locations.Source) or Content (inline markdown) is set.
type Route struct {
	Name      string         `yaml:"name"`
	Permalink string         `yaml:"permalink"`
	Template  string         `yaml:"template,omitempty"`
	Content   string         `yaml:"content,omitempty"`
	Data      map[string]any `yaml:"data,omitempty"`
	CSS       []string       `yaml:"css,omitempty"` // Keys into the build css store
}

// Shortcode declares a shortcode usable in templates as {{name attr="v"}}inner{{/name}}.
// Template is a text/template receiving .Attrs and .Content.
type Shortcode struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	CSS      string `yaml:"css,omitempty"`
	JS       string `yaml:"js,omitempty"`
	Head     string `yaml:"head,omitempty"`
}

// MetricsSettings enables the Prometheus endpoint on the dev server.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// HistorySettings points at the SQLite build history database. Empty disables it.
type HistorySettings struct {
	Path string `yaml:"path,omitempty"`
}

// Resolve joins p onto RootDir unless p is absolute.
func (s *Settings) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.RootDir, p)
}

// PublicDir returns the resolved public directory, or "" when unset.
func (s *Settings) PublicDir() string {
	if s == nil || s.Locations.Public == "" {
		return ""
	}
	return s.Resolve(s.Locations.Public)
}

// RouteByName returns the route with the given name.
func (s *Settings) RouteByName(name string) (Route, bool) {
	for _, r := range s.Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}
