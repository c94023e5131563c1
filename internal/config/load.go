package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/pagehooks/internal/foundation/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envFiles are loaded in order; the first file that exists wins for each key and
// existing process variables are never overwritten.
var envFiles = []string{".env", ".env.local"}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Settings, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	s, err := Parse(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	if err != nil {
		return nil, err
	}
	if s.RootDir == "" {
		abs, absErr := filepath.Abs(filepath.Dir(path))
		if absErr != nil {
			return nil, ferrors.WrapError(absErr, ferrors.CategoryConfig, "failed to resolve root dir").Build()
		}
		s.RootDir = abs
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Parse decodes YAML settings and applies defaults. Unknown keys are rejected.
func Parse(r io.Reader) (*Settings, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Settings
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}
	ApplyDefaults(&s)
	return &s, nil
}

func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path)).Build()
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}

const exampleConfig = `# pagehooks configuration
build:
  workers: 4
locations:
  public: public
  source: src
server:
  prefix: ""
  addr: ":3000"
debug:
  performance: false
hooks:
  disable: []
routes:
  - name: Home
    permalink: /
    content: |
      # Hello

      {{box title="Welcome"}}Generated by pagehooks.{{/box}}
shortcodes:
  - name: box
    template: '<div class="box"><h2>{{.Attrs.title}}</h2>{{.Content}}</div>'
    css: '.box{border:1px solid #ddd;padding:1rem;}'
`
