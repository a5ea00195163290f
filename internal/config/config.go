// Package config loads polyexpr settings from a YAML file.
//
// Loading applies defaults, overlays the file strictly (unknown keys are
// errors) and then checks the result against an embedded CUE schema, so
// bad values are reported with their field path.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/polyexpr/internal/literal"
)

//go:embed schema.cue
var schemaCUE string

// Config holds every setting.
type Config struct {
	// MaxDepth bounds reducer and validator recursion.
	MaxDepth int `yaml:"max_depth" json:"max_depth"`

	// DefaultCharset and DefaultCollation apply to string literals written
	// without an explicit charset or COLLATE clause. Empty means none.
	DefaultCharset   string `yaml:"default_charset" json:"default_charset"`
	DefaultCollation string `yaml:"default_collation" json:"default_collation"`

	// CaseSensitive makes function and column lookups match names exactly.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// Catalog is the path of the SQLite column catalog. Empty disables
	// identifier resolution.
	Catalog string `yaml:"catalog" json:"catalog"`

	// Functions is a directory of CUE user-defined function declarations.
	Functions string `yaml:"functions" json:"functions"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxDepth: 256,
		LogLevel: "info",
	}
}

// Load reads the file at path. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML settings over the defaults and validates them.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the schema, then checks the charset and
// collation names.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}

	if c.DefaultCharset != "" {
		if err := literal.ValidateCharset(c.DefaultCharset); err != nil {
			return fmt.Errorf("invalid config: default_charset: %w", err)
		}
	}
	if c.DefaultCollation != "" {
		if _, err := language.Parse(c.DefaultCollation); err != nil {
			return fmt.Errorf("invalid config: default_collation: %w", err)
		}
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
