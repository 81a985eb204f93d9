// Package config holds the run configuration for linefix: defaults, YAML
// loading and validation. Command-line flags are applied on top by cmd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"linefix/pkg/textenc"
)

const (
	// DefaultExtensions covers C, C++ and C# sources and headers.
	DefaultExtensions = "*.h,*.hpp,*.c,*.cc,*.cpp,*.cxx,*.inl,*.cs"

	// DefaultCodepage is GBK, the ANSI codepage of Simplified Chinese Windows.
	DefaultCodepage = 936

	DefaultMinConfidence = 10
)

// Config is read once before the run starts and never mutated afterwards.
type Config struct {
	// SourceDir is the tree to normalize. Required.
	SourceDir string `yaml:"source_dir"`

	// DestDir receives the normalized files. Empty means in place.
	DestDir string `yaml:"dest_dir"`

	// Extensions is a comma-separated list of glob patterns.
	Extensions string `yaml:"extensions"`

	// FallbackCodepage is used when detection fails or yields an unusable charset.
	FallbackCodepage int `yaml:"fallback_codepage"`

	// ConvertToUTF8 writes every file as UTF-8 instead of its detected charset.
	ConvertToUTF8 bool `yaml:"convert_to_utf8"`

	// PreserveBOM keeps a UTF-8 byte-order mark on files that had one.
	PreserveBOM bool `yaml:"preserve_bom"`

	// MinConfidence is the lowest detector confidence (0-100) accepted.
	MinConfidence int `yaml:"min_confidence"`
}

// ConfigError reports a configuration problem found before any file is touched.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Default returns the configuration used before a file or flags are applied.
func Default() *Config {
	return &Config{
		Extensions:       DefaultExtensions,
		FallbackCodepage: DefaultCodepage,
		ConvertToUTF8:    true,
		MinConfidence:    DefaultMinConfidence,
	}
}

// LoadFile reads a YAML file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Patterns returns the non-empty, trimmed entries of Extensions.
func (c *Config) Patterns() []string {
	var patterns []string
	for _, p := range strings.Split(c.Extensions, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}

// DestinationDir returns DestDir, or SourceDir when no destination was given.
func (c *Config) DestinationDir() string {
	if c.DestDir == "" {
		return c.SourceDir
	}
	return c.DestDir
}

// InPlace reports whether files are rewritten where they are.
func (c *Config) InPlace() bool {
	if c.DestDir == "" {
		return true
	}
	return filepath.Clean(c.DestDir) == filepath.Clean(c.SourceDir)
}

// Validate checks the configuration. Every error it returns is a *ConfigError.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourceDir) == "" {
		return &ConfigError{Field: "source_dir", Reason: "required"}
	}

	patterns := c.Patterns()
	if len(patterns) == 0 {
		return &ConfigError{Field: "extensions", Reason: "no patterns given"}
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return &ConfigError{Field: "extensions", Reason: fmt.Sprintf("bad pattern %q", p)}
		}
	}

	if _, err := textenc.Codepage(c.FallbackCodepage); err != nil {
		return &ConfigError{Field: "fallback_codepage", Reason: err.Error()}
	}

	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return &ConfigError{Field: "min_confidence", Reason: fmt.Sprintf("%d is outside 0..100", c.MinConfidence)}
	}

	return nil
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
