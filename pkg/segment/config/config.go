// Package config loads segmenter tunables from YAML.
//
//	engine: merged
//	language: en_US
//	buffer_size: 65536
//	margin: 128
//	lookbehind_bound: 100
//	encoding: windows-1250
//	cascade: true
//	log_level: debug
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/segment/pkg/segment"
	"github.com/cognicore/segment/pkg/segment/internalerr"
	"github.com/cognicore/segment/pkg/segment/srx"
	"github.com/cognicore/segment/pkg/segment/window"
)

// Config holds segmenter tunables. Zero values mean "use the default".
type Config struct {
	Engine          string `yaml:"engine"`
	Language        string `yaml:"language"`
	BufferSize      int    `yaml:"buffer_size"`
	Margin          *int   `yaml:"margin"`
	LookbehindBound int    `yaml:"lookbehind_bound"`
	Encoding        string `yaml:"encoding"`
	Cascade         *bool  `yaml:"cascade"`
	LogLevel        string `yaml:"log_level"`
}

// Load reads a YAML tunables file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the values that can be checked without building a
// segmenter.
func (c *Config) Validate() error {
	e, err := segment.ParseEngine(c.Engine)
	if err != nil {
		return err
	}
	if c.BufferSize < 0 {
		return internalerr.Config("buffer_size", "must be positive, got %d", c.BufferSize)
	}
	if c.Margin != nil && *c.Margin < 1 {
		return internalerr.Config("margin", "must be at least 1, got %d", *c.Margin)
	}
	if c.LookbehindBound < 0 {
		return internalerr.Config("lookbehind_bound", "must be positive, got %d", c.LookbehindBound)
	}
	if e == segment.Accurate && (c.BufferSize != 0 || c.Margin != nil || c.LookbehindBound != 0) {
		return internalerr.Config("engine", "accurate engine takes no buffer_size, margin or lookbehind_bound")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Options converts the tunables into segmenter options.
func (c *Config) Options(logger *slog.Logger) ([]segment.Option, error) {
	e, err := segment.ParseEngine(c.Engine)
	if err != nil {
		return nil, err
	}

	opts := []segment.Option{segment.WithEngine(e)}
	if c.BufferSize != 0 {
		opts = append(opts, segment.WithBufferSize(c.BufferSize))
	}
	if c.Margin != nil {
		opts = append(opts, segment.WithMargin(*c.Margin))
	}
	if c.LookbehindBound != 0 {
		opts = append(opts, segment.WithLookbehindBound(c.LookbehindBound))
	}
	if logger != nil {
		opts = append(opts, segment.WithLogger(logger))
	}
	return opts, nil
}

// DocumentOptions returns the options for building a rule document.
func (c *Config) DocumentOptions() []srx.DocumentOption {
	if c.Cascade == nil {
		return nil
	}
	return []srx.DocumentOption{srx.WithCascade(*c.Cascade)}
}

// Reader wraps r in a decoder for the configured encoding.
func (c *Config) Reader(r io.Reader) (io.Reader, error) {
	return window.Decode(r, c.Encoding)
}

// Logger returns a text logger writing to w at the configured level, or a
// discarding one when no level is set.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, internalerr.Config("log_level", "unknown level %q", s)
}
