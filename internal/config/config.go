// Package config loads the optional YAML configuration file.
//
// Every field has a default, and command-line flags override file values.
// A typical file:
//
//	store: s3://bucket/prefix/?region=us-east-1&acl=public-read
//	media_type: application/vnd.sqlite3
//	log_level: info
//	format: text
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/roach88/collected/internal/content"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	// Store is the object store URL content is published to. Commands that
	// need a store fail if it is empty.
	Store string `yaml:"store"`

	// MediaType is the media type exported databases are published as.
	MediaType content.MediaType `yaml:"media_type"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Format is the CLI output format, text or json.
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MediaType: content.SQLite3,
		LogLevel:  "info",
		Format:    "text",
	}
}

// Load reads path and overlays it on Default. Unknown fields are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data and overlays it on Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	// Parse YAML with strict field validation (catches typos like "stores:")
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.Store != "" {
		u, err := url.Parse(c.Store)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if u.Scheme == "" {
			return fmt.Errorf("store %q: missing scheme (want memory://, file://, or s3://)", c.Store)
		}
	}
	if c.MediaType.IsZero() {
		return errors.New("media_type is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format %q: want text or json", c.Format)
	}
	return nil
}

// ParseLevel maps a log level name to its slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level %q: want debug, info, warn, or error", s)
	}
}
