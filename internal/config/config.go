// Package config loads the optional YAML run configuration shared by both
// dashboard commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	DefaultReferenceYear = 2026
	DefaultTimezone      = "America/Los_Angeles"
	DefaultSchema        = "scan_report"
)

type Config struct {
	Title           string `yaml:"title"`
	ReferenceYear   int    `yaml:"reference_year"`
	DisplayTimezone string `yaml:"display_timezone"`
	LogLevel        string `yaml:"log_level"`
	MetricsTextfile string `yaml:"metrics_textfile"`

	Archive Archive `yaml:"archive"`
	Publish Publish `yaml:"publish"`

	location *time.Location
}

type Archive struct {
	DatabaseURL string `yaml:"database_url"`
	Schema      string `yaml:"schema"`
	Tag         string `yaml:"tag"`
}

type Publish struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether enough is configured to attempt an upload.
func (p Publish) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ReferenceYear:   DefaultReferenceYear,
		DisplayTimezone: DefaultTimezone,
		LogLevel:        "info",
		Archive:         Archive{Schema: DefaultSchema},
		Publish:         Publish{UseSSL: true},
	}
}

// Load reads path on top of Default and validates the result. Unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ReferenceYear < 1980 || c.ReferenceYear > 2200 {
		errs = append(errs, fmt.Errorf("reference_year %d out of range", c.ReferenceYear))
	}
	if c.DisplayTimezone == "" {
		c.DisplayTimezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("display_timezone: %w", err))
	} else {
		c.location = loc
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Archive.Schema == "" {
		c.Archive.Schema = DefaultSchema
	}
	if (c.Publish.AccessKey == "") != (c.Publish.SecretKey == "") {
		errs = append(errs, errors.New("publish: access_key and secret_key must be set together"))
	}
	if c.Publish.Endpoint != "" && c.Publish.Bucket == "" {
		errs = append(errs, errors.New("publish: bucket is required when endpoint is set"))
	}
	return errors.Join(errs...)
}

// Location is the display time zone; UTC until Validate succeeds.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Level is the slog level named by log_level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// DatabaseURL returns the archive URL from the file, then
// SCAN_REPORT_DB_URL, then DATABASE_URL.
func (c *Config) DatabaseURL() string {
	if value := strings.TrimSpace(c.Archive.DatabaseURL); value != "" {
		return value
	}
	if value := strings.TrimSpace(os.Getenv("SCAN_REPORT_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}

func parseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level %q is not one of debug, info, warn, error", value)
}
