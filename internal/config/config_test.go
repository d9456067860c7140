package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, DefaultReferenceYear, cfg.ReferenceYear)
	assert.Equal(t, "America/Los_Angeles", cfg.Location().String())
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, DefaultSchema, cfg.Archive.Schema)
	assert.False(t, cfg.Publish.Enabled())
}

func TestLoad_file(t *testing.T) {
	path := writeConfig(t, `
title: Fleet scans
reference_year: 2025
display_timezone: UTC
log_level: debug
metrics_textfile: /var/lib/node_exporter/scan_report.prom
archive:
  schema: fleet
  tag: nightly
publish:
  endpoint: localhost:9000
  bucket: dashboards
  access_key: key
  secret_key: secret
  use_ssl: false
  prefix: reports
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "Fleet scans", cfg.Title)
	assert.Equal(t, 2025, cfg.ReferenceYear)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "fleet", cfg.Archive.Schema)
	assert.Equal(t, "nightly", cfg.Archive.Tag)
	assert.True(t, cfg.Publish.Enabled())
	assert.False(t, cfg.Publish.UseSSL)
	assert.Equal(t, "reports", cfg.Publish.Prefix)
}

func TestLoad_emptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))

	require.NoError(t, err)
	assert.Equal(t, DefaultReferenceYear, cfg.ReferenceYear)
}

func TestLoad_unknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "refrence_year: 2025\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "refrence_year")
}

func TestLoad_missingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_collectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.ReferenceYear = 1900
	cfg.DisplayTimezone = "Mars/Olympus"
	cfg.LogLevel = "loud"
	cfg.Publish.Endpoint = "localhost:9000"
	cfg.Publish.AccessKey = "key"

	err := cfg.Validate()

	require.Error(t, err)
	for _, want := range []string{"reference_year", "display_timezone", "log_level", "secret_key", "bucket"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv("SCAN_REPORT_DB_URL", "")
	t.Setenv("DATABASE_URL", "postgres://fallback")
	cfg := Default()
	assert.Equal(t, "postgres://fallback", cfg.DatabaseURL())

	t.Setenv("SCAN_REPORT_DB_URL", " postgres://from-env ")
	assert.Equal(t, "postgres://from-env", cfg.DatabaseURL())

	cfg.Archive.DatabaseURL = "postgres://file"
	assert.Equal(t, "postgres://file", cfg.DatabaseURL())
}
