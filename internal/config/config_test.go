package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps Load away from the developer's real home and working directory
func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	for _, key := range []string{
		"GITEMAILS_GITHUB_BASE_URL",
		"GITEMAILS_GITHUB_USER_AGENT",
		"GITEMAILS_GITHUB_PER_PAGE",
		"GITEMAILS_GITHUB_REQUESTS_PER_SECOND",
		"GITEMAILS_GITHUB_RETRY_DELAY",
		"GITEMAILS_GITHUB_MAX_UNAUTHENTICATED_RETRIES",
		"GITEMAILS_OUTPUT_DIRECTORY",
		"GITEMAILS_STORAGE_DSN",
		"GITEMAILS_LOG_LEVEL",
		"GITEMAILS_LOG_FILE",
		"GITEMAILS_LOG_JSON",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.GitHub.PerPage)
	assert.Equal(t, 60*time.Second, cfg.GitHub.RetryDelay)
	assert.Equal(t, 5, cfg.GitHub.MaxUnauthenticatedRetries)
	assert.Equal(t, float64(10), cfg.GitHub.RequestsPerSecond)
	assert.Equal(t, ".", cfg.Output.Directory)
	assert.Empty(t, cfg.Storage.DSN)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
github:
  base_url: https://ghe.example.com/api/v3/
  per_page: 50
  retry_delay: 5s
output:
  directory: out
storage:
  dsn: sqlite://identities.db
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://ghe.example.com/api/v3/", cfg.GitHub.BaseURL)
	assert.Equal(t, 50, cfg.GitHub.PerPage)
	assert.Equal(t, 5*time.Second, cfg.GitHub.RetryDelay)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, "sqlite://identities.db", cfg.Storage.DSN)
	// untouched keys keep their defaults
	assert.Equal(t, 5, cfg.GitHub.MaxUnauthenticatedRetries)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GITEMAILS_GITHUB_BASE_URL", "https://ghe.example.com/api/v3/")
	t.Setenv("GITEMAILS_GITHUB_USER_AGENT", "emails-bot")
	t.Setenv("GITEMAILS_GITHUB_PER_PAGE", "50")
	t.Setenv("GITEMAILS_GITHUB_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("GITEMAILS_GITHUB_RETRY_DELAY", "2s")
	t.Setenv("GITEMAILS_GITHUB_MAX_UNAUTHENTICATED_RETRIES", "1")
	t.Setenv("GITEMAILS_OUTPUT_DIRECTORY", "~/out")
	t.Setenv("GITEMAILS_STORAGE_DSN", "postgres://localhost/gitemails")
	t.Setenv("GITEMAILS_LOG_LEVEL", "debug")
	t.Setenv("GITEMAILS_LOG_FILE", "~/logs/run.log")
	t.Setenv("GITEMAILS_LOG_JSON", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://ghe.example.com/api/v3/", cfg.GitHub.BaseURL)
	assert.Equal(t, "emails-bot", cfg.GitHub.UserAgent)
	assert.Equal(t, 50, cfg.GitHub.PerPage)
	assert.Equal(t, 2.5, cfg.GitHub.RequestsPerSecond)
	assert.Equal(t, 2*time.Second, cfg.GitHub.RetryDelay)
	assert.Equal(t, 1, cfg.GitHub.MaxUnauthenticatedRetries)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Output.Directory)
	assert.Equal(t, "postgres://localhost/gitemails", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "logs", "run.log"), cfg.Log.File)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("github:\n  per_page: 20\n"), 0644))
	t.Setenv("GITEMAILS_GITHUB_PER_PAGE", "75")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.GitHub.PerPage)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"per page too large", func(c *Config) { c.GitHub.PerPage = 101 }},
		{"per page zero", func(c *Config) { c.GitHub.PerPage = 0 }},
		{"negative rate", func(c *Config) { c.GitHub.RequestsPerSecond = -1 }},
		{"negative delay", func(c *Config) { c.GitHub.RetryDelay = -time.Second }},
		{"negative retries", func(c *Config) { c.GitHub.MaxUnauthenticatedRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCheck_StorageAndBaseURL(t *testing.T) {
	cfg := Default()
	cfg.Storage.DSN = "mysql://localhost/db"
	cfg.GitHub.BaseURL = "ghe.example.com"

	result := cfg.Check()
	assert.True(t, result.HasErrors())
	assert.Len(t, result.Errors, 2)
	assert.Contains(t, result.Error(), "storage.dsn")
	assert.ErrorIs(t, cfg.Validate(), errors.ErrConfig)
}

func TestCheck_Warnings(t *testing.T) {
	cfg := Default()
	cfg.GitHub.BaseURL = "http://ghe.internal/api/v3/"
	cfg.GitHub.RequestsPerSecond = 0

	result := cfg.Check()
	assert.False(t, result.HasErrors())
	assert.Len(t, result.Warnings, 2)
	assert.Empty(t, result.Error())
}
