package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rohankatakam/gitemails/internal/errors"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  ❌ %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", warn))
		}
	}

	return sb.String()
}

// Check validates every section and collects errors and warnings
func (c *Config) Check() *ValidationResult {
	result := &ValidationResult{Valid: true}
	c.validateGitHub(result)
	c.validateStorage(result)
	c.validateLog(result)
	return result
}

// Validate rejects values the crawler cannot work with
func (c *Config) Validate() error {
	result := c.Check()
	if result.HasErrors() {
		return errors.ConfigErrorf("%s", strings.TrimSpace(result.Error()))
	}
	return nil
}

func (c *Config) validateGitHub(result *ValidationResult) {
	gh := c.GitHub

	if gh.BaseURL != "" {
		u, err := url.Parse(gh.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			result.AddError("github.base_url %q is not an absolute URL", gh.BaseURL)
		} else if u.Scheme != "https" {
			result.AddWarning("github.base_url uses %s; tokens will be sent unencrypted", u.Scheme)
		}
	}

	if gh.PerPage < 1 || gh.PerPage > 100 {
		result.AddError("github.per_page must be between 1 and 100, got %d", gh.PerPage)
	}
	if gh.RequestsPerSecond < 0 {
		result.AddError("github.requests_per_second cannot be negative")
	} else if gh.RequestsPerSecond == 0 {
		result.AddWarning("github.requests_per_second is 0; requests are not throttled")
	}
	if gh.RetryDelay < 0 {
		result.AddError("github.retry_delay cannot be negative")
	} else if gh.RetryDelay > 0 && gh.RetryDelay < time.Second {
		result.AddWarning("github.retry_delay %s is shorter than GitHub's rate limit windows", gh.RetryDelay)
	}
	if gh.MaxUnauthenticatedRetries < 0 {
		result.AddError("github.max_unauthenticated_retries cannot be negative")
	}
}

func (c *Config) validateStorage(result *ValidationResult) {
	dsn := c.Storage.DSN
	if dsn == "" {
		return
	}
	for _, prefix := range []string{"sqlite://", "postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return
		}
	}
	result.AddError("storage.dsn must start with sqlite:// or postgres://")
}

func (c *Config) validateLog(result *ValidationResult) {
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		result.AddError("log.level %q is not a known level", c.Log.Level)
	}
}
