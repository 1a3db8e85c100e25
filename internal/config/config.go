package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Output  OutputConfig  `mapstructure:"output"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

type GitHubConfig struct {
	BaseURL           string        `mapstructure:"base_url"` // empty = api.github.com
	UserAgent         string        `mapstructure:"user_agent"`
	PerPage           int           `mapstructure:"per_page"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	// Rate limit retries allowed when no token is configured
	MaxUnauthenticatedRetries int `mapstructure:"max_unauthenticated_retries"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory"`
}

type StorageConfig struct {
	DSN string `mapstructure:"dsn"` // sqlite://path or postgres://...; empty disables the mirror
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			UserAgent:                 "gitemails",
			PerPage:                   100,
			RequestsPerSecond:         10,
			RetryDelay:                60 * time.Second,
			MaxUnauthenticatedRetries: 5,
		},
		Output: OutputConfig{
			Directory: ".",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from defaults, config file, .env files and GITEMAILS_* variables
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GITEMAILS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("github.user_agent", cfg.GitHub.UserAgent)
	v.SetDefault("github.per_page", cfg.GitHub.PerPage)
	v.SetDefault("github.requests_per_second", cfg.GitHub.RequestsPerSecond)
	v.SetDefault("github.retry_delay", cfg.GitHub.RetryDelay)
	v.SetDefault("github.max_unauthenticated_retries", cfg.GitHub.MaxUnauthenticatedRetries)
	v.SetDefault("output.directory", cfg.Output.Directory)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.json", cfg.Log.JSON)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".gitemails")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".gitemails"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to read config")
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to unmarshal config")
	}

	expandPaths(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files without overriding variables already set
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
}

// expandPaths expands ~ in path settings, wherever they came from
func expandPaths(cfg *Config) {
	cfg.Output.Directory = expandPath(cfg.Output.Directory)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
