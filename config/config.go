// Package config loads the application config (YAML) and the per-site
// source definitions (JSON files in a sites directory).
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application-level settings shared by every site run.
type Config struct {
	SitesDir           string  `yaml:"sites_dir"`
	TemplatesDir       string  `yaml:"templates_dir"`
	OutputDir          string  `yaml:"output_dir"`
	WindowDays         int     `yaml:"window_days"`
	Concurrency        int     `yaml:"concurrency"`
	MaxAttempts        int     `yaml:"max_attempts"`
	FetchTimeoutSecs   int     `yaml:"fetch_timeout_secs"`
	SourceTimeoutSecs  int     `yaml:"source_timeout_secs"`
	RunDeadlineSecs    int     `yaml:"run_deadline_secs"`
	BackoffBaseMillis  int     `yaml:"backoff_base_millis"`
	BackoffCapMillis   int     `yaml:"backoff_cap_millis"`
	EnrichDescriptions bool    `yaml:"enrich_descriptions"`
	GeminiAPIKey       string  `yaml:"gemini_api_key"`
	GeminiModel        string  `yaml:"gemini_model"`
	TelegramToken      string  `yaml:"telegram_token"`
	TelegramChatID     int64   `yaml:"telegram_chat_id"`
	ScheduleTime       string  `yaml:"schedule_time"`
	MetricsAddr        string  `yaml:"metrics_addr"`
	LogLevel           string  `yaml:"log_level"`
}

// scheduleTimeRegex validates HH:MM with proper ranges.
var scheduleTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults. A
// missing file is not an error: every setting has a usable default.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("VENUEFEED_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if cfg.SitesDir == "" {
		cfg.SitesDir = "./sites"
	}
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = "./templates"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./public"
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = 7
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 5
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = 15
	}
	if cfg.SourceTimeoutSecs == 0 {
		cfg.SourceTimeoutSecs = 30
	}
	if cfg.RunDeadlineSecs == 0 {
		cfg.RunDeadlineSecs = 120
	}
	if cfg.BackoffBaseMillis == 0 {
		cfg.BackoffBaseMillis = 1000
	}
	if cfg.BackoffCapMillis == 0 {
		cfg.BackoffCapMillis = 30000
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.0-flash-lite"
	}
	if cfg.ScheduleTime == "" {
		cfg.ScheduleTime = "06:00"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("VENUEFEED_SITES_DIR"); v != "" {
		cfg.SitesDir = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
}

func validate(cfg *Config) error {
	if cfg.WindowDays < 1 {
		return fmt.Errorf("window_days must be positive, got %d", cfg.WindowDays)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive, got %d", cfg.MaxAttempts)
	}
	if cfg.SourceTimeoutSecs > cfg.RunDeadlineSecs {
		return fmt.Errorf("source_timeout_secs (%d) must not exceed run_deadline_secs (%d)",
			cfg.SourceTimeoutSecs, cfg.RunDeadlineSecs)
	}
	if !scheduleTimeRegex.MatchString(cfg.ScheduleTime) {
		return fmt.Errorf("schedule_time must be HH:MM (00:00-23:59), got %q", cfg.ScheduleTime)
	}
	return nil
}

// Durations derived from the integer-valued YAML settings.

func (c *Config) FetchTimeout() time.Duration  { return time.Duration(c.FetchTimeoutSecs) * time.Second }
func (c *Config) SourceTimeout() time.Duration { return time.Duration(c.SourceTimeoutSecs) * time.Second }
func (c *Config) RunDeadline() time.Duration   { return time.Duration(c.RunDeadlineSecs) * time.Second }
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMillis) * time.Millisecond
}
func (c *Config) BackoffCap() time.Duration {
	return time.Duration(c.BackoffCapMillis) * time.Millisecond
}
