package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables (VIGIL_ prefix)
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/vigil/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("VIGIL")

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets reasonable default values. Threshold defaults are
// conservative starting points; tune them per deployment via the config
// file or VIGIL_ environment variables.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")

	// Store defaults
	v.SetDefault("stores.metrics_max_entries", 10000)
	v.SetDefault("stores.logs_max_entries", 10000)
	v.SetDefault("stores.retention_hours", 24)

	// Engine defaults
	v.SetDefault("engine.tick_seconds", 30)
	v.SetDefault("engine.window_seconds", 300)
	v.SetDefault("engine.rules_path", "")
	v.SetDefault("engine.history_limit", 1000)

	// Security detector defaults
	v.SetDefault("security.brute_force_threshold", 10)
	v.SetDefault("security.brute_force_window_seconds", 300)
	v.SetDefault("security.reputation_threshold", 5)
	v.SetDefault("security.reputation_ttl_hours", 24)

	// Governance detector defaults
	v.SetDefault("governance.toxicity_threshold", 0.7)

	// Response orchestrator defaults
	v.SetDefault("response.workers", 4)
	v.SetDefault("response.queue_size", 256)
	v.SetDefault("response.action_timeout_seconds", 5)
	v.SetDefault("response.execution_log_limit", 1000)

	// Notifier defaults
	v.SetDefault("notifier.webhook_url", "")
	v.SetDefault("notifier.timeout_seconds", 5)

	// Cache defaults (Valkey single-node, disabled by default)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.node", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 86400)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)
}

func validateConfig(c *Config) error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Stores.MetricsMaxEntries < 2 || c.Stores.LogsMaxEntries < 2 {
		return fmt.Errorf("store caps must be at least 2")
	}
	if c.Stores.RetentionHours <= 0 {
		return fmt.Errorf("stores.retention_hours must be positive")
	}
	if c.Engine.TickSeconds <= 0 {
		return fmt.Errorf("engine.tick_seconds must be positive")
	}
	if c.Engine.WindowSeconds <= 0 {
		return fmt.Errorf("engine.window_seconds must be positive")
	}
	if c.Security.BruteForceThreshold <= 0 || c.Security.BruteForceWindowSeconds <= 0 {
		return fmt.Errorf("security brute-force threshold and window must be positive")
	}
	if c.Security.ReputationThreshold <= 0 {
		return fmt.Errorf("security.reputation_threshold must be positive")
	}
	if c.Governance.ToxicityThreshold <= 0 || c.Governance.ToxicityThreshold > 1 {
		return fmt.Errorf("governance.toxicity_threshold must be in (0, 1]")
	}
	if c.Response.Workers <= 0 || c.Response.QueueSize <= 0 {
		return fmt.Errorf("response workers and queue_size must be positive")
	}
	if c.Response.ActionTimeoutSeconds <= 0 {
		return fmt.Errorf("response.action_timeout_seconds must be positive")
	}
	return nil
}
