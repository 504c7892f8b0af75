package config

import "time"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Stores     StoresConfig     `mapstructure:"stores" yaml:"stores"`
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Security   SecurityConfig   `mapstructure:"security" yaml:"security"`
	Governance GovernanceConfig `mapstructure:"governance" yaml:"governance"`
	Response   ResponseConfig   `mapstructure:"response" yaml:"response"`
	Notifier   NotifierConfig   `mapstructure:"notifier" yaml:"notifier"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	CORS       CORSConfig       `mapstructure:"cors" yaml:"cors"`
}

// StoresConfig bounds the in-memory telemetry buffers.
type StoresConfig struct {
	MetricsMaxEntries int `mapstructure:"metrics_max_entries" yaml:"metrics_max_entries"`
	LogsMaxEntries    int `mapstructure:"logs_max_entries" yaml:"logs_max_entries"`
	RetentionHours    int `mapstructure:"retention_hours" yaml:"retention_hours"`
}

// EngineConfig drives the rule evaluation loop.
type EngineConfig struct {
	TickSeconds   int    `mapstructure:"tick_seconds" yaml:"tick_seconds"`
	WindowSeconds int    `mapstructure:"window_seconds" yaml:"window_seconds"` // evaluation window per tick
	RulesPath     string `mapstructure:"rules_path" yaml:"rules_path"`         // optional rule-override YAML
	HistoryLimit  int    `mapstructure:"history_limit" yaml:"history_limit"`
}

// SecurityConfig tunes the request-path security detector. The source
// deployment's thresholds are defaults here, not constants.
type SecurityConfig struct {
	BruteForceThreshold     int `mapstructure:"brute_force_threshold" yaml:"brute_force_threshold"`
	BruteForceWindowSeconds int `mapstructure:"brute_force_window_seconds" yaml:"brute_force_window_seconds"`
	ReputationThreshold     int `mapstructure:"reputation_threshold" yaml:"reputation_threshold"`
	ReputationTTLHours      int `mapstructure:"reputation_ttl_hours" yaml:"reputation_ttl_hours"`
}

// GovernanceConfig tunes the AI-output governance detector.
type GovernanceConfig struct {
	ToxicityThreshold float64 `mapstructure:"toxicity_threshold" yaml:"toxicity_threshold"`
}

// ResponseConfig bounds the remediation action pipeline.
type ResponseConfig struct {
	Workers              int `mapstructure:"workers" yaml:"workers"`
	QueueSize            int `mapstructure:"queue_size" yaml:"queue_size"`
	ActionTimeoutSeconds int `mapstructure:"action_timeout_seconds" yaml:"action_timeout_seconds"`
	ExecutionLogLimit    int `mapstructure:"execution_log_limit" yaml:"execution_log_limit"`
}

// NotifierConfig configures the outbound notification sink.
type NotifierConfig struct {
	WebhookURL     string `mapstructure:"webhook_url" yaml:"webhook_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// CacheConfig configures the optional Valkey backing for shared block
// state. Disabled means process-local fallback.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Node     string `mapstructure:"node" yaml:"node"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Password string `mapstructure:"password" yaml:"password"`
	TTL      int    `mapstructure:"ttl" yaml:"ttl"` // seconds
}

// CORSConfig handles Cross-Origin Resource Sharing for the ops API.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

func (c *StoresConfig) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

func (c *EngineConfig) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

func (c *EngineConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

func (c *SecurityConfig) BruteForceWindow() time.Duration {
	return time.Duration(c.BruteForceWindowSeconds) * time.Second
}

func (c *ResponseConfig) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutSeconds) * time.Second
}
