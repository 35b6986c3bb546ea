package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Security SecurityConfig `mapstructure:"security"`
	Session  SessionConfig  `mapstructure:"session"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Alerts   AlertConfig    `mapstructure:"alerts"`
	Demo     DemoConfig     `mapstructure:"demo"`
	Network  NetworkConfig  `mapstructure:"network"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StorageConfig selects and configures the persistence backend.
// "file" is the canonical backend; "memory" and "redis" implement the
// same key/value contract.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// RedisConfig holds Redis configuration for the redis storage backend
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SecurityConfig holds token and password configuration
type SecurityConfig struct {
	Tokens   TokenConfig    `mapstructure:"tokens"`
	Password PasswordConfig `mapstructure:"password"`
}

// TokenConfig holds token lifetimes
type TokenConfig struct {
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// PasswordConfig holds password rules
type PasswordConfig struct {
	MinLength         int    `mapstructure:"min_length"`
	Argon2Memory      uint32 `mapstructure:"argon2_memory"`
	Argon2Iterations  uint32 `mapstructure:"argon2_iterations"`
	Argon2Parallelism uint8  `mapstructure:"argon2_parallelism"`
}

// SessionConfig holds session lifecycle configuration
type SessionConfig struct {
	// HeartbeatInterval is how often the activity heartbeat touches the
	// current session while the process is running.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// AuditConfig holds audit log retention
type AuditConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// AlertConfig holds alert retention and threshold rules
type AlertConfig struct {
	MaxAlerts           int           `mapstructure:"max_alerts"`
	FailedLoginCount    int           `mapstructure:"failed_login_count"`
	FailedLoginWindow   time.Duration `mapstructure:"failed_login_window"`
	PasswordResetCount  int           `mapstructure:"password_reset_count"`
	PasswordResetWindow time.Duration `mapstructure:"password_reset_window"`
}

// DemoConfig holds the demo controls that shape the mock API behavior.
// These are also persisted to storage so the values survive restarts.
type DemoConfig struct {
	NetworkDelayMs    int  `mapstructure:"network_delay_ms"`
	ShowLoadingStates bool `mapstructure:"show_loading_states"`
	SimulateErrors    bool `mapstructure:"simulate_errors"`
}

// NetworkConfig holds settings for the future real API transport.
// Timeout is not enforced anywhere yet; it exists so callers wiring a
// real backend have a single knob to honor.
type NetworkConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/volunteerhub")

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Bind environment variables
	v.SetEnvPrefix("VHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching files or
// the environment. Tests use this.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config unmarshal: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Storage defaults
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "vhub-auth.json")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Security defaults
	v.SetDefault("security.tokens.access_token_ttl", "24h")
	v.SetDefault("security.tokens.refresh_token_ttl", "720h")
	v.SetDefault("security.password.min_length", 8)
	v.SetDefault("security.password.argon2_memory", 65536)
	v.SetDefault("security.password.argon2_iterations", 3)
	v.SetDefault("security.password.argon2_parallelism", 4)

	// Session defaults
	v.SetDefault("session.heartbeat_interval", "5m")

	// Audit log defaults
	v.SetDefault("audit.max_entries", 1000)

	// Alert defaults
	v.SetDefault("alerts.max_alerts", 100)
	v.SetDefault("alerts.failed_login_count", 3)
	v.SetDefault("alerts.failed_login_window", "5m")
	v.SetDefault("alerts.password_reset_count", 3)
	v.SetDefault("alerts.password_reset_window", "24h")

	// Demo control defaults
	v.SetDefault("demo.network_delay_ms", 0)
	v.SetDefault("demo.show_loading_states", true)
	v.SetDefault("demo.simulate_errors", false)

	// Network defaults (not enforced yet)
	v.SetDefault("network.timeout", "10s")
}
