package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the registry reads,
// e.g. PUSH_REGISTRY_STORE_FILE for store_file.
const EnvPrefix = "PUSH_REGISTRY"

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
	File   string `json:"file" mapstructure:"file"`
}

// Config represents the registry configuration
type Config struct {
	// Port is the port the HTTP API listens on
	Port string `json:"port" mapstructure:"port"`
	// StoreFile is the backing subscriptions file. Empty runs memory-only.
	StoreFile string `json:"store_file" mapstructure:"store_file"`
	// AdminToken gates GET /subscriptions. Empty leaves the gate open.
	AdminToken string `json:"admin_token" mapstructure:"admin_token"`
	// ClientToken gates POST and DELETE /subscriptions. Empty leaves the gate open.
	ClientToken string `json:"client_token" mapstructure:"client_token"`
	// MetricsAddr is the listen address for /metrics and /healthz. Empty disables it.
	MetricsAddr     string        `json:"metrics_addr" mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Log             LogConfig     `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 30 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from an optional JSON or YAML file, the
// process environment and an optional .env file in the working directory.
func LoadConfig(filename string) (*Config, error) {
	return LoadConfigWithViper(viper.New(), filename)
}

// LoadConfigWithViper is LoadConfig on a caller supplied viper instance, so
// that command line flags bound to it take precedence.
func LoadConfigWithViper(v *viper.Viper, filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AdminToken = strings.TrimSpace(cfg.AdminToken)
	cfg.ClientToken = strings.TrimSpace(cfg.ClientToken)
	cfg.StoreFile = strings.TrimSpace(cfg.StoreFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format %q (want text or json)", c.Log.Format)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("port", def.Port)
	v.SetDefault("store_file", "")
	v.SetDefault("admin_token", "")
	v.SetDefault("client_token", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("shutdown_timeout", def.ShutdownTimeout)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", "")
}
