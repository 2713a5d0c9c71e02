package config

import (
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. HACS_SERVER_PORT
const EnvPrefix = "HACS"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Explain ExplainConfig `mapstructure:"explain"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	RateLimitPerMin int           `mapstructure:"rate_limit_per_min"`
}

// ModelConfig points at the trained artifact directory
type ModelConfig struct {
	Dir string `mapstructure:"dir"`
}

// ExplainConfig controls the interpretability output
type ExplainConfig struct {
	TopN int `mapstructure:"top_n"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from defaults, an optional file and environment variables.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.NewConfigurationError("failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to unmarshal config", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_upload_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_min", 120)

	v.SetDefault("model.dir", "./model")

	v.SetDefault("explain.top_n", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return apperrors.NewConfigurationError("server.port is required", nil)
	}
	if c.Server.RequestTimeout <= 0 {
		return apperrors.NewConfigurationError("server.request_timeout must be positive", nil)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return apperrors.NewConfigurationError("server.shutdown_timeout must be positive", nil)
	}
	if c.Server.MaxUploadBytes < 1 {
		return apperrors.NewConfigurationError("server.max_upload_bytes must be at least 1", nil)
	}
	if c.Server.RateLimitPerMin < 1 {
		return apperrors.NewConfigurationError("server.rate_limit_per_min must be at least 1", nil)
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return apperrors.NewConfigurationError("server.allowed_origins must contain at least one origin", nil)
	}
	if c.Model.Dir == "" {
		return apperrors.NewConfigurationError("model.dir is required", nil)
	}
	if c.Explain.TopN < 1 {
		return apperrors.NewConfigurationError("explain.top_n must be at least 1", nil)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return apperrors.NewConfigurationError("logging.format must be json or text", nil)
	}

	return nil
}
