package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRACKER"

// DotEnvFile is loaded into the process environment when present.
const DotEnvFile = ".env"

// defaults lists every key with its default so that environment variables
// can override any of them.
var defaults = map[string]interface{}{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout_seconds": 15,

	"database.url":            "",
	"database.max_open_conns": 25,
	"database.max_idle_conns": 5,

	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 60,
	"auth.bcrypt_cost":            10,

	"task.worker_count":              4,
	"task.queue_size":                100,
	"task.execution_timeout_seconds": 60,
	"task.executor":                  ExecutorSimulated,
	"task.simulated_delay_ms":        5000,
	"task.success_rate":              0.5,
	"task.http_timeout_seconds":      10,

	"events.nats_url":       "",
	"events.subject_prefix": "tasks.status",
}

// Load builds the configuration from defaults, an optional YAML file at
// configPath, a .env file in the working directory and TRACKER_* environment
// variables, in increasing order of precedence. The result is validated.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
