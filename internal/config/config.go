package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory stores.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// InMemory reports whether no database is configured.
func (c DatabaseConfig) InMemory() bool {
	return c.URL == ""
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// Executor kinds.
const (
	ExecutorSimulated = "simulated"
	ExecutorHTTP      = "http"
)

// TaskConfig configures the dispatcher, worker pool and executor.
type TaskConfig struct {
	WorkerCount             int     `mapstructure:"worker_count" validate:"gt=0"`
	QueueSize               int     `mapstructure:"queue_size" validate:"gt=0"`
	ExecutionTimeoutSeconds int     `mapstructure:"execution_timeout_seconds" validate:"gte=0"`
	Executor                string  `mapstructure:"executor" validate:"oneof=simulated http"`
	SimulatedDelayMS        int     `mapstructure:"simulated_delay_ms" validate:"gte=0"`
	SuccessRate             float64 `mapstructure:"success_rate" validate:"gte=0,lte=1"`
	HTTPTimeoutSeconds      int     `mapstructure:"http_timeout_seconds" validate:"gt=0"`
}

// ExecutionTimeout returns the per-execution limit; zero means none.
func (c TaskConfig) ExecutionTimeout() time.Duration {
	return time.Duration(c.ExecutionTimeoutSeconds) * time.Second
}

// SimulatedDelay returns how long the simulated executor works.
func (c TaskConfig) SimulatedDelay() time.Duration {
	return time.Duration(c.SimulatedDelayMS) * time.Millisecond
}

// HTTPTimeout returns the HTTP executor's client timeout.
func (c TaskConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// EventsConfig configures external event publishing. An empty NATSURL
// keeps events in-process.
type EventsConfig struct {
	NATSURL       string `mapstructure:"nats_url" validate:"omitempty,url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}
