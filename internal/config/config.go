// Package config defines the global configuration structure for the aquaplan
// projection engine. Configuration is loaded once at process initialization
// and is immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup (fail fast).
package config

import (
	"time"
)

// Config is the top-level configuration struct for the projection engine.
// It is populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"aquaplan-engine"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server     ServerConfig
	Database   DatabaseConfig
	Projection ProjectionConfig
	Planner    PlannerConfig
	Recompute  RecomputeConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`     // Fail fast when pool exhausted
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"` // Detect dead connections during failover
}

// ProjectionConfig holds the tuning knobs of the forward projection engine.
// Defaults match the operational values used across the platform; per-species
// overrides (harvest threshold) are resolved by callers before invoking the
// engine.
type ProjectionConfig struct {
	// HorizonDays is the number of future days computed per run.
	HorizonDays int `envconfig:"PROJECTION_HORIZON_DAYS" default:"90" validate:"min=1,max=365"`

	// BiasWindowDays is the trailing window of observed states consulted by
	// the temperature bias estimator.
	BiasWindowDays int `envconfig:"BIAS_WINDOW_DAYS" default:"30" validate:"min=1,max=365"`

	// BiasClampC is the symmetric bound applied to the raw temperature bias,
	// in degrees Celsius. The effective bounds are [-BiasClampC, +BiasClampC].
	BiasClampC float64 `envconfig:"BIAS_CLAMP_C" default:"1.0" validate:"gt=0"`

	// HarvestThresholdG is the default harvest-ready weight in grams.
	HarvestThresholdG float64 `envconfig:"HARVEST_THRESHOLD_G" default:"5000" validate:"gt=0"`

	// AttentionWindowDays is the lead time inside which an unplanned harvest
	// crossing flags the summary for planning attention.
	AttentionWindowDays int `envconfig:"ATTENTION_WINDOW_DAYS" default:"14" validate:"min=1"`
}

// PlannerConfig holds settings for the outbound planned-activity lookups.
type PlannerConfig struct {
	BaseURL   string        `envconfig:"PLANNER_BASE_URL" validate:"omitempty,url"`
	Timeout   time.Duration `envconfig:"PLANNER_TIMEOUT" default:"5s"`
	UserAgent string        `envconfig:"PLANNER_USER_AGENT" default:"Aquaplan-Engine/1.0"`
}

// RecomputeConfig holds settings for the scheduled batch recompute job.
type RecomputeConfig struct {
	// Schedule is a cron expression; the default recomputes nightly at 02:00.
	Schedule string `envconfig:"RECOMPUTE_SCHEDULE" default:"0 2 * * *"`

	// Concurrency caps how many assignments are recomputed in parallel.
	Concurrency int `envconfig:"RECOMPUTE_CONCURRENCY" default:"8" validate:"min=1,max=64"`

	// PerAssignmentTimeout bounds a single compute-and-store call.
	PerAssignmentTimeout time.Duration `envconfig:"RECOMPUTE_TIMEOUT" default:"30s"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
