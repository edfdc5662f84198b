package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"       validate:"required"`
	Jobs       JobsConfig       `mapstructure:"jobs"       validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains the settings used to verify bearer tokens presented by
// the mobile client and the re-sync scheduler.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// JobsConfig tunes the briefing pipeline: lease handling, worker cadence and
// the accepted bounds for a job's desired briefing length.
type JobsConfig struct {
	// LeaseDuration is how long a worker owns a claimed job before the lease
	// expires and the job becomes reclaimable.
	LeaseDuration time.Duration `mapstructure:"lease_duration" validate:"required"`

	// LeaseHorizon bounds how far ahead of scheduled_at a job may be leased.
	LeaseHorizon time.Duration `mapstructure:"lease_horizon" validate:"required"`

	// LeaseBatchSize caps how many jobs a single leaseJobs call may claim.
	LeaseBatchSize int `mapstructure:"lease_batch_size" validate:"required,gt=0"`

	// PollInterval is the cadence at which stage workers poll for work.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`

	// ReaperInterval is the cadence of the failed_missed sweep.
	ReaperInterval time.Duration `mapstructure:"reaper_interval" validate:"required"`

	// MinLengthSeconds and MaxLengthSeconds bound the desired briefing length
	// accepted at job creation.
	MinLengthSeconds int `mapstructure:"min_length_seconds" validate:"required,gt=0"`
	MaxLengthSeconds int `mapstructure:"max_length_seconds" validate:"required,gtefield=MinLengthSeconds"`

	// ContentTTL is how long a cached content block stays valid.
	ContentTTL time.Duration `mapstructure:"content_ttl" validate:"required"`
}

// GenerationConfig contains settings for the script-generation and audio
// synthesis workers.
type GenerationConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ScriptModel  string `mapstructure:"script_model"   validate:"required"`
	AudioModel   string `mapstructure:"audio_model"    validate:"required"`
	AudioDir     string `mapstructure:"audio_dir"      validate:"required"`
}
