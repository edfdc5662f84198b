package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take precedence
// over values from the config file and use the DAYSTART_ prefix with
// underscores for nesting (e.g. DAYSTART_SERVER_PORT).
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DAYSTART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for every setting that has a sensible one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Secrets default to empty so viper's AutomaticEnv can see the keys during
	// Unmarshal; validation rejects them if they are still empty afterwards.
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("generation.gemini_api_key", "")

	v.SetDefault("jobs.lease_duration", "30m")
	v.SetDefault("jobs.lease_horizon", "6h")
	v.SetDefault("jobs.lease_batch_size", 10)
	v.SetDefault("jobs.poll_interval", "15s")
	v.SetDefault("jobs.reaper_interval", "1m")
	v.SetDefault("jobs.min_length_seconds", 60)
	v.SetDefault("jobs.max_length_seconds", 600)
	v.SetDefault("jobs.content_ttl", "12h")

	v.SetDefault("generation.script_model", "gemini-2.0-flash")
	v.SetDefault("generation.audio_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("generation.audio_dir", "./audio")
}
