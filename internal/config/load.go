package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config
// file. Environment variables use the VATLINE_ prefix and take precedence
// over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// An optional config.yaml in the working directory may override the
	// defaults; its absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("VATLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// The API key has no sensible default; registering an empty one lets
	// viper pick the value up from the environment.
	v.SetDefault("extraction.gemini_api_key", "")
	v.SetDefault("extraction.model_name", "gemini-2.0-flash")
	v.SetDefault("extraction.prompt_template_path", "")
	v.SetDefault("extraction.max_retries", 3)
	v.SetDefault("extraction.base_retry_delay_ms", 500)

	v.SetDefault("result_cache.max_entries", 512)
	v.SetDefault("result_cache.max_memory_bytes", 64<<20)
	v.SetDefault("result_cache.default_ttl_seconds", 1800)
	v.SetDefault("result_cache.sweep_interval_seconds", 300)

	v.SetDefault("text_cache.max_entries", 256)
	v.SetDefault("text_cache.max_memory_bytes", 128<<20)
	v.SetDefault("text_cache.default_ttl_seconds", 900)
	v.SetDefault("text_cache.sweep_interval_seconds", 120)

	v.SetDefault("queue.max_batch_size", 5)
	v.SetDefault("queue.max_wait_time_ms", 2000)
	v.SetDefault("queue.max_queue_memory_bytes", 512<<20)
	v.SetDefault("queue.parallelism_enabled", true)
	v.SetDefault("queue.worker_count", 4)
	v.SetDefault("queue.job_timeout_seconds", 30)

	v.SetDefault("memory.threshold_bytes", 768<<20)
	v.SetDefault("memory.check_interval_seconds", 30)
	v.SetDefault("memory.shrink_fraction", 0.25)
}
