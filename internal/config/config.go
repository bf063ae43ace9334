package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig     `mapstructure:"server" validate:"required"`
	Extraction  ExtractionConfig `mapstructure:"extraction" validate:"required"`
	ResultCache CacheConfig      `mapstructure:"result_cache" validate:"required"`
	TextCache   CacheConfig      `mapstructure:"text_cache" validate:"required"`
	Queue       QueueConfig      `mapstructure:"queue" validate:"required"`
	Memory      MemoryConfig     `mapstructure:"memory" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// ExtractionConfig contains all extraction engine related settings.
type ExtractionConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`

	// PromptTemplatePath optionally points at a file overriding the
	// built-in extraction prompt template.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`

	MaxRetries       int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseRetryDelayMs int `mapstructure:"base_retry_delay_ms" validate:"gte=0"`
}

// CacheConfig contains the settings for one bounded cache instance.
// Durations are given in seconds so they can be supplied as plain numbers
// through environment variables.
type CacheConfig struct {
	MaxEntries           int   `mapstructure:"max_entries" validate:"required,gt=0"`
	MaxMemoryBytes       int64 `mapstructure:"max_memory_bytes" validate:"required,gt=0"`
	DefaultTTLSeconds    int   `mapstructure:"default_ttl_seconds" validate:"required,gt=0"`
	SweepIntervalSeconds int   `mapstructure:"sweep_interval_seconds" validate:"required,gt=0"`
}

// QueueConfig contains all processing queue related settings.
type QueueConfig struct {
	MaxBatchSize        int   `mapstructure:"max_batch_size" validate:"required,gt=0"`
	MaxWaitTimeMs       int   `mapstructure:"max_wait_time_ms" validate:"required,gt=0"`
	MaxQueueMemoryBytes int64 `mapstructure:"max_queue_memory_bytes" validate:"required,gt=0"`
	ParallelismEnabled  bool  `mapstructure:"parallelism_enabled"`
	WorkerCount         int   `mapstructure:"worker_count" validate:"required,gt=0"`
	JobTimeoutSeconds   int   `mapstructure:"job_timeout_seconds" validate:"required,gt=0"`
}

// MemoryConfig contains all memory monitor related settings.
type MemoryConfig struct {
	ThresholdBytes       int64   `mapstructure:"threshold_bytes" validate:"required,gt=0"`
	CheckIntervalSeconds int     `mapstructure:"check_interval_seconds" validate:"required,gt=0"`
	ShrinkFraction       float64 `mapstructure:"shrink_fraction" validate:"gte=0,lte=1"`
}
