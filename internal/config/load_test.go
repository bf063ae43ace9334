package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that the Load function sets the expected default
// values when only the required fields are supplied.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		// Set required fields
		"VATLINE_EXTRACTION_GEMINI_API_KEY": "test-api-key",
		// Explicitly unset the ones we want to test defaults for
		"VATLINE_SERVER_PORT":          "",
		"VATLINE_SERVER_LOG_LEVEL":     "",
		"VATLINE_QUEUE_MAX_BATCH_SIZE": "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")

	assert.Equal(t, 8080, cfg.Server.Port, "Default server port should be 8080")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")

	assert.Equal(t, "gemini-2.0-flash", cfg.Extraction.ModelName)
	assert.Equal(t, 3, cfg.Extraction.MaxRetries)

	assert.Equal(t, 512, cfg.ResultCache.MaxEntries)
	assert.Equal(t, int64(64<<20), cfg.ResultCache.MaxMemoryBytes)
	assert.Equal(t, 1800, cfg.ResultCache.DefaultTTLSeconds)

	assert.Equal(t, 256, cfg.TextCache.MaxEntries)
	assert.Equal(t, int64(128<<20), cfg.TextCache.MaxMemoryBytes)

	assert.Equal(t, 5, cfg.Queue.MaxBatchSize)
	assert.Equal(t, 2000, cfg.Queue.MaxWaitTimeMs)
	assert.True(t, cfg.Queue.ParallelismEnabled)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
	assert.Equal(t, 30, cfg.Queue.JobTimeoutSeconds)

	assert.Equal(t, int64(768<<20), cfg.Memory.ThresholdBytes)
	assert.Equal(t, 30, cfg.Memory.CheckIntervalSeconds)
	assert.Equal(t, 0.25, cfg.Memory.ShrinkFraction)
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"VATLINE_SERVER_PORT":                    "9090",
		"VATLINE_SERVER_LOG_LEVEL":               "debug",
		"VATLINE_EXTRACTION_GEMINI_API_KEY":      "test-api-key",
		"VATLINE_EXTRACTION_MODEL_NAME":          "gemini-2.5-pro",
		"VATLINE_EXTRACTION_MAX_RETRIES":         "5",
		"VATLINE_RESULT_CACHE_MAX_ENTRIES":       "64",
		"VATLINE_TEXT_CACHE_DEFAULT_TTL_SECONDS": "60",
		"VATLINE_QUEUE_MAX_BATCH_SIZE":           "8",
		"VATLINE_QUEUE_PARALLELISM_ENABLED":      "false",
		"VATLINE_QUEUE_WORKER_COUNT":             "2",
		"VATLINE_MEMORY_THRESHOLD_BYTES":         "1048576",
		"VATLINE_MEMORY_SHRINK_FRACTION":         "0.5",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg, "Load() should return a non-nil config")

	assert.Equal(t, 9090, cfg.Server.Port, "Server port should be loaded from environment variables")
	assert.Equal(t, "debug", cfg.Server.LogLevel, "Log level should be loaded from environment variables")
	assert.Equal(t, "test-api-key", cfg.Extraction.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Extraction.ModelName)
	assert.Equal(t, 5, cfg.Extraction.MaxRetries)
	assert.Equal(t, 64, cfg.ResultCache.MaxEntries)
	assert.Equal(t, 60, cfg.TextCache.DefaultTTLSeconds)
	assert.Equal(t, 8, cfg.Queue.MaxBatchSize)
	assert.False(t, cfg.Queue.ParallelismEnabled)
	assert.Equal(t, 2, cfg.Queue.WorkerCount)
	assert.Equal(t, int64(1048576), cfg.Memory.ThresholdBytes)
	assert.Equal(t, 0.5, cfg.Memory.ShrinkFraction)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name           string
		envVars        map[string]string
		expectError    bool
		errorSubstring string
	}{
		{
			name: "Missing API key",
			envVars: map[string]string{
				"VATLINE_SERVER_PORT":               "9090",
				"VATLINE_SERVER_LOG_LEVEL":          "debug",
				"VATLINE_EXTRACTION_GEMINI_API_KEY": "",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid port number",
			envVars: map[string]string{
				"VATLINE_SERVER_PORT":               "999999", // Port out of range
				"VATLINE_EXTRACTION_GEMINI_API_KEY": "test-api-key",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Invalid log level",
			envVars: map[string]string{
				"VATLINE_SERVER_PORT":               "9090",
				"VATLINE_SERVER_LOG_LEVEL":          "verbose", // Not a known level
				"VATLINE_EXTRACTION_GEMINI_API_KEY": "test-api-key",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Zero worker count",
			envVars: map[string]string{
				"VATLINE_EXTRACTION_GEMINI_API_KEY": "test-api-key",
				"VATLINE_QUEUE_WORKER_COUNT":        "0",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Shrink fraction above one",
			envVars: map[string]string{
				"VATLINE_EXTRACTION_GEMINI_API_KEY": "test-api-key",
				"VATLINE_MEMORY_SHRINK_FRACTION":    "1.5",
			},
			expectError:    true,
			errorSubstring: "validation failed",
		},
		{
			name: "Valid configuration",
			envVars: map[string]string{
				"VATLINE_EXTRACTION_GEMINI_API_KEY": "test-api-key",
			},
			expectError: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load()

			if tc.expectError {
				assert.Error(t, err, "Load() should return an error with invalid configuration")
				if err != nil {
					assert.Contains(t, err.Error(), tc.errorSubstring, "Error message should contain expected substring")
				}
				assert.Nil(t, cfg, "Config should be nil when an error occurs")
			} else {
				assert.NoError(t, err, "Load() should not return an error with valid configuration")
				assert.NotNil(t, cfg, "Load() should return a non-nil config")
			}
		})
	}
}
