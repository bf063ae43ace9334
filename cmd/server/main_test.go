package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeApp(t *testing.T) {
	t.Setenv("VATLINE_EXTRACTION_GEMINI_API_KEY", "test-api-key")
	t.Setenv("VATLINE_SERVER_LOG_LEVEL", "error")

	cfg, appLogger, err := initializeApp()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.NotNil(t, appLogger)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "error", cfg.Server.LogLevel)
	assert.Equal(t, "test-api-key", cfg.Extraction.GeminiAPIKey)
}

func TestInitializeAppMissingAPIKey(t *testing.T) {
	t.Setenv("VATLINE_EXTRACTION_GEMINI_API_KEY", "")

	_, _, err := initializeApp()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
}
