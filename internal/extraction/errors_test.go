package extraction_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vatline/vatline-api/internal/extraction"
)

// The queue and the Gemini adapter classify failures by unwrapping to these
// sentinels, so wrapped errors must stay matchable with errors.Is.
func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		extraction.ErrExtractionFailed,
		extraction.ErrInvalidResponse,
		extraction.ErrContentBlocked,
		extraction.ErrTransientFailure,
		extraction.ErrInvalidConfig,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("attempt 2: %w", sentinel)
		assert.True(t, errors.Is(wrapped, sentinel), "wrapped %v should match its sentinel", sentinel)
	}

	blocked := fmt.Errorf("gemini: %w", extraction.ErrContentBlocked)
	assert.False(t, errors.Is(blocked, extraction.ErrTransientFailure),
		"content blocked must not be classified as transient")
}
