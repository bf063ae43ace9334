package shared

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx), "a fresh context carries no trace ID")

	ctxWithTrace := SetTraceID(ctx)

	traceID := GetTraceID(ctxWithTrace)
	assert.NotEmpty(t, traceID)
	assert.Len(t, traceID, TraceIDLength*2, "trace ID should be hex of TraceIDLength bytes")

	assert.Empty(t, GetTraceID(ctx), "the original context must remain unchanged")
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // not a string

	assert.Empty(t, GetTraceID(ctx), "non-string context values are ignored")
}

func TestGenerateTraceID(t *testing.T) {
	traceID := generateTraceID()
	require.Len(t, traceID, TraceIDLength*2)

	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err, "trace ID must be valid hex")

	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		assert.False(t, seen[id], "trace IDs must be unique")
		seen[id] = true
	}
}

// failingReader simulates an exhausted entropy source.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated rand failure")
}

// readTraceID mirrors generateTraceID's read-or-fallback decision so the
// fallback path can be exercised without replacing crypto/rand's reader.
func readTraceID(reader io.Reader) string {
	b := make([]byte, TraceIDLength)
	n, err := reader.Read(b)
	if err != nil || n != TraceIDLength {
		return generateFallbackTraceID()
	}
	return hex.EncodeToString(b)
}

func TestGenerateTraceIDFallback(t *testing.T) {
	traceID := readTraceID(failingReader{})

	require.Len(t, traceID, TraceIDLength*2, "fallback ID keeps the normal length")
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)
}

func TestFallbackTraceIDUniqueness(t *testing.T) {
	const iterations = 50
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := generateFallbackTraceID()
		_, err := hex.DecodeString(id)
		require.NoError(t, err)

		// The fallback is time-derived, so consecutive calls need the clock
		// to move to stay distinct.
		time.Sleep(time.Millisecond)

		assert.False(t, seen[id], "fallback trace IDs should not repeat")
		seen[id] = true
	}
}
