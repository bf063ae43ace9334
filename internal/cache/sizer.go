package cache

import (
	"encoding/json"
	"fmt"
)

// DefaultSizeEstimate is charged against the memory budget when a sizer
// fails, so a write never fails on sizing alone.
const DefaultSizeEstimate = 1024

// Sizer estimates the in-memory footprint of a value in bytes.
type Sizer[V any] func(value V) (int64, error)

// JSONSizer sizes values by the length of their JSON encoding. It is the
// default sizer for structured values.
func JSONSizer[V any]() Sizer[V] {
	return func(value V) (int64, error) {
		data, err := json.Marshal(value)
		if err != nil {
			return 0, fmt.Errorf("failed to size value: %w", err)
		}
		return int64(len(data)), nil
	}
}

// StringSizer sizes string values by their exact byte length.
func StringSizer() Sizer[string] {
	return func(value string) (int64, error) {
		return int64(len(value)), nil
	}
}

// BytesSizer sizes byte slices by their exact length.
func BytesSizer() Sizer[[]byte] {
	return func(value []byte) (int64, error) {
		return int64(len(value)), nil
	}
}

// FixedSizer charges every value the same size. Useful for tests and for
// values with a known uniform footprint.
func FixedSizer[V any](size int64) Sizer[V] {
	return func(V) (int64, error) {
		return size, nil
	}
}
