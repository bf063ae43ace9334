package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyDocument is returned when a document has no content bytes.
	ErrEmptyDocument = errors.New("document content cannot be empty")
)
