package extraction

import (
	"context"

	"github.com/vatline/vatline-api/internal/domain"
)

// Extractor defines the interface for extracting structured VAT data from
// documents. This interface serves as a boundary between the processing
// queue and external AI/LLM services, following the hexagonal architecture
// pattern.
type Extractor interface {
	// ExtractDocument analyzes the provided document and returns the
	// structured VAT data found in it.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - doc: The document to analyze, including its raw content and MIME type
	//
	// Returns:
	//   - An ExtractionResult holding document type, VAT amounts, confidence,
	//     and the raw text recognized in the document
	//   - An error if the extraction fails for any reason (see errors.go for
	//     specific types)
	ExtractDocument(ctx context.Context, doc domain.Document) (*domain.ExtractionResult, error)
}
