package domain

import (
	"errors"
	"strings"
	"time"
)

// Common validation errors for ExtractionResult
var (
	ErrEmptyDocumentType  = errors.New("document type cannot be empty")
	ErrInvalidConfidence  = errors.New("confidence must be between 0 and 1")
	ErrNegativeVATAmounts = errors.New("VAT amount values cannot be negative")
)

// VATAmount is one extracted VAT line: the net, tax, and gross figures for
// a single rate.
type VATAmount struct {
	Net      float64 `json:"net"`
	VAT      float64 `json:"vat"`
	Gross    float64 `json:"gross"`
	Rate     float64 `json:"rate"`
	Currency string  `json:"currency"`
}

// ExtractionResult is the structured output of the extraction engine for a
// single document. The performance layer stores and transports it opaquely;
// interpreting the VAT semantics belongs to callers.
type ExtractionResult struct {
	DocumentType    string      `json:"document_type"`
	SalesAmounts    []VATAmount `json:"sales_amounts,omitempty"`
	PurchaseAmounts []VATAmount `json:"purchase_amounts,omitempty"`
	Confidence      float64     `json:"confidence"`
	TextLines       []string    `json:"text_lines,omitempty"`
	ComplianceFlags []string    `json:"compliance_flags,omitempty"`
	ModelName       string      `json:"model_name,omitempty"`
	ExtractedAt     time.Time   `json:"extracted_at"`
}

// Validate checks if the ExtractionResult has valid data.
// Returns an error if any field fails validation.
func (r *ExtractionResult) Validate() error {
	if r.DocumentType == "" {
		return ErrEmptyDocumentType
	}

	if r.Confidence < 0 || r.Confidence > 1 {
		return ErrInvalidConfidence
	}

	for _, amount := range r.SalesAmounts {
		if amount.Net < 0 || amount.VAT < 0 || amount.Gross < 0 {
			return ErrNegativeVATAmounts
		}
	}
	for _, amount := range r.PurchaseAmounts {
		if amount.Net < 0 || amount.VAT < 0 || amount.Gross < 0 {
			return ErrNegativeVATAmounts
		}
	}

	return nil
}

// RawText returns the extracted text lines joined into a single block, the
// form stored in the raw text cache.
func (r *ExtractionResult) RawText() string {
	return strings.Join(r.TextLines, "\n")
}
