// Package extraction provides interfaces and error types for extracting
// structured VAT data from documents via external AI/LLM services. It
// abstracts the details of LLM API integration (Gemini), allowing the
// processing queue to run extractions without coupling to a specific
// external provider.
package extraction
