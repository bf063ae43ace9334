// Package gemini provides an implementation of the extraction.Extractor
// interface that uses Google's Gemini API to extract structured VAT data
// from documents.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service. It translates between the application's domain models and the
// Gemini API without exposing the details of the external service to the
// core application.
//
// Key components:
//
// 1. GeminiExtractor:
//   - Implements the extraction.Extractor interface
//   - Sends the document bytes and an instruction prompt to the Gemini API
//   - Processes structured JSON responses into domain models
//
// 2. Prompt Management:
//   - Ships a built-in extraction prompt template
//   - Optionally loads an overriding template from a configured file
//   - Substitutes document metadata into the template
//
// 3. Response Processing:
//   - Parses structured JSON responses from the API
//   - Validates responses against the expected schema
//   - Converts API responses to domain ExtractionResult objects
//
// 4. Error Handling:
//   - Implements retry logic with exponential backoff for transient errors
//   - Categorizes and translates API errors to application-specific errors
//   - Handles content filtering and safety measures
package gemini
