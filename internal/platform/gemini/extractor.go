package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/vatline/vatline-api/internal/config"
	"github.com/vatline/vatline-api/internal/domain"
	"github.com/vatline/vatline-api/internal/extraction"
)

// GeminiExtractor implements the extraction.Extractor interface using
// Google's Gemini API to extract VAT data from documents.
type GeminiExtractor struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains extraction-specific configuration
	config config.ExtractionConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// NewGeminiExtractor creates a new instance of GeminiExtractor with the
// provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: Extraction configuration containing the API key, model name,
//     retry settings, and an optional prompt template override
//
// Returns:
//   - A properly initialized GeminiExtractor or an error if initialization fails
func NewGeminiExtractor(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.ExtractionConfig,
) (*GeminiExtractor, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	// Validate configuration
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", extraction.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", extraction.ErrInvalidConfig)
	}

	promptTemplate, err := loadPromptTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			extraction.ErrInvalidConfig, err)
	}

	return &GeminiExtractor{
		logger:         logger.With("component", "gemini_extractor"),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// ExtractDocument analyzes the document with the Gemini API and returns the
// structured VAT data found in it.
func (g *GeminiExtractor) ExtractDocument(
	ctx context.Context,
	doc domain.Document,
) (*domain.ExtractionResult, error) {
	if len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", extraction.ErrExtractionFailed, err)
	}

	prompt, err := g.createPrompt(ctx, doc)
	if err != nil {
		return nil, err
	}

	response, err := g.callGeminiWithRetry(ctx, prompt, doc)
	if err != nil {
		return nil, err
	}

	return g.parseResponse(ctx, response, doc)
}

// createPrompt generates a prompt string from the template with the
// document's metadata.
func (g *GeminiExtractor) createPrompt(ctx context.Context, doc domain.Document) (string, error) {
	data := promptData{
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		Category: string(doc.Category),
	}

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	g.logger.DebugContext(ctx, "Prompt generated from template",
		"file_name", doc.FileName,
		"prompt_length", len(prompt))

	return prompt, nil
}

// callGeminiWithRetry makes a call to the Gemini API with exponential
// backoff retry logic.
//
// It attempts the call up to MaxRetries+1 times, backing off with jitter
// between retries for transient errors. Permanent errors (like content
// blocked by safety filters or an unparseable response) are returned
// immediately without retrying.
func (g *GeminiExtractor) callGeminiWithRetry(
	ctx context.Context,
	prompt string,
	doc domain.Document,
) (*ResponseSchema, error) {
	maxRetries := g.config.MaxRetries
	baseDelayMs := g.config.BaseRetryDelayMs
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Validate retry configuration
	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "Invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelayMs < 1 {
		g.logger.WarnContext(ctx, "Invalid retry delay value, using default", "base_delay_ms", 500)
		baseDelayMs = 500
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(doc.Content, doc.MimeType),
		}, genai.RoleUser),
	}

	generateConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1 // For logging (1-based)
		g.logger.InfoContext(ctx, "Making Gemini API call",
			"file_name", doc.FileName,
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		response, isTransient, err := g.generateOnce(ctx, contents, generateConfig)
		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return response, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if !isTransient {
			g.logger.WarnContext(ctx, "Permanent error occurred, not retrying", "error", err)
			return nil, err
		}

		if attempt >= maxRetries {
			g.logger.WarnContext(ctx, "Maximum retry attempts reached", "max_retries", maxRetries)
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				extraction.ErrTransientFailure, maxRetries, err)
		}

		// Exponential backoff with jitter:
		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffMs := float64(baseDelayMs) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffMs*jitterFactor) * time.Millisecond

		g.logger.InfoContext(ctx, "Retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			g.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return nil, fmt.Errorf("%w: %v", extraction.ErrTransientFailure, ctx.Err())
		}
	}
}

// generateOnce performs a single API call and classifies any failure as
// transient or permanent.
func (g *GeminiExtractor) generateOnce(
	ctx context.Context,
	contents []*genai.Content,
	generateConfig *genai.GenerateContentConfig,
) (*ResponseSchema, bool, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, generateConfig)
	if err != nil {
		// Network and server-side errors are assumed transient.
		return nil, true, fmt.Errorf("%w: %v", extraction.ErrTransientFailure, err)
	}

	parsed, err := decodeResponse(resp)
	if err != nil {
		return nil, false, err
	}
	return parsed, false, nil
}

// decodeResponse extracts the JSON payload from a raw API response and
// unmarshals it into a ResponseSchema. All failures here are permanent.
func decodeResponse(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", extraction.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", extraction.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", extraction.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", extraction.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: no text in response", extraction.ErrInvalidResponse)
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			extraction.ErrInvalidResponse, err)
	}

	return &parsed, nil
}

// parseResponse converts a ResponseSchema from the Gemini API into a
// validated domain.ExtractionResult.
func (g *GeminiExtractor) parseResponse(
	ctx context.Context,
	response *ResponseSchema,
	doc domain.Document,
) (*domain.ExtractionResult, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: response is nil", extraction.ErrInvalidResponse)
	}
	if response.DocumentType == "" {
		return nil, fmt.Errorf("%w: missing document type", extraction.ErrInvalidResponse)
	}

	result := &domain.ExtractionResult{
		DocumentType:    response.DocumentType,
		SalesAmounts:    toVATAmounts(response.SalesAmounts),
		PurchaseAmounts: toVATAmounts(response.PurchaseAmounts),
		Confidence:      response.Confidence,
		TextLines:       response.TextLines,
		ComplianceFlags: response.ComplianceFlags,
		ModelName:       g.model,
		ExtractedAt:     time.Now().UTC(),
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", extraction.ErrInvalidResponse, err)
	}

	g.logger.InfoContext(ctx, "Parsed extraction response",
		"file_name", doc.FileName,
		"document_type", result.DocumentType,
		"confidence", result.Confidence,
		"text_line_count", len(result.TextLines),
		"sales_amount_count", len(result.SalesAmounts),
		"purchase_amount_count", len(result.PurchaseAmounts))

	return result, nil
}

func toVATAmounts(amounts []AmountSchema) []domain.VATAmount {
	if len(amounts) == 0 {
		return nil
	}
	out := make([]domain.VATAmount, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, domain.VATAmount{
			Net:      a.Net,
			VAT:      a.VAT,
			Gross:    a.Gross,
			Rate:     a.Rate,
			Currency: a.Currency,
		})
	}
	return out
}
