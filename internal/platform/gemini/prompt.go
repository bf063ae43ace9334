package gemini

import (
	"fmt"
	"os"
	"text/template"

	"github.com/vatline/vatline-api/internal/extraction"
)

// defaultPromptTemplate is the built-in extraction prompt. A different
// template can be supplied through ExtractionConfig.PromptTemplatePath.
const defaultPromptTemplate = `You are a VAT accounting assistant. Analyze the attached document ({{.FileName}}, {{.MimeType}}, submitted as {{.Category}}) and extract its VAT-relevant data.

Respond with a single JSON object and no surrounding prose, using this schema:
{
  "document_type": "sales_invoice|purchase_invoice|receipt|bank_statement|other",
  "sales_amounts": [{"net": 0.0, "vat": 0.0, "gross": 0.0, "rate": 0.0, "currency": "PLN"}],
  "purchase_amounts": [{"net": 0.0, "vat": 0.0, "gross": 0.0, "rate": 0.0, "currency": "PLN"}],
  "confidence": 0.0,
  "text_lines": ["each line of text recognized in the document"],
  "compliance_flags": ["notes about missing or inconsistent fields"]
}

Rules:
- Amounts are numbers, not strings, in the document's currency.
- "rate" is the VAT rate as a fraction, for example 0.23 for 23%.
- "confidence" is your overall extraction confidence between 0 and 1.
- "text_lines" must preserve the reading order of the document.
- Leave arrays empty rather than inventing data.`

// loadPromptTemplate parses the extraction prompt template. When path is
// empty the built-in template is used; otherwise the file at path replaces
// it.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate

	if path != "" {
		fileContent, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				extraction.ErrInvalidConfig, path, err)
		}
		content = string(fileContent)
	}

	tmpl, err := template.New("extraction").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			extraction.ErrInvalidConfig, err)
	}

	return tmpl, nil
}
