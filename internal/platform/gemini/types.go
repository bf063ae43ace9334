package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	FileName string
	MimeType string
	Category string
}

// ResponseSchema represents the expected structure of an extraction
// response from the Gemini API
type ResponseSchema struct {
	// DocumentType is the classified type of the document
	DocumentType string `json:"document_type"`

	// SalesAmounts are the VAT amounts owed on sales found in the document
	SalesAmounts []AmountSchema `json:"sales_amounts,omitempty"`

	// PurchaseAmounts are the deductible VAT amounts found in the document
	PurchaseAmounts []AmountSchema `json:"purchase_amounts,omitempty"`

	// Confidence is the model's overall extraction confidence in [0, 1]
	Confidence float64 `json:"confidence"`

	// TextLines are the lines of text recognized in the document, in
	// reading order
	TextLines []string `json:"text_lines,omitempty"`

	// ComplianceFlags are notes about missing or inconsistent fields
	ComplianceFlags []string `json:"compliance_flags,omitempty"`
}

// AmountSchema represents a single VAT amount group in the API response
type AmountSchema struct {
	// Net is the taxable base amount
	Net float64 `json:"net"`

	// VAT is the tax amount
	VAT float64 `json:"vat"`

	// Gross is the total including tax
	Gross float64 `json:"gross"`

	// Rate is the VAT rate as a fraction, e.g. 0.23 for 23%
	Rate float64 `json:"rate"`

	// Currency is the ISO currency code of the amounts
	Currency string `json:"currency"`
}
