package domain

import "errors"

// DocumentCategory classifies the business origin of a submitted document.
type DocumentCategory string

// Possible document category values
const (
	CategorySalesInvoice    DocumentCategory = "sales_invoice"
	CategoryPurchaseInvoice DocumentCategory = "purchase_invoice"
	CategoryReceipt         DocumentCategory = "receipt"
	CategoryBankStatement   DocumentCategory = "bank_statement"
	CategoryOther           DocumentCategory = "other"
)

// Common validation errors for Document
var (
	ErrEmptyDocumentContent  = errors.New("document content cannot be empty")
	ErrEmptyDocumentMimeType = errors.New("document MIME type cannot be empty")
	ErrInvalidCategory       = errors.New("invalid document category")
)

// Document is a single uploaded file submitted for VAT extraction. It is
// the unit of work handed to the processing queue and the input to the
// content-derived cache keys, so its fields are treated as immutable once
// submitted.
type Document struct {
	Content  []byte           `json:"content"`
	MimeType string           `json:"mime_type"`
	FileName string           `json:"file_name"`
	Category DocumentCategory `json:"category"`
}

// NewDocument creates a Document from an uploaded file. An empty category
// defaults to CategoryOther. Returns an error if validation fails.
func NewDocument(
	content []byte,
	mimeType string,
	fileName string,
	category DocumentCategory,
) (Document, error) {
	if category == "" {
		category = CategoryOther
	}

	doc := Document{
		Content:  content,
		MimeType: mimeType,
		FileName: fileName,
		Category: category,
	}

	if err := doc.Validate(); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// Validate checks if the Document has valid data.
// Returns an error if any field fails validation.
func (d Document) Validate() error {
	if len(d.Content) == 0 {
		return ErrEmptyDocumentContent
	}

	if d.MimeType == "" {
		return ErrEmptyDocumentMimeType
	}

	if !isValidCategory(d.Category) {
		return ErrInvalidCategory
	}

	return nil
}

// isValidCategory checks if the given category is a valid DocumentCategory.
func isValidCategory(category DocumentCategory) bool {
	switch category {
	case CategorySalesInvoice, CategoryPurchaseInvoice, CategoryReceipt,
		CategoryBankStatement, CategoryOther:
		return true
	default:
		return false
	}
}
