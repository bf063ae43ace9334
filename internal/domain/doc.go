// Package domain contains the core business entities and value objects of
// the application: the documents submitted for VAT extraction and the
// structured results the extraction engine produces. It represents the
// heart of the system, independent of any specific infrastructure or
// delivery mechanism.
package domain
