// Package doccache wires the generic cache to VAT document workloads.
//
// It derives deterministic content-addressed keys for documents and
// provides preconfigured caches for extraction results and raw document
// text. Two documents with identical content, MIME type, and file name
// always map to the same keys, which lets the processing queue detect
// duplicate submissions before any extraction work is scheduled.
package doccache
