package doccache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vatline/vatline-api/internal/domain"
)

const (
	resultKeyPrefix = "vat:"
	textKeyPrefix   = "txt:"

	// keyHashLen is the number of hex digest characters kept in a key.
	// 32 characters of a SHA-256 digest keep collisions negligible while
	// keeping keys short enough to log.
	keyHashLen = 32
)

// ResultKey returns the extraction result cache key for a document.
func ResultKey(doc domain.Document) string {
	return contentKey(resultKeyPrefix, doc)
}

// TextKey returns the raw text cache key for a document.
func TextKey(doc domain.Document) string {
	return contentKey(textKeyPrefix, doc)
}

func contentKey(prefix string, doc domain.Document) string {
	h := sha256.New()
	h.Write(doc.Content)
	// NUL separators keep field boundaries unambiguous in the digest input.
	h.Write([]byte{0})
	h.Write([]byte(doc.MimeType))
	h.Write([]byte{0})
	h.Write([]byte(doc.FileName))

	digest := hex.EncodeToString(h.Sum(nil))

	return prefix + digest[:keyHashLen]
}
