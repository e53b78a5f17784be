// Package hash provides deterministic content fingerprinting for claims,
// questions, and file bytes. The hex-encoded SHA-256 keys double as dedup and
// idempotency tokens across the cache tables, so a cryptographic digest is
// required rather than a fast non-cryptographic hash.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize trims surrounding whitespace and case-folds text so that
// trivially different renderings of the same claim share one cache key.
// Normalize is idempotent.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Text returns the content hash of normalized text.
func Text(s string) string {
	return Bytes([]byte(Normalize(s)))
}

// Bytes returns the content hash of raw bytes (file uploads).
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Pair returns the combined key for a (claim, question) pair, used by the
// report cache.
func Pair(claim, question string) string {
	return Bytes([]byte(Normalize(claim) + "||" + Normalize(question)))
}
