package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintSize is the length of a fingerprint in hex characters.
const FingerprintSize = sha256.Size * 2

// Fingerprint returns the SHA-256 hex digest of data.
// It is the only change-detection mechanism for documents and chunks.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintString fingerprints the UTF-8 bytes of s.
func FingerprintString(s string) string {
	return Fingerprint([]byte(s))
}
