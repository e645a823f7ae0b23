package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_KnownDigest(t *testing.T) {
	// SHA-256 of the empty string.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Fingerprint(nil))
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := FingerprintString("The on-call rotation changes weekly.")
	b := FingerprintString("The on-call rotation changes weekly.")
	c := FingerprintString("The on-call rotation changes daily.")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, FingerprintSize)
}
