package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a SHA-256 hash of the value for correlating the same
// secret across files without storing the secret itself
func Fingerprint(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:])
}

// MaskValue masks a matched sensitive value. Values of 8 characters or
// fewer are fully replaced; longer values keep the first and last two
// characters with asterisks in between.
func MaskValue(value string) string {
	if len(value) == 0 {
		return value
	}

	if len(value) <= 8 {
		return "****"
	}

	maskLen := len(value) - 4
	return value[:2] + strings.Repeat("*", maskLen) + value[len(value)-2:]
}

// maskInContext replaces every occurrence of the raw value inside a context
// snippet with its masked form
func maskInContext(context, value string) string {
	if value == "" {
		return context
	}
	return strings.ReplaceAll(context, value, MaskValue(value))
}
