package utils

// PatternMatch represents a detected sensitive-content match with compliance metadata
type PatternMatch struct {
	// Match location information
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
	Line       int `json:"line"`

	// Masked evidence; the raw matched value is never stored
	Evidence string `json:"evidence"`

	// Classification information
	Type        string `json:"type"`
	Description string `json:"description"`

	// SHA-256 of the raw value, for correlating the same secret across files
	Fingerprint string `json:"fingerprint"`
}
