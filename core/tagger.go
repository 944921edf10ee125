package core

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/complyqa/riskscreen-go/utils"
)

// FileAssessment is the classification record produced for one scanned file.
// It is immutable once produced; aggregation only reads it.
type FileAssessment struct {
	Path         string       `json:"path"`
	FileCategory FileCategory `json:"file_category"`
	MimeType     string       `json:"mime_type"`

	RiskLevel RiskLevel `json:"risk_level"`
	RiskScore float64   `json:"risk_score"`

	ComplianceTags   []string `json:"compliance_tags"`
	SecurityConcerns []string `json:"security_concerns"`
	PrivacyConcerns  []string `json:"privacy_concerns"`

	// Per-match evidence for security concerns, masked and fingerprinted
	SecurityMatches []utils.PatternMatch `json:"security_matches,omitempty"`

	DataClassification DataClassification `json:"data_classification"`

	NeedsAudit  bool `json:"needs_audit"`
	NeedsReview bool `json:"needs_review"`

	SizeMB    float64 `json:"size_mb"`
	LineCount int     `json:"line_count"`
}

// RiskTagger classifies individual files into FileAssessments. Aside from
// reading file content it is side-effect free, so one tagger is safe for
// concurrent use across files.
type RiskTagger struct {
	customPatterns []SecurityPattern
}

// NewRiskTagger creates a tagger with the built-in pattern tables
func NewRiskTagger() *RiskTagger {
	return &RiskTagger{}
}

// NewRiskTaggerWithPatterns creates a tagger with additional custom security
// patterns layered on top of the built-in tables
func NewRiskTaggerWithPatterns(custom map[string]string) (*RiskTagger, error) {
	tagger := &RiskTagger{}
	for name, pattern := range custom {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern '%s': %w", name, err)
		}
		tagger.customPatterns = append(tagger.customPatterns, SecurityPattern{
			Type:        name,
			Description: fmt.Sprintf("Custom pattern: %s", name),
			Regex:       re,
		})
	}
	return tagger, nil
}

// GetFileCategory derives the file category from the extension alone
func (t *RiskTagger) GetFileCategory(path string) FileCategory {
	ext := strings.ToLower(filepath.Ext(path))
	if category, ok := extensionCategories[ext]; ok {
		return category
	}
	return CategoryUnknown
}

// IsEligible reports whether a file's extension is on the scan allow-list
func (t *RiskTagger) IsEligible(path string) bool {
	_, ok := extensionCategories[strings.ToLower(filepath.Ext(path))]
	return ok
}

// GuessMimeType returns a best-effort MIME type for the file, falling back
// to application/octet-stream for anything unrecognized
func (t *RiskTagger) GuessMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	if mt, ok := mimeFallbacks[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// ExtractTextContent returns the file's content for pattern scanning.
// Text-like files are read fully as UTF-8 with invalid bytes replaced.
// PDF and office formats return a placeholder string; real extraction is
// intentionally not performed for them, so pattern detection on those
// formats is a no-op. Read errors also degrade to a placeholder rather
// than an error return.
func (t *RiskTagger) ExtractTextContent(path string) string {
	content, _ := t.extractContent(path)
	return content
}

// extractContent returns the content and whether it is real text (as
// opposed to a placeholder)
func (t *RiskTagger) extractContent(path string) (string, bool) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	category := t.GetFileCategory(path)

	switch {
	case category == CategoryPDF:
		return fmt.Sprintf("[PDF file: %s]", name), false
	case category == CategoryOffice:
		return fmt.Sprintf("[Office file: %s]", name), false
	case textExtractable[category] && !binaryDataExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Sprintf("[Error reading file: %s]", name), false
		}
		return strings.ToValidUTF8(string(data), "�"), true
	default:
		return fmt.Sprintf("[Binary file: %s]", name), false
	}
}

// AssessFileRisk classifies one file. It never returns an error: unreadable
// or missing files degrade to placeholder content and a zero size, and an
// assessment is still produced.
func (t *RiskTagger) AssessFileRisk(path string) FileAssessment {
	var sizeMB float64
	if info, err := os.Stat(path); err == nil {
		sizeMB = float64(info.Size()) / (1024 * 1024)
	}

	content, isText := t.extractContent(path)

	lineCount := 0
	if isText && content != "" {
		lineCount = strings.Count(content, "\n") + 1
	}

	category := t.GetFileCategory(path)
	riskLevel := t.DetectRiskLevel(content)
	securityConcerns, securityMatches := t.DetectSecurityConcerns(content)
	privacyConcerns := t.DetectPrivacyConcerns(content)

	return FileAssessment{
		Path:               path,
		FileCategory:       category,
		MimeType:           t.GuessMimeType(path),
		RiskLevel:          riskLevel,
		RiskScore:          t.CalculateRiskScore(riskLevel, category, sizeMB),
		ComplianceTags:     t.ExtractComplianceRequirements(content),
		SecurityConcerns:   securityConcerns,
		PrivacyConcerns:    privacyConcerns,
		SecurityMatches:    securityMatches,
		DataClassification: t.ClassifyData(content),
		NeedsAudit:         riskLevel == RiskHigh || len(securityConcerns) > 0,
		NeedsReview:        riskLevel == RiskHigh || riskLevel == RiskMedium || len(privacyConcerns) > 0,
		SizeMB:             sizeMB,
		LineCount:          lineCount,
	}
}

// DetectRiskLevel resolves the risk level for content. Explicit in-content
// tags are tried first in severity order; without one, a keyword heuristic
// applies (security keywords before privacy keywords); otherwise UNTAGGED.
func (t *RiskTagger) DetectRiskLevel(content string) RiskLevel {
	for _, tag := range explicitRiskTags {
		if tag.Regex.MatchString(content) {
			return tag.Level
		}
	}

	lower := strings.ToLower(content)
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			return RiskHigh
		}
	}
	for _, kw := range privacyKeywords {
		if strings.Contains(lower, kw) {
			return RiskMedium
		}
	}

	return RiskUntagged
}

// CalculateRiskScore combines risk level, file category and size into a
// normalized score: base(level) * categoryMultiplier * sizeFactor, clamped
// to [0, 1]. The size factor is min(1.2, 1.0 + sizeMB/100).
func (t *RiskTagger) CalculateRiskScore(level RiskLevel, category FileCategory, sizeMB float64) float64 {
	base := riskBaseScores[level]

	multiplier, ok := categoryMultipliers[category]
	if !ok {
		multiplier = 1.0
	}

	sizeFactor := 1.0 + sizeMB/100
	if sizeFactor > 1.2 {
		sizeFactor = 1.2
	}

	score := base * multiplier * sizeFactor
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}

// ExtractComplianceRequirements returns the deduplicated union of explicit
// @compliance: tags and framework names literally present in content.
// Tags are normalized to upper case.
func (t *RiskTagger) ExtractComplianceRequirements(content string) []string {
	seen := make(map[string]bool)
	var tags []string

	for _, m := range complianceTagPattern.FindAllStringSubmatch(content, -1) {
		tag := strings.ToUpper(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	upper := strings.ToUpper(content)
	for _, framework := range complianceFrameworks {
		if strings.Contains(upper, framework) && !seen[framework] {
			seen[framework] = true
			tags = append(tags, framework)
		}
	}

	return tags
}

// DetectSecurityConcerns scans content against the security pattern table
// (plus any custom patterns) and returns one concern per matched pattern,
// along with masked evidence records for each pattern's first match.
func (t *RiskTagger) DetectSecurityConcerns(content string) ([]string, []utils.PatternMatch) {
	var concerns []string
	var matches []utils.PatternMatch

	patterns := securityPatterns
	if len(t.customPatterns) > 0 {
		patterns = append(append([]SecurityPattern{}, securityPatterns...), t.customPatterns...)
	}

	for _, pattern := range patterns {
		loc := pattern.Regex.FindStringIndex(content)
		if loc == nil {
			continue
		}

		concerns = append(concerns, pattern.Description)

		value := content[loc[0]:loc[1]]
		contextStart := max(0, loc[0]-20)
		contextEnd := min(len(content), loc[1]+20)

		matches = append(matches, utils.PatternMatch{
			StartIndex:  loc[0],
			EndIndex:    loc[1],
			Line:        strings.Count(content[:loc[0]], "\n") + 1,
			Evidence:    maskInContext(content[contextStart:contextEnd], value),
			Type:        pattern.Type,
			Description: pattern.Description,
			Fingerprint: Fingerprint(value),
		})
	}

	return concerns, matches
}

// DetectPrivacyConcerns scans content against the privacy pattern table and
// returns one concern per matched pattern
func (t *RiskTagger) DetectPrivacyConcerns(content string) []string {
	var concerns []string
	for _, pattern := range privacyPatterns {
		if pattern.Regex.MatchString(content) {
			concerns = append(concerns, pattern.Description)
		}
	}
	return concerns
}

// ClassifyData assigns the content a sensitivity tier. Tiers are checked in
// priority order RESTRICTED > CONFIDENTIAL > INTERNAL; content matching no
// tier classifies as PUBLIC.
func (t *RiskTagger) ClassifyData(content string) DataClassification {
	lower := strings.ToLower(content)
	for _, tier := range classificationTiers {
		for _, kw := range tier.Keywords {
			if strings.Contains(lower, kw) {
				return tier.Classification
			}
		}
	}
	return ClassificationPublic
}

// ScanDirectory recursively assesses every eligible file under dir and
// accumulates the results into a DirectoryResult. A per-file failure is
// recorded and skipped; it never aborts the directory. Retry and timeout
// handling belong to the ScreeningService, not here.
func (t *RiskTagger) ScanDirectory(dir string) (*DirectoryResult, error) {
	result := NewDirectoryResult(filepath.Base(dir))

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("walk %s: %v", path, err))
			return nil
		}
		if d.IsDir() || !t.IsEligible(path) {
			return nil
		}
		result.Add(t.AssessFileRisk(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	return result, nil
}
