package core

import "regexp"

// FileCategory classifies a file by its extension
type FileCategory string

const (
	// CategoryCode represents source code files
	CategoryCode FileCategory = "code"

	// CategoryDocumentation represents documentation files
	CategoryDocumentation FileCategory = "documentation"

	// CategoryWeb represents web assets
	CategoryWeb FileCategory = "web"

	// CategoryData represents structured data files
	CategoryData FileCategory = "data"

	// CategoryOffice represents office document formats
	CategoryOffice FileCategory = "office"

	// CategoryPDF represents PDF documents
	CategoryPDF FileCategory = "pdf"

	// CategoryConfig represents configuration files
	CategoryConfig FileCategory = "config"

	// CategoryImage represents image files
	CategoryImage FileCategory = "image"

	// CategoryArchive represents archive/compressed files
	CategoryArchive FileCategory = "archive"

	// CategoryUnknown is used for any unmapped extension
	CategoryUnknown FileCategory = "unknown"
)

// RiskLevel defines the coarse risk classification of a file
type RiskLevel string

const (
	// RiskHigh represents high risk content
	RiskHigh RiskLevel = "HIGH"

	// RiskMedium represents medium risk content
	RiskMedium RiskLevel = "MEDIUM"

	// RiskLow represents low risk content
	RiskLow RiskLevel = "LOW"

	// RiskNone represents explicitly risk-free content
	RiskNone RiskLevel = "NONE"

	// RiskUntagged is used when no explicit tag or heuristic matches
	RiskUntagged RiskLevel = "UNTAGGED"
)

// DataClassification defines the sensitivity tier of file content
type DataClassification string

const (
	// ClassificationPublic is the default tier when no keyword matches
	ClassificationPublic DataClassification = "PUBLIC"

	// ClassificationInternal marks internal-use content
	ClassificationInternal DataClassification = "INTERNAL"

	// ClassificationConfidential marks confidential content
	ClassificationConfidential DataClassification = "CONFIDENTIAL"

	// ClassificationRestricted marks the most sensitive tier
	ClassificationRestricted DataClassification = "RESTRICTED"
)

// extensionCategories maps lowercased file extensions to categories.
// Extensions absent from this table classify as CategoryUnknown and are
// excluded from directory scans.
var extensionCategories = map[string]FileCategory{
	// Code
	".go": CategoryCode, ".py": CategoryCode, ".js": CategoryCode,
	".ts": CategoryCode, ".jsx": CategoryCode, ".tsx": CategoryCode,
	".java": CategoryCode, ".c": CategoryCode, ".h": CategoryCode,
	".cpp": CategoryCode, ".hpp": CategoryCode, ".cs": CategoryCode,
	".rb": CategoryCode, ".rs": CategoryCode, ".php": CategoryCode,
	".swift": CategoryCode, ".kt": CategoryCode, ".scala": CategoryCode,
	".sh": CategoryCode, ".bash": CategoryCode, ".ps1": CategoryCode,
	".sql": CategoryCode, ".r": CategoryCode, ".pl": CategoryCode,

	// Documentation
	".md": CategoryDocumentation, ".rst": CategoryDocumentation,
	".txt": CategoryDocumentation, ".adoc": CategoryDocumentation,

	// Web
	".html": CategoryWeb, ".htm": CategoryWeb, ".css": CategoryWeb,
	".scss": CategoryWeb, ".less": CategoryWeb,

	// Data
	".csv": CategoryData, ".tsv": CategoryData, ".jsonl": CategoryData,
	".xml": CategoryData, ".parquet": CategoryData, ".avro": CategoryData,

	// Office
	".doc": CategoryOffice, ".docx": CategoryOffice, ".xls": CategoryOffice,
	".xlsx": CategoryOffice, ".ppt": CategoryOffice, ".pptx": CategoryOffice,
	".odt": CategoryOffice, ".ods": CategoryOffice,

	// PDF
	".pdf": CategoryPDF,

	// Config
	".yaml": CategoryConfig, ".yml": CategoryConfig, ".json": CategoryConfig,
	".toml": CategoryConfig, ".ini": CategoryConfig, ".cfg": CategoryConfig,
	".conf": CategoryConfig, ".env": CategoryConfig, ".properties": CategoryConfig,

	// Image
	".png": CategoryImage, ".jpg": CategoryImage, ".jpeg": CategoryImage,
	".gif": CategoryImage, ".bmp": CategoryImage, ".svg": CategoryImage,
	".ico": CategoryImage, ".webp": CategoryImage,

	// Archive
	".zip": CategoryArchive, ".tar": CategoryArchive, ".gz": CategoryArchive,
	".tgz": CategoryArchive, ".bz2": CategoryArchive, ".xz": CategoryArchive,
	".7z": CategoryArchive, ".rar": CategoryArchive,
}

// textExtractable marks categories whose files are read as UTF-8 text.
// PDF and office formats are deliberately not extracted; they get a
// placeholder string instead (see ExtractTextContent).
var textExtractable = map[FileCategory]bool{
	CategoryCode:          true,
	CategoryDocumentation: true,
	CategoryWeb:           true,
	CategoryConfig:        true,
	CategoryData:          true,
}

// binaryDataExtensions are data-category extensions that are not text
var binaryDataExtensions = map[string]bool{
	".parquet": true,
	".avro":    true,
}

// mimeFallbacks supplies types the platform mime table commonly lacks
var mimeFallbacks = map[string]string{
	".go":      "text/x-go",
	".py":      "text/x-python",
	".rs":      "text/x-rust",
	".md":      "text/markdown",
	".yaml":    "application/yaml",
	".yml":     "application/yaml",
	".toml":    "application/toml",
	".jsonl":   "application/jsonl",
	".parquet": "application/vnd.apache.parquet",
	".env":     "text/plain",
}

// riskBaseScores maps each risk level to its base score before weighting
var riskBaseScores = map[RiskLevel]float64{
	RiskHigh:     1.0,
	RiskMedium:   0.5,
	RiskLow:      0.2,
	RiskNone:     0.0,
	RiskUntagged: 0.5,
}

// categoryMultipliers weight the risk score by file category. Config, data
// and code files carry secrets and logic, so they weigh heavier.
var categoryMultipliers = map[FileCategory]float64{
	CategoryConfig:        1.2,
	CategoryData:          1.15,
	CategoryCode:          1.1,
	CategoryWeb:           1.0,
	CategoryUnknown:       1.0,
	CategoryOffice:        0.9,
	CategoryPDF:           0.9,
	CategoryDocumentation: 0.8,
	CategoryArchive:       0.7,
	CategoryImage:         0.5,
}

// riskTagPattern holds one explicit in-content risk tag pattern
type riskTagPattern struct {
	Level RiskLevel
	Regex *regexp.Regexp
}

// explicitRiskTags are tried in priority order; the first match wins.
// Levels are ordered HIGH, MEDIUM, LOW, NONE so a file carrying several
// tags resolves to the most severe one.
var explicitRiskTags = buildExplicitRiskTags()

func buildExplicitRiskTags() []riskTagPattern {
	var tags []riskTagPattern
	for _, level := range []RiskLevel{RiskHigh, RiskMedium, RiskLow, RiskNone} {
		lv := string(level)
		tags = append(tags,
			riskTagPattern{level, regexp.MustCompile(`(?i)@risk:\s*` + lv + `\b`)},
			riskTagPattern{level, regexp.MustCompile(`(?i)"risk_level"\s*:\s*"` + lv + `"`)},
			riskTagPattern{level, regexp.MustCompile(`(?i)\brisk_level\s*[=:]\s*["']?` + lv + `\b`)},
		)
	}
	return tags
}

// securityKeywords trigger the HIGH heuristic when no explicit tag matches
var securityKeywords = []string{
	"password", "secret", "api_key", "apikey", "private_key",
	"credential", "token",
}

// privacyKeywords trigger the MEDIUM heuristic; checked after security
var privacyKeywords = []string{
	"pii", "ssn", "social security", "personal data", "gdpr",
	"hipaa", "date of birth",
}

// complianceFrameworks is the fixed list of regulatory framework names
// detected literally in content (case-insensitive)
var complianceFrameworks = []string{
	"SOX", "PCI-DSS", "GDPR", "CCPA", "HIPAA", "FERPA",
	"GLBA", "BASEL", "SR-11-7", "SR-15-18", "CCAR", "DFAST",
}

// complianceTagPattern matches explicit @compliance: annotations
var complianceTagPattern = regexp.MustCompile(`(?i)@compliance:\s*([A-Za-z0-9][A-Za-z0-9_.\-]*)`)

// SecurityPattern defines a pattern for detecting security-sensitive content
type SecurityPattern struct {
	// Type is the concern type (password, api_key, private_key, etc.)
	Type string

	// Description is the human-readable concern reported per match
	Description string

	// Regex is the compiled detection pattern
	Regex *regexp.Regexp
}

// securityPatterns are evaluated in order; each matching pattern contributes
// one entry to a file's security concerns
var securityPatterns = []SecurityPattern{
	{
		Type:        "password",
		Description: "Hardcoded password assignment",
		Regex:       regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[=:]\s*["']?[^\s"']{4,}`),
	},
	{
		Type:        "api_key",
		Description: "API key assignment",
		Regex:       regexp.MustCompile(`(?i)\b(?:api[-_]?key|access[-_]?key)\s*[=:]\s*["']?[A-Za-z0-9_\-.=+/]{8,}`),
	},
	{
		Type:        "secret",
		Description: "Secret value assignment",
		Regex:       regexp.MustCompile(`(?i)\bsecret\s*[=:]\s*["']?[^\s"']{4,}`),
	},
	{
		Type:        "token",
		Description: "Token assignment",
		Regex:       regexp.MustCompile(`(?i)\btoken\s*[=:]\s*["']?[A-Za-z0-9_\-.=+/]{8,}`),
	},
	{
		Type:        "private_key",
		Description: "Private key material referenced",
		Regex:       regexp.MustCompile(`(?i)private_key|-----BEGIN (?:RSA |DSA |EC |OPENSSH )?PRIVATE KEY-----`),
	},
	{
		Type:        "certificate",
		Description: "Certificate material referenced",
		Regex:       regexp.MustCompile(`(?i)\bcertificate\b`),
	},
	{
		Type:        "credential",
		Description: "Credential referenced",
		Regex:       regexp.MustCompile(`(?i)\bcredentials?\b`),
	},
}

// PrivacyPattern defines a pattern for detecting privacy-sensitive content
type PrivacyPattern struct {
	Type        string
	Description string
	Regex       *regexp.Regexp
}

// privacyPatterns are evaluated in order; each matching pattern contributes
// one entry to a file's privacy concerns
var privacyPatterns = []PrivacyPattern{
	{
		Type:        "pii",
		Description: "PII handling referenced",
		Regex:       regexp.MustCompile(`(?i)\bpii\b|personally identifiable`),
	},
	{
		Type:        "ssn",
		Description: "Social Security Number present or referenced",
		Regex:       regexp.MustCompile(`(?i)\bssn\b|social security|\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		Type:        "gdpr",
		Description: "GDPR obligations referenced",
		Regex:       regexp.MustCompile(`(?i)\bgdpr\b|right to erasure|data subject`),
	},
	{
		Type:        "hipaa",
		Description: "HIPAA-protected health information referenced",
		Regex:       regexp.MustCompile(`(?i)\bhipaa\b|protected health|\bphi\b`),
	},
	{
		Type:        "email",
		Description: "Email address present",
		Regex:       regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`),
	},
	{
		Type:        "phone",
		Description: "Phone number present",
		Regex:       regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
	},
	{
		Type:        "date_of_birth",
		Description: "Date of birth referenced",
		Regex:       regexp.MustCompile(`(?i)date of birth|\bdob\b|birthdate`),
	},
}

// classificationTier pairs a sensitivity tier with its trigger keywords
type classificationTier struct {
	Classification DataClassification
	Keywords       []string
}

// classificationTiers are checked in priority order; the first tier with a
// matching keyword wins. No match defaults to PUBLIC.
var classificationTiers = []classificationTier{
	{ClassificationRestricted, []string{
		"restricted", "top secret", "classified", "password", "secret",
		"private_key", "credential",
	}},
	{ClassificationConfidential, []string{
		"confidential", "proprietary", "sensitive", "do not distribute",
	}},
	{ClassificationInternal, []string{
		"internal", "internal use", "employees only",
	}},
}
