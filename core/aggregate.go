package core

import "fmt"

// DirectoryResult aggregates the assessments of one scanned top-level
// directory. It is filled during the scan and never mutated afterwards.
type DirectoryResult struct {
	Directory         string `json:"directory"`
	TotalFilesScanned int    `json:"total_files_scanned"`

	FileTypeCounts       map[FileCategory]int       `json:"file_type_counts"`
	RiskLevelCounts      map[RiskLevel]int          `json:"risk_level_counts"`
	ClassificationCounts map[DataClassification]int `json:"classification_counts"`

	TotalRiskScore float64 `json:"total_risk_score"`

	FilesNeedingAudit  []string `json:"files_needing_audit"`
	FilesNeedingReview []string `json:"files_needing_review"`

	// Deduplicated unions across the directory's files
	ComplianceTags   []string `json:"compliance_tags"`
	SecurityConcerns []string `json:"security_concerns"`
	PrivacyConcerns  []string `json:"privacy_concerns"`

	Errors []string `json:"errors,omitempty"`

	// Per-file assessments; merged into the report's global map, not
	// duplicated in the directory summary JSON
	Assessments map[string]FileAssessment `json:"-"`
}

// NewDirectoryResult creates an empty, zero-count result for a directory.
// Exhausted directories contribute exactly this placeholder.
func NewDirectoryResult(name string) *DirectoryResult {
	return &DirectoryResult{
		Directory:            name,
		FileTypeCounts:       make(map[FileCategory]int),
		RiskLevelCounts:      make(map[RiskLevel]int),
		ClassificationCounts: make(map[DataClassification]int),
		FilesNeedingAudit:    []string{},
		FilesNeedingReview:   []string{},
		ComplianceTags:       []string{},
		SecurityConcerns:     []string{},
		PrivacyConcerns:      []string{},
		Assessments:          make(map[string]FileAssessment),
	}
}

// Add accumulates one assessment into the directory result
func (r *DirectoryResult) Add(a FileAssessment) {
	r.TotalFilesScanned++
	r.FileTypeCounts[a.FileCategory]++
	r.RiskLevelCounts[a.RiskLevel]++
	r.ClassificationCounts[a.DataClassification]++
	r.TotalRiskScore += a.RiskScore

	if a.NeedsAudit {
		r.FilesNeedingAudit = append(r.FilesNeedingAudit, a.Path)
	}
	if a.NeedsReview {
		r.FilesNeedingReview = append(r.FilesNeedingReview, a.Path)
	}

	r.ComplianceTags = appendUnique(r.ComplianceTags, a.ComplianceTags...)
	r.SecurityConcerns = appendUnique(r.SecurityConcerns, a.SecurityConcerns...)
	r.PrivacyConcerns = appendUnique(r.PrivacyConcerns, a.PrivacyConcerns...)

	r.Assessments[a.Path] = a
}

// HighRiskCount returns the number of HIGH-risk files in the directory
func (r *DirectoryResult) HighRiskCount() int {
	return r.RiskLevelCounts[RiskHigh]
}

// GlobalAggregate merges all directory results by summation and union.
// Directory file sets are disjoint by construction (each is scanned under a
// distinct top-level root), so duplicate paths are not deduplicated.
type GlobalAggregate struct {
	TotalFilesAssessed int

	FileTypeCounts       map[FileCategory]int
	RiskLevelCounts      map[RiskLevel]int
	ClassificationCounts map[DataClassification]int

	TotalRiskScore float64

	FilesNeedingAudit  []string
	FilesNeedingReview []string

	ComplianceTags   []string
	SecurityConcerns []string
	PrivacyConcerns  []string

	Assessments map[string]FileAssessment
}

// MergeDirectoryResults combines per-directory results into the global
// aggregate. Aggregation is order-independent: it is pure summation and
// set union, so enumeration-order differences do not change the outcome.
func MergeDirectoryResults(results []*DirectoryResult) *GlobalAggregate {
	agg := &GlobalAggregate{
		FileTypeCounts:       make(map[FileCategory]int),
		RiskLevelCounts:      make(map[RiskLevel]int),
		ClassificationCounts: make(map[DataClassification]int),
		FilesNeedingAudit:    []string{},
		FilesNeedingReview:   []string{},
		ComplianceTags:       []string{},
		SecurityConcerns:     []string{},
		PrivacyConcerns:      []string{},
		Assessments:          make(map[string]FileAssessment),
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		agg.TotalFilesAssessed += r.TotalFilesScanned
		for k, v := range r.FileTypeCounts {
			agg.FileTypeCounts[k] += v
		}
		for k, v := range r.RiskLevelCounts {
			agg.RiskLevelCounts[k] += v
		}
		for k, v := range r.ClassificationCounts {
			agg.ClassificationCounts[k] += v
		}
		agg.TotalRiskScore += r.TotalRiskScore
		agg.FilesNeedingAudit = append(agg.FilesNeedingAudit, r.FilesNeedingAudit...)
		agg.FilesNeedingReview = append(agg.FilesNeedingReview, r.FilesNeedingReview...)
		agg.ComplianceTags = appendUnique(agg.ComplianceTags, r.ComplianceTags...)
		agg.SecurityConcerns = appendUnique(agg.SecurityConcerns, r.SecurityConcerns...)
		agg.PrivacyConcerns = appendUnique(agg.PrivacyConcerns, r.PrivacyConcerns...)
		for path, a := range r.Assessments {
			agg.Assessments[path] = a
		}
	}

	return agg
}

// RiskSummary holds the derived global risk totals
type RiskSummary struct {
	TotalFilesAssessed int               `json:"total_files_assessed"`
	RiskLevelCounts    map[RiskLevel]int `json:"risk_level_counts"`
	TotalRiskScore     float64           `json:"total_risk_score"`
	AverageRiskScore   float64           `json:"average_risk_score"`
	HighRiskFiles      int               `json:"high_risk_files"`
	FilesNeedingAudit  int               `json:"files_needing_audit"`
	FilesNeedingReview int               `json:"files_needing_review"`
}

// BuildRiskSummary derives the global risk summary. The average is guarded
// against a zero-file run.
func BuildRiskSummary(agg *GlobalAggregate) RiskSummary {
	summary := RiskSummary{
		TotalFilesAssessed: agg.TotalFilesAssessed,
		RiskLevelCounts:    agg.RiskLevelCounts,
		TotalRiskScore:     agg.TotalRiskScore,
		HighRiskFiles:      agg.RiskLevelCounts[RiskHigh],
		FilesNeedingAudit:  len(agg.FilesNeedingAudit),
		FilesNeedingReview: len(agg.FilesNeedingReview),
	}
	if agg.TotalFilesAssessed > 0 {
		summary.AverageRiskScore = agg.TotalRiskScore / float64(agg.TotalFilesAssessed)
	}
	return summary
}

// ComplianceStatus holds the derived compliance posture
type ComplianceStatus struct {
	FrameworksIdentified []string                   `json:"frameworks_identified"`
	SecurityConcerns     []string                   `json:"security_concerns"`
	PrivacyConcerns      []string                   `json:"privacy_concerns"`
	ClassificationCounts map[DataClassification]int `json:"classification_counts"`
}

// BuildComplianceStatus derives the compliance section of the report
func BuildComplianceStatus(agg *GlobalAggregate) ComplianceStatus {
	return ComplianceStatus{
		FrameworksIdentified: agg.ComplianceTags,
		SecurityConcerns:     agg.SecurityConcerns,
		PrivacyConcerns:      agg.PrivacyConcerns,
		ClassificationCounts: agg.ClassificationCounts,
	}
}

// Compliance-readiness labels
const (
	ReadinessNone    = "NO_COMPLIANCE_FRAMEWORKS_IDENTIFIED"
	ReadinessLimited = "LIMITED_COMPLIANCE_COVERAGE"
	ReadinessGood    = "GOOD_COMPLIANCE_COVERAGE"
)

// Data-protection status labels
const (
	ProtectionHighSensitivity = "HIGH_SENSITIVITY_DATA_PRESENT"
	ProtectionConfidential    = "CONFIDENTIAL_DATA_PRESENT"
	ProtectionLowSensitivity  = "LOW_SENSITIVITY_DATA_ONLY"
)

// Recommendation is one prioritized action in the regulatory overview
type Recommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

// RegulatoryOverview is the executive-level derivation over the aggregate
type RegulatoryOverview struct {
	OverallRiskLevel     string           `json:"overall_risk_level"`
	ComplianceReadiness  string           `json:"compliance_readiness"`
	DataProtectionStatus string           `json:"data_protection_status"`
	GapAnalysis          []string         `json:"gap_analysis"`
	Recommendations      []Recommendation `json:"recommendations"`
}

// GenerateRegulatoryOverview derives the executive overview from the global
// aggregate. It is a pure function of the aggregate and thresholds.
func GenerateRegulatoryOverview(agg *GlobalAggregate, thresholds Thresholds) RegulatoryOverview {
	overview := RegulatoryOverview{
		OverallRiskLevel: "LOW",
		GapAnalysis:      []string{},
		Recommendations:  []Recommendation{},
	}

	total := agg.TotalFilesAssessed
	highCount := agg.RiskLevelCounts[RiskHigh]
	mediumCount := agg.RiskLevelCounts[RiskMedium]

	if total > 0 {
		highPct := float64(highCount) / float64(total)
		mediumPct := float64(mediumCount) / float64(total)
		switch {
		case highPct > thresholds.HighRiskPct:
			overview.OverallRiskLevel = "HIGH"
		case mediumPct > thresholds.MediumRiskPct:
			overview.OverallRiskLevel = "MEDIUM"
		}
	}

	switch {
	case len(agg.ComplianceTags) == 0:
		overview.ComplianceReadiness = ReadinessNone
	case len(agg.ComplianceTags) >= thresholds.GoodFrameworkCount:
		overview.ComplianceReadiness = ReadinessGood
	default:
		overview.ComplianceReadiness = ReadinessLimited
	}

	switch {
	case agg.ClassificationCounts[ClassificationRestricted] > 0:
		overview.DataProtectionStatus = ProtectionHighSensitivity
	case agg.ClassificationCounts[ClassificationConfidential] > 0:
		overview.DataProtectionStatus = ProtectionConfidential
	default:
		overview.DataProtectionStatus = ProtectionLowSensitivity
	}

	for _, framework := range []string{"SOX", "PCI-DSS", "GDPR"} {
		if !containsString(agg.ComplianceTags, framework) {
			overview.GapAnalysis = append(overview.GapAnalysis,
				fmt.Sprintf("No %s controls identified in scanned content", framework))
		}
	}

	if highCount > 0 {
		overview.Recommendations = append(overview.Recommendations, Recommendation{
			Priority: "CRITICAL",
			Action:   fmt.Sprintf("Review and remediate %d high-risk files before promotion", highCount),
		})
	}
	if len(agg.ComplianceTags) == 0 {
		overview.Recommendations = append(overview.Recommendations, Recommendation{
			Priority: "HIGH",
			Action:   "Establish compliance framework coverage; none was identified",
		})
	}
	if agg.ClassificationCounts[ClassificationRestricted] > 0 {
		overview.Recommendations = append(overview.Recommendations, Recommendation{
			Priority: "HIGH",
			Action: fmt.Sprintf("Apply restricted-data handling controls to %d files",
				agg.ClassificationCounts[ClassificationRestricted]),
		})
	}

	return overview
}

// ProductionReadiness is the promotion verdict over the scanned tree
type ProductionReadiness struct {
	ApprovedForProduction bool     `json:"approved_for_production"`
	CriticalIssues        []string `json:"critical_issues"`
	Reasons               []string `json:"reasons"`
}

// EvaluateProductionReadiness computes the promotion gate. Approval requires
// an empty critical-issues list, a high-risk file count at or below the
// approval maximum, and an overall risk level other than HIGH.
//
// The critical-issues detector flags high-risk counts above
// Thresholds.HighRiskCritical (default 10) while the approval gate checks
// Thresholds.ApprovalHighRiskMax (default 5). The two thresholds differ on
// purpose; see DESIGN.md before reconciling them.
func EvaluateProductionReadiness(agg *GlobalAggregate, overview RegulatoryOverview, thresholds Thresholds) ProductionReadiness {
	readiness := ProductionReadiness{
		CriticalIssues: []string{},
		Reasons:        []string{},
	}

	highCount := agg.RiskLevelCounts[RiskHigh]

	if highCount > thresholds.HighRiskCritical {
		readiness.CriticalIssues = append(readiness.CriticalIssues,
			fmt.Sprintf("%d high-risk files exceed the critical threshold of %d",
				highCount, thresholds.HighRiskCritical))
	}
	if len(agg.FilesNeedingAudit) > thresholds.AuditCritical {
		readiness.CriticalIssues = append(readiness.CriticalIssues,
			fmt.Sprintf("%d files need audit, exceeding the critical threshold of %d",
				len(agg.FilesNeedingAudit), thresholds.AuditCritical))
	}
	if len(agg.SecurityConcerns) > 0 {
		readiness.CriticalIssues = append(readiness.CriticalIssues,
			fmt.Sprintf("%d security concern types detected", len(agg.SecurityConcerns)))
	}
	if len(agg.ComplianceTags) == 0 {
		readiness.CriticalIssues = append(readiness.CriticalIssues,
			"no compliance frameworks identified")
	}

	readiness.ApprovedForProduction = len(readiness.CriticalIssues) == 0 &&
		highCount <= thresholds.ApprovalHighRiskMax &&
		overview.OverallRiskLevel != "HIGH"

	if readiness.ApprovedForProduction {
		readiness.Reasons = append(readiness.Reasons, "all production gates passed")
	} else {
		if len(readiness.CriticalIssues) > 0 {
			readiness.Reasons = append(readiness.Reasons,
				fmt.Sprintf("%d critical issues open", len(readiness.CriticalIssues)))
		}
		if highCount > thresholds.ApprovalHighRiskMax {
			readiness.Reasons = append(readiness.Reasons,
				fmt.Sprintf("high-risk file count %d exceeds approval maximum %d",
					highCount, thresholds.ApprovalHighRiskMax))
		}
		if overview.OverallRiskLevel == "HIGH" {
			readiness.Reasons = append(readiness.Reasons, "overall risk level is HIGH")
		}
	}

	return readiness
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !containsString(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
