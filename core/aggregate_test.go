package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assessmentFixture(path string, level RiskLevel, category FileCategory, score float64) FileAssessment {
	return FileAssessment{
		Path:               path,
		FileCategory:       category,
		RiskLevel:          level,
		RiskScore:          score,
		DataClassification: ClassificationPublic,
		NeedsAudit:         level == RiskHigh,
		NeedsReview:        level == RiskHigh || level == RiskMedium,
	}
}

// TestDirectoryAccumulation checks that directory tallies equal the exact
// per-file counts and score sum
func TestDirectoryAccumulation(t *testing.T) {
	result := NewDirectoryResult("onboarding")

	result.Add(assessmentFixture("a.py", RiskHigh, CategoryCode, 1.0))
	result.Add(assessmentFixture("b.py", RiskHigh, CategoryCode, 0.9))
	result.Add(assessmentFixture("c.md", RiskMedium, CategoryDocumentation, 0.4))
	result.Add(assessmentFixture("d.yaml", RiskUntagged, CategoryConfig, 0.6))

	assert.Equal(t, 4, result.TotalFilesScanned)
	assert.Equal(t, 2, result.FileTypeCounts[CategoryCode])
	assert.Equal(t, 2, result.RiskLevelCounts[RiskHigh])
	assert.Equal(t, 1, result.RiskLevelCounts[RiskMedium])
	assert.Equal(t, 1, result.RiskLevelCounts[RiskUntagged])
	assert.Equal(t, 4, result.ClassificationCounts[ClassificationPublic])
	assert.InDelta(t, 2.9, result.TotalRiskScore, 1e-9)
	assert.Equal(t, []string{"a.py", "b.py"}, result.FilesNeedingAudit)
	assert.Equal(t, []string{"a.py", "b.py", "c.md"}, result.FilesNeedingReview)
	assert.Equal(t, 2, result.HighRiskCount())
}

func TestDirectoryUnionsDeduplicate(t *testing.T) {
	result := NewDirectoryResult("v2")

	a := assessmentFixture("a.py", RiskHigh, CategoryCode, 1.0)
	a.ComplianceTags = []string{"GDPR", "SOX"}
	a.SecurityConcerns = []string{"Hardcoded password assignment"}
	b := assessmentFixture("b.py", RiskHigh, CategoryCode, 1.0)
	b.ComplianceTags = []string{"GDPR"}
	b.SecurityConcerns = []string{"Hardcoded password assignment"}

	result.Add(a)
	result.Add(b)

	assert.Equal(t, []string{"GDPR", "SOX"}, result.ComplianceTags)
	assert.Len(t, result.SecurityConcerns, 1)
}

// TestMergeIsOrderIndependent re-runs the merge with directories reversed
// and expects identical aggregates
func TestMergeIsOrderIndependent(t *testing.T) {
	first := NewDirectoryResult("tidyllm")
	first.Add(assessmentFixture("tidyllm/a.py", RiskHigh, CategoryCode, 1.0))
	second := NewDirectoryResult("v2")
	second.Add(assessmentFixture("v2/b.md", RiskMedium, CategoryDocumentation, 0.4))
	second.Add(assessmentFixture("v2/c.md", RiskLow, CategoryDocumentation, 0.16))

	forward := MergeDirectoryResults([]*DirectoryResult{first, second})
	reverse := MergeDirectoryResults([]*DirectoryResult{second, first})

	assert.Equal(t, forward.TotalFilesAssessed, reverse.TotalFilesAssessed)
	assert.Equal(t, forward.RiskLevelCounts, reverse.RiskLevelCounts)
	assert.Equal(t, forward.FileTypeCounts, reverse.FileTypeCounts)
	assert.InDelta(t, forward.TotalRiskScore, reverse.TotalRiskScore, 1e-9)
	assert.Equal(t, len(forward.Assessments), len(reverse.Assessments))
}

func TestMergeToleratesNilAndEmpty(t *testing.T) {
	placeholder := NewDirectoryResult("pending")
	agg := MergeDirectoryResults([]*DirectoryResult{nil, placeholder})

	assert.Equal(t, 0, agg.TotalFilesAssessed)

	summary := BuildRiskSummary(agg)
	assert.Equal(t, 0.0, summary.AverageRiskScore, "zero-file average must not divide by zero")
}

func TestBuildRiskSummaryAverage(t *testing.T) {
	result := NewDirectoryResult("v2")
	result.Add(assessmentFixture("a.py", RiskHigh, CategoryCode, 1.0))
	result.Add(assessmentFixture("b.py", RiskLow, CategoryCode, 0.2))

	summary := BuildRiskSummary(MergeDirectoryResults([]*DirectoryResult{result}))

	assert.Equal(t, 2, summary.TotalFilesAssessed)
	assert.Equal(t, 1, summary.HighRiskFiles)
	assert.InDelta(t, 0.6, summary.AverageRiskScore, 1e-9)
}

func TestGenerateRegulatoryOverviewThresholds(t *testing.T) {
	thresholds := DefaultThresholds()

	build := func(high, medium, low int, tags []string, restricted int) *GlobalAggregate {
		result := NewDirectoryResult("x")
		n := 0
		add := func(level RiskLevel, count int) {
			for i := 0; i < count; i++ {
				a := assessmentFixture(string(rune('a'+n))+".py", level, CategoryCode, 0.5)
				n++
				result.Add(a)
			}
		}
		add(RiskHigh, high)
		add(RiskMedium, medium)
		add(RiskLow, low)
		agg := MergeDirectoryResults([]*DirectoryResult{result})
		agg.ComplianceTags = tags
		agg.ClassificationCounts[ClassificationRestricted] = restricted
		return agg
	}

	// 2/10 HIGH > 10% -> overall HIGH
	overview := GenerateRegulatoryOverview(build(2, 0, 8, nil, 0), thresholds)
	assert.Equal(t, "HIGH", overview.OverallRiskLevel)

	// 4/10 MEDIUM > 30% -> overall MEDIUM
	overview = GenerateRegulatoryOverview(build(0, 4, 6, nil, 0), thresholds)
	assert.Equal(t, "MEDIUM", overview.OverallRiskLevel)

	overview = GenerateRegulatoryOverview(build(0, 0, 10, nil, 0), thresholds)
	assert.Equal(t, "LOW", overview.OverallRiskLevel)
	assert.Equal(t, ReadinessNone, overview.ComplianceReadiness)
	assert.Equal(t, ProtectionLowSensitivity, overview.DataProtectionStatus)

	// Gap analysis always covers the three anchor frameworks
	assert.Len(t, overview.GapAnalysis, 3)

	overview = GenerateRegulatoryOverview(build(0, 0, 5, []string{"GDPR", "SOX"}, 0), thresholds)
	assert.Equal(t, ReadinessLimited, overview.ComplianceReadiness)
	assert.Len(t, overview.GapAnalysis, 1)

	overview = GenerateRegulatoryOverview(build(0, 0, 5, []string{"GDPR", "SOX", "PCI-DSS"}, 1), thresholds)
	assert.Equal(t, ReadinessGood, overview.ComplianceReadiness)
	assert.Equal(t, ProtectionHighSensitivity, overview.DataProtectionStatus)
	assert.Empty(t, overview.GapAnalysis)
}

func TestGenerateRegulatoryOverviewRecommendations(t *testing.T) {
	thresholds := DefaultThresholds()

	result := NewDirectoryResult("x")
	result.Add(assessmentFixture("a.py", RiskHigh, CategoryCode, 1.0))
	agg := MergeDirectoryResults([]*DirectoryResult{result})
	agg.ClassificationCounts[ClassificationRestricted] = 1

	overview := GenerateRegulatoryOverview(agg, thresholds)

	require.NotEmpty(t, overview.Recommendations)
	assert.Equal(t, "CRITICAL", overview.Recommendations[0].Priority)

	priorities := make([]string, 0, len(overview.Recommendations))
	for _, rec := range overview.Recommendations {
		priorities = append(priorities, rec.Priority)
	}
	assert.Contains(t, priorities, "HIGH")
}

func TestProductionReadinessGates(t *testing.T) {
	thresholds := DefaultThresholds()

	clean := func() *GlobalAggregate {
		result := NewDirectoryResult("x")
		for i := 0; i < 10; i++ {
			a := assessmentFixture(string(rune('a'+i))+".md", RiskLow, CategoryDocumentation, 0.16)
			result.Add(a)
		}
		agg := MergeDirectoryResults([]*DirectoryResult{result})
		agg.ComplianceTags = []string{"GDPR"}
		return agg
	}

	agg := clean()
	overview := GenerateRegulatoryOverview(agg, thresholds)
	readiness := EvaluateProductionReadiness(agg, overview, thresholds)
	assert.True(t, readiness.ApprovedForProduction)
	assert.Empty(t, readiness.CriticalIssues)

	// Any security concern is a critical issue and blocks approval
	agg = clean()
	agg.SecurityConcerns = []string{"Hardcoded password assignment"}
	readiness = EvaluateProductionReadiness(agg, GenerateRegulatoryOverview(agg, thresholds), thresholds)
	assert.False(t, readiness.ApprovedForProduction)
	assert.Len(t, readiness.CriticalIssues, 1)

	// Zero frameworks is a critical issue on its own
	agg = clean()
	agg.ComplianceTags = []string{}
	readiness = EvaluateProductionReadiness(agg, GenerateRegulatoryOverview(agg, thresholds), thresholds)
	assert.False(t, readiness.ApprovedForProduction)

	// 6 high-risk files trip the approval gate (max 5) without reaching
	// the critical-issue threshold (10); the two limits differ on purpose
	agg = clean()
	agg.RiskLevelCounts[RiskHigh] = 6
	readiness = EvaluateProductionReadiness(agg, GenerateRegulatoryOverview(agg, thresholds), thresholds)
	assert.False(t, readiness.ApprovedForProduction)
	assert.Empty(t, readiness.CriticalIssues)
	assert.NotEmpty(t, readiness.Reasons)
}
