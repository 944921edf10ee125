package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportVersion identifies the report schema
const ReportVersion = "1.0"

// Report statuses
const (
	// StatusCompleted marks a run that reached aggregation, possibly with
	// degraded (exhausted or skipped) sections
	StatusCompleted = "COMPLETED"

	// StatusFailed marks a run aborted by an unexpected failure
	StatusFailed = "FAILED"
)

// ReportMetadata describes one screening run
type ReportMetadata struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	BasePath  string    `json:"base_path"`
	Version   string    `json:"version"`
}

// ScreeningReport is the single write-once artifact of a screening run.
// It is created fresh per run, fully populated in one pass, serialized
// once, then discarded; the service holds no cross-run state.
type ScreeningReport struct {
	Status   string         `json:"status"`
	Metadata ReportMetadata `json:"metadata"`

	FileAssessments    map[string]FileAssessment   `json:"file_assessments"`
	DirectorySummaries map[string]*DirectoryResult `json:"directory_summaries"`

	RegulatoryOverview  RegulatoryOverview  `json:"regulatory_overview"`
	RiskSummary         RiskSummary         `json:"risk_summary"`
	ComplianceStatus    ComplianceStatus    `json:"compliance_status"`
	ProductionReadiness ProductionReadiness `json:"production_readiness"`

	// Ordered scan/processing failures accumulated across the run
	Errors []string `json:"errors"`
}

// NewFailedReport builds the minimal report shell used when a run is
// aborted by an unexpected failure
func NewFailedReport(runID, basePath, message string) *ScreeningReport {
	return &ScreeningReport{
		Status: StatusFailed,
		Metadata: ReportMetadata{
			RunID:     runID,
			Timestamp: time.Now(),
			BasePath:  basePath,
			Version:   ReportVersion,
		},
		FileAssessments:    map[string]FileAssessment{},
		DirectorySummaries: map[string]*DirectoryResult{},
		Errors:             []string{message},
	}
}

// ReportFilename returns the timestamped artifact name for a run
func ReportFilename(t time.Time) string {
	return fmt.Sprintf("screening_%s.json", t.Format("20060102_150405"))
}

// Save serializes the report as pretty-printed JSON (2-space indent) into
// dir and returns the written path
func (r *ScreeningReport) Save(dir string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(dir, ReportFilename(r.Metadata.Timestamp))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// LoadReport reads a previously saved screening report
func LoadReport(path string) (*ScreeningReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}

	var report ScreeningReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}
