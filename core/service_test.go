package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redirectAudit(t *testing.T) {
	t.Helper()
	err := ConfigureLogger(filepath.Join(t.TempDir(), "audit.log"),
		AuditLogLevelStandard, 100*1024*1024, 90, false)
	require.NoError(t, err)
}

func serviceProfile(dirs ...string) *ScanProfile {
	return NewProfileBuilder().
		WithDirectories(dirs...).
		WithMaxRetries(3).
		WithDirectoryTimeout(30).
		WithFileTimeout(5).
		WithFileCap(100).
		WithRetryDelay(0).
		Build()
}

func newTestService(t *testing.T, basePath string, profile *ScanProfile) (*ScreeningService, *bytes.Buffer) {
	t.Helper()
	redirectAudit(t)

	service, err := NewScreeningService(basePath, profile)
	require.NoError(t, err)

	var console bytes.Buffer
	service.SetConsole(&console)
	service.SetOutputDir(t.TempDir())
	return service, &console
}

func TestNewScreeningServiceRejectsInvalidProfile(t *testing.T) {
	profile := serviceProfile("v2")
	profile.Limits.MaxRetries = 0

	_, err := NewScreeningService(t.TempDir(), profile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_retries")
}

func TestNewScreeningServiceNilProfileUsesDefaults(t *testing.T) {
	service, err := NewScreeningService(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().Directories, service.profile.Directories)
}

// TestRunToleratesMissingAndEmptyDirectories: absent or empty directories
// contribute zeroed summaries and the run still completes cleanly
func TestRunToleratesMissingAndEmptyDirectories(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "v2"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "onboarding"), 0755))
	writeFile(t, filepath.Join(base, "v2"), "notes.md", "release checklist\n")

	service, _ := newTestService(t, base, serviceProfile("tidyllm", "v2", "onboarding"))
	report := service.Run(context.Background())

	assert.Equal(t, StatusCompleted, report.Status)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.RiskSummary.TotalFilesAssessed)

	require.Contains(t, report.DirectorySummaries, "tidyllm")
	assert.Equal(t, 0, report.DirectorySummaries["tidyllm"].TotalFilesScanned)
	assert.Equal(t, 0, report.DirectorySummaries["onboarding"].TotalFilesScanned)
	assert.Equal(t, 1, report.DirectorySummaries["v2"].TotalFilesScanned)
}

func TestRunEnforcesFileCap(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "pending")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for i := 0; i < 6; i++ {
		writeFile(t, dir, fmt.Sprintf("doc_%d.md", i), "plain notes\n")
	}

	profile := serviceProfile("pending")
	profile.Limits.MaxFilesPerDirectory = 3

	service, _ := newTestService(t, base, profile)
	report := service.Run(context.Background())

	assert.Equal(t, 3, report.DirectorySummaries["pending"].TotalFilesScanned)
	assert.Equal(t, 3, report.RiskSummary.TotalFilesAssessed)
}

// TestScanWithRetryExhaustion drives every attempt into failure with a
// canceled context and expects the zeroed placeholder plus error message
func TestScanWithRetryExhaustion(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "v2"), 0755))
	writeFile(t, filepath.Join(base, "v2"), "a.md", "notes\n")

	service, _ := newTestService(t, base, serviceProfile("v2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, errMsg := service.scanWithRetry(ctx, "test-run", "v2")

	require.NotNil(t, result)
	assert.Equal(t, 0, result.TotalFilesScanned)
	assert.Equal(t, "v2", result.Directory)
	assert.Contains(t, errMsg, "exhausted after 3 attempts")
}

func TestRunCanceledBeforeStart(t *testing.T) {
	base := t.TempDir()
	service, _ := newTestService(t, base, serviceProfile("v2", "pending"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := service.Run(ctx)

	assert.Equal(t, StatusCompleted, report.Status)
	assert.Equal(t, 0, report.RiskSummary.TotalFilesAssessed)
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0], "run canceled before directory v2")
	assert.Contains(t, report.Errors[1], "run canceled before directory pending")

	// Unreached directories still appear in the summary map, zeroed
	require.Len(t, report.DirectorySummaries, 2)
	assert.Equal(t, 0, report.DirectorySummaries["v2"].TotalFilesScanned)
	assert.Equal(t, 0, report.DirectorySummaries["pending"].TotalFilesScanned)
}

func TestRunWritesReportArtifact(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "v2")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeFile(t, dir, "policy.md", "# @compliance: GDPR\nhandling policy\n")

	service, _ := newTestService(t, base, serviceProfile("v2"))
	outDir := t.TempDir()
	service.SetOutputDir(outDir)

	report := service.Run(context.Background())
	require.Equal(t, StatusCompleted, report.Status)

	matches, err := filepath.Glob(filepath.Join(outDir, "screening_*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, filepath.Join(outDir, ReportFilename(report.Metadata.Timestamp)), matches[0])

	loaded, err := LoadReport(matches[0])
	require.NoError(t, err)
	assert.Equal(t, report.Status, loaded.Status)
	assert.Equal(t, report.Metadata.RunID, loaded.Metadata.RunID)
	assert.Equal(t, report.RiskSummary.TotalFilesAssessed, loaded.RiskSummary.TotalFilesAssessed)
	assert.Equal(t, report.ProductionReadiness.ApprovedForProduction,
		loaded.ProductionReadiness.ApprovedForProduction)
	assert.Contains(t, loaded.FileAssessments, filepath.Join(dir, "policy.md"))
}

func TestRunApprovalVerdicts(t *testing.T) {
	t.Run("clean tree with framework coverage is approved", func(t *testing.T) {
		base := t.TempDir()
		dir := filepath.Join(base, "v2")
		require.NoError(t, os.MkdirAll(dir, 0755))
		writeFile(t, dir, "policy.md", "# @compliance: GDPR\nrelease handling policy\n")
		writeFile(t, dir, "readme.md", "project overview\n")

		service, _ := newTestService(t, base, serviceProfile("v2"))
		report := service.Run(context.Background())

		assert.True(t, report.ProductionReadiness.ApprovedForProduction)
		assert.Empty(t, report.ProductionReadiness.CriticalIssues)
	})

	t.Run("hardcoded credential blocks promotion", func(t *testing.T) {
		base := t.TempDir()
		dir := filepath.Join(base, "v2")
		require.NoError(t, os.MkdirAll(dir, 0755))
		writeFile(t, dir, "creds.py", "password = \"hunter2secret\"\n")

		service, _ := newTestService(t, base, serviceProfile("v2"))
		report := service.Run(context.Background())

		assert.False(t, report.ProductionReadiness.ApprovedForProduction)
		assert.NotEmpty(t, report.ProductionReadiness.CriticalIssues)
		assert.NotEmpty(t, report.ProductionReadiness.Reasons)
	})
}

func TestRunConsoleProgress(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "v2")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeFile(t, dir, "notes.md", "plain notes\n")

	service, console := newTestService(t, base, serviceProfile("v2"))
	service.Run(context.Background())

	out := console.String()
	assert.Contains(t, out, "scanned v2: 1 files")
	assert.Contains(t, out, "=== screening summary ===")
	assert.Contains(t, out, "status:            COMPLETED")
}

// PrintSummary must render a failed shell report without panicking
func TestPrintSummaryDegradedReport(t *testing.T) {
	service, console := newTestService(t, t.TempDir(), serviceProfile("v2"))

	report := NewFailedReport("run-1", "/nowhere", "boom")
	service.PrintSummary(report)

	out := console.String()
	assert.Contains(t, out, "status:            FAILED")
	assert.Contains(t, out, "UNKNOWN")
	assert.Contains(t, out, "boom")
}

// panicWriter stands in for an embedder-injected console that fails hard
// on every write
type panicWriter struct{}

func (panicWriter) Write([]byte) (int, error) {
	panic("console gone")
}

// TestRunRecoversConsolePanic: a panicking console writer must not escape
// Run, not even from the recovery path's own summary write
func TestRunRecoversConsolePanic(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "v2")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeFile(t, dir, "notes.md", "plain notes\n")

	service, _ := newTestService(t, base, serviceProfile("v2"))
	service.SetConsole(panicWriter{})

	var report *ScreeningReport
	require.NotPanics(t, func() {
		report = service.Run(context.Background())
	})

	require.NotNil(t, report)
	assert.Equal(t, StatusFailed, report.Status)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], "screening run failed")
}

// TestRunSkipsTimedOutFile: a file whose read never completes is abandoned
// at the per-file deadline; the sibling is still assessed and the attempt
// is not retried
func TestRunSkipsTimedOutFile(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "v2")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeFile(t, dir, "ok.md", "plain notes\n")

	// A FIFO with no writer blocks any read until the deadline
	fifo := filepath.Join(dir, "slow.md")
	if err := exec.Command("mkfifo", fifo).Run(); err != nil {
		t.Skipf("mkfifo unavailable: %v", err)
	}

	profile := serviceProfile("v2")
	profile.Limits.FileTimeoutSeconds = 1

	service, _ := newTestService(t, base, profile)
	report := service.Run(context.Background())

	assert.Equal(t, StatusCompleted, report.Status)
	// No run-level error: the directory was not exhausted or retried
	assert.Empty(t, report.Errors)

	summary := report.DirectorySummaries["v2"]
	assert.Equal(t, 1, summary.TotalFilesScanned)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "slow.md")
	assert.Contains(t, summary.Errors[0], "timed out")

	assert.Contains(t, report.FileAssessments, filepath.Join(dir, "ok.md"))
	assert.NotContains(t, report.FileAssessments, fifo)
}

func TestReportFilenameFormat(t *testing.T) {
	report := NewFailedReport("run-1", "/nowhere", "boom")
	name := ReportFilename(report.Metadata.Timestamp)
	assert.Regexp(t, `^screening_\d{8}_\d{6}\.json$`, name)
}
