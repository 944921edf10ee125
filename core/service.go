package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// assessWorkers bounds the worker pool assessing files within one
// directory attempt
const assessWorkers = 4

// errFileCap stops directory enumeration once the file cap is reached
var errFileCap = errors.New("file cap reached")

// ScreeningService orchestrates the RiskTagger across the configured
// directory set, producing exactly one ScreeningReport per Run. A single
// file or directory failure never aborts the overall run.
type ScreeningService struct {
	basePath string
	profile  *ScanProfile
	tagger   *RiskTagger

	// Console destination for progress lines and the final summary.
	// Console output is not a stable contract; only the JSON artifact is.
	console io.Writer

	// Directory the report artifact is written into
	outDir string
}

// NewScreeningService creates a service scanning under basePath with the
// given profile. A nil profile uses the documented defaults.
func NewScreeningService(basePath string, profile *ScanProfile) (*ScreeningService, error) {
	if profile == nil {
		profile = DefaultProfile()
	}
	if err := validateProfile(profile); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	tagger, err := NewRiskTaggerWithPatterns(profile.CustomPatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to build tagger: %w", err)
	}

	return &ScreeningService{
		basePath: basePath,
		profile:  profile,
		tagger:   tagger,
		console:  os.Stdout,
		outDir:   ".",
	}, nil
}

// SetConsole redirects progress output (used by tests and embedders)
func (s *ScreeningService) SetConsole(w io.Writer) {
	s.console = w
}

// SetOutputDir changes where the report artifact is written
func (s *ScreeningService) SetOutputDir(dir string) {
	s.outDir = dir
}

// Run executes one full screening pass: every configured directory is
// scanned under the retry/timeout envelope, results are aggregated, the
// report is written, and the console summary is printed. Run never
// panics out; an unexpected failure yields a minimal FAILED report.
func (s *ScreeningService) Run(ctx context.Context) (report *ScreeningReport) {
	runID := uuid.NewString()
	startedAt := time.Now()

	defer func() {
		if r := recover(); r != nil {
			report = NewFailedReport(runID, s.basePath, fmt.Sprintf("screening run failed: %v", r))
			LogScreeningEvent(runID, EventRunFailed, SeverityError, map[string]string{
				"error": fmt.Sprintf("%v", r),
			})
			// The console writer may be what panicked in the first
			// place; never let the summary write escape Run.
			func() {
				defer func() { _ = recover() }()
				s.PrintSummary(report)
			}()
		}
	}()

	LogScreeningEvent(runID, EventRunStarted, SeverityInfo, map[string]string{
		"base_path":   s.basePath,
		"directories": fmt.Sprintf("%d", len(s.profile.Directories)),
	})

	var scanErrors []string
	results := make([]*DirectoryResult, 0, len(s.profile.Directories))
	summaries := make(map[string]*DirectoryResult, len(s.profile.Directories))

	// Directories are processed in the configured order
	for _, name := range s.profile.Directories {
		if ctx.Err() != nil {
			// Unreached directories still get a zeroed summary entry so
			// the artifact covers every configured directory
			scanErrors = append(scanErrors, fmt.Sprintf("run canceled before directory %s: %v", name, ctx.Err()))
			result := NewDirectoryResult(name)
			results = append(results, result)
			summaries[name] = result
			continue
		}

		result, errMsg := s.scanWithRetry(ctx, runID, name)
		if errMsg != "" {
			scanErrors = append(scanErrors, errMsg)
		}
		results = append(results, result)
		summaries[name] = result

		fmt.Fprintf(s.console, "scanned %s: %d files, risk score %.2f, %d high-risk, %d need audit\n",
			name, result.TotalFilesScanned, result.TotalRiskScore,
			result.HighRiskCount(), len(result.FilesNeedingAudit))
	}

	agg := MergeDirectoryResults(results)
	overview := GenerateRegulatoryOverview(agg, s.profile.Thresholds)

	report = &ScreeningReport{
		Status: StatusCompleted,
		Metadata: ReportMetadata{
			RunID:     runID,
			Timestamp: startedAt,
			BasePath:  s.basePath,
			Version:   ReportVersion,
		},
		FileAssessments:     agg.Assessments,
		DirectorySummaries:  summaries,
		RegulatoryOverview:  overview,
		RiskSummary:         BuildRiskSummary(agg),
		ComplianceStatus:    BuildComplianceStatus(agg),
		ProductionReadiness: EvaluateProductionReadiness(agg, overview, s.profile.Thresholds),
		Errors:              scanErrors,
	}
	if report.Errors == nil {
		report.Errors = []string{}
	}

	// The report write is best-effort: a failure is recorded in the
	// report itself and the in-memory report is still returned.
	path, err := report.Save(s.outDir)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("report write failed: %v", err))
		LogScreeningEvent(runID, EventRunFailed, SeverityError, map[string]string{"error": err.Error()})
	} else {
		LogScreeningEvent(runID, EventReportWritten, SeverityInfo, map[string]string{"path": path})
	}

	LogScreeningEvent(runID, EventRunCompleted, SeverityInfo, map[string]string{
		"files_assessed": fmt.Sprintf("%d", report.RiskSummary.TotalFilesAssessed),
		"approved":       fmt.Sprintf("%t", report.ProductionReadiness.ApprovedForProduction),
	})

	s.PrintSummary(report)
	return report
}

// scanWithRetry runs the bounded scan for one directory under the retry
// envelope. It always returns a result: on exhaustion, a zeroed
// placeholder plus a non-empty error message.
func (s *ScreeningService) scanWithRetry(ctx context.Context, runID, name string) (*DirectoryResult, string) {
	dir := filepath.Join(s.basePath, name)
	limits := s.profile.Limits

	var lastErr error
	for attempt := 1; attempt <= limits.MaxRetries; attempt++ {
		result, err := s.scanAttempt(ctx, runID, name, dir)
		if err == nil {
			GetAuditLogger().LogEvent(AuditEvent{
				RunID:     runID,
				EventType: EventDirectoryScanned,
				Severity:  SeverityInfo,
				Directory: name,
				Attempt:   attempt,
				Metadata:  map[string]string{"files": fmt.Sprintf("%d", result.TotalFilesScanned)},
			})
			return result, ""
		}

		lastErr = err
		GetAuditLogger().LogEvent(AuditEvent{
			RunID:     runID,
			EventType: EventDirectoryRetry,
			Severity:  SeverityWarning,
			Directory: name,
			Attempt:   attempt,
			Detail:    err.Error(),
		})

		if attempt < limits.MaxRetries {
			time.Sleep(limits.RetryDelay())
		}
	}

	GetAuditLogger().LogEvent(AuditEvent{
		RunID:     runID,
		EventType: EventDirectoryExhausted,
		Severity:  SeverityError,
		Directory: name,
		Attempt:   limits.MaxRetries,
		Detail:    lastErr.Error(),
	})

	// The exhausted directory contributes a zeroed placeholder result
	return NewDirectoryResult(name),
		fmt.Sprintf("directory %s exhausted after %d attempts: %v", name, limits.MaxRetries, lastErr)
}

// scanAttempt performs one bounded, timed scan of a directory: enumerate
// up to the file cap, then assess each file under its own timeout. A
// file-level failure skips only that file; an attempt-level timeout or
// enumeration failure is returned for the caller to retry.
func (s *ScreeningService) scanAttempt(ctx context.Context, runID, name, dir string) (*DirectoryResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.profile.Limits.DirectoryTimeout())
	defer cancel()

	files, err := s.enumerateFiles(attemptCtx, dir)
	if err != nil {
		return nil, fmt.Errorf("enumeration of %s failed: %w", dir, err)
	}

	// Assess files with a bounded worker pool. Each file gets its own
	// deadline; results land in per-index slots and are merged in order
	// afterwards, so the accumulator needs no locking.
	assessments := make([]*FileAssessment, len(files))

	var skippedMu sync.Mutex
	var skipped []string

	g, gctx := errgroup.WithContext(attemptCtx)
	g.SetLimit(assessWorkers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			assessment, err := s.assessWithTimeout(gctx, path)
			if err != nil {
				if gctx.Err() != nil {
					// Attempt deadline hit; surface it so the whole
					// attempt is retried
					return gctx.Err()
				}

				skippedMu.Lock()
				skipped = append(skipped, fmt.Sprintf("skipped %s: %v", path, err))
				skippedMu.Unlock()

				GetAuditLogger().LogEvent(AuditEvent{
					RunID:     runID,
					EventType: EventFileSkipped,
					Severity:  SeverityWarning,
					Directory: name,
					Path:      path,
					Detail:    err.Error(),
				})
				return nil
			}

			assessments[i] = assessment
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if attemptCtx.Err() != nil {
		return nil, attemptCtx.Err()
	}

	result := NewDirectoryResult(name)
	for _, a := range assessments {
		if a != nil {
			result.Add(*a)
		}
	}
	sort.Strings(skipped)
	result.Errors = append(result.Errors, skipped...)

	return result, nil
}

// enumerateFiles lists eligible files under dir in filesystem-enumeration
// order, stopping early once the cap is reached. Files beyond the cap are
// silently excluded from this run.
func (s *ScreeningService) enumerateFiles(ctx context.Context, dir string) ([]string, error) {
	maxFiles := s.profile.Limits.MaxFilesPerDirectory
	files := make([]string, 0, maxFiles)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// An unreadable entry is not fatal to enumeration
			return nil
		}
		if d.IsDir() || !s.tagger.IsEligible(path) {
			return nil
		}
		files = append(files, path)
		if len(files) >= maxFiles {
			return errFileCap
		}
		return nil
	})
	if err != nil && !errors.Is(err, errFileCap) {
		return nil, err
	}

	return files, nil
}

// assessWithTimeout races one file assessment against the per-file
// deadline. A timed-out assessment is abandoned, not retried.
func (s *ScreeningService) assessWithTimeout(ctx context.Context, path string) (*FileAssessment, error) {
	fileCtx, cancel := context.WithTimeout(ctx, s.profile.Limits.FileTimeout())
	defer cancel()

	done := make(chan FileAssessment, 1)
	failed := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				failed <- fmt.Errorf("assessment panicked: %v", r)
			}
		}()
		done <- s.tagger.AssessFileRisk(path)
	}()

	select {
	case assessment := <-done:
		return &assessment, nil
	case err := <-failed:
		return nil, err
	case <-fileCtx.Done():
		return nil, fmt.Errorf("assessment of %s timed out: %w", path, fileCtx.Err())
	}
}

// PrintSummary writes the human-readable run summary. It renders partial
// or failed reports with UNKNOWN placeholders instead of failing.
func (s *ScreeningService) PrintSummary(report *ScreeningReport) {
	w := s.console

	fmt.Fprintln(w, "=== screening summary ===")
	fmt.Fprintf(w, "status:            %s\n", orUnknown(report.Status))
	fmt.Fprintf(w, "files assessed:    %d\n", report.RiskSummary.TotalFilesAssessed)
	fmt.Fprintf(w, "high-risk files:   %d\n", report.RiskSummary.HighRiskFiles)
	fmt.Fprintf(w, "average score:     %.3f\n", report.RiskSummary.AverageRiskScore)
	fmt.Fprintf(w, "overall risk:      %s\n", orUnknown(report.RegulatoryOverview.OverallRiskLevel))
	fmt.Fprintf(w, "compliance:        %s\n", orUnknown(report.RegulatoryOverview.ComplianceReadiness))
	fmt.Fprintf(w, "data protection:   %s\n", orUnknown(report.RegulatoryOverview.DataProtectionStatus))
	fmt.Fprintf(w, "approved:          %t\n", report.ProductionReadiness.ApprovedForProduction)
	if len(report.ProductionReadiness.CriticalIssues) > 0 {
		fmt.Fprintln(w, "critical issues:")
		for _, issue := range report.ProductionReadiness.CriticalIssues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "errors:")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}
