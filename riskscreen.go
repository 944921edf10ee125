package riskscreen

import (
	"context"
	"fmt"

	"github.com/complyqa/riskscreen-go/core"
)

// RunScreening runs the full risk-screening pipeline over basePath with
// the documented default profile
func RunScreening(ctx context.Context, basePath string) (*core.ScreeningReport, error) {
	return RunScreeningWithConfig(ctx, basePath, core.DefaultProfile())
}

// RunScreeningWithProfile runs the pipeline with a YAML profile loaded
// from profilePath
func RunScreeningWithProfile(ctx context.Context, basePath, profilePath string) (*core.ScreeningReport, error) {
	profile, err := core.LoadProfile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return RunScreeningWithConfig(ctx, basePath, profile)
}

// RunScreeningWithConfig runs the pipeline with an explicit profile
func RunScreeningWithConfig(ctx context.Context, basePath string, profile *core.ScanProfile) (*core.ScreeningReport, error) {
	service, err := core.NewScreeningService(basePath, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize screening service: %w", err)
	}

	return service.Run(ctx), nil
}

// AssessFile classifies a single file with the built-in pattern tables,
// without running the full directory pipeline
func AssessFile(path string) core.FileAssessment {
	return core.NewRiskTagger().AssessFileRisk(path)
}
