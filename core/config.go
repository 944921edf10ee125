package core

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ProfileMetadata contains information about a scan profile
type ProfileMetadata struct {
	// Version of the profile
	Version string `yaml:"version"`

	// When the profile was created
	CreatedAt time.Time `yaml:"created_at"`

	// Last modification time
	UpdatedAt time.Time `yaml:"updated_at"`

	// Description of the profile
	Description string `yaml:"description"`

	// Author of the profile
	Author string `yaml:"author"`

	// Hash of the profile content for integrity verification
	Hash string `yaml:"hash,omitempty"`
}

// Limits bound the fault-tolerant scanning loop
type Limits struct {
	// Total attempts per directory before it is recorded as exhausted
	MaxRetries int `yaml:"max_retries"`

	// Wall-clock budget for one directory attempt, in seconds
	DirectoryTimeoutSeconds int `yaml:"directory_timeout_seconds"`

	// Wall-clock budget for one file assessment, in seconds
	FileTimeoutSeconds int `yaml:"file_timeout_seconds"`

	// Enumeration cap; files beyond it are excluded from the run
	MaxFilesPerDirectory int `yaml:"max_files_per_directory"`

	// Delay between directory attempts, in seconds
	RetryDelaySeconds int `yaml:"retry_delay_seconds"`
}

// DirectoryTimeout returns the per-attempt budget as a duration
func (l Limits) DirectoryTimeout() time.Duration {
	return time.Duration(l.DirectoryTimeoutSeconds) * time.Second
}

// FileTimeout returns the per-file budget as a duration
func (l Limits) FileTimeout() time.Duration {
	return time.Duration(l.FileTimeoutSeconds) * time.Second
}

// RetryDelay returns the inter-attempt delay as a duration
func (l Limits) RetryDelay() time.Duration {
	return time.Duration(l.RetryDelaySeconds) * time.Second
}

// Thresholds tune the aggregation and readiness verdicts. The approval gate
// (ApprovalHighRiskMax) and the critical-issue detector (HighRiskCritical)
// carry different high-risk limits; both are applied.
type Thresholds struct {
	// High-risk file count above which a critical issue is raised
	HighRiskCritical int `yaml:"high_risk_critical"`

	// Audit-needed file count above which a critical issue is raised
	AuditCritical int `yaml:"audit_critical"`

	// Maximum high-risk files tolerated by the approval gate
	ApprovalHighRiskMax int `yaml:"approval_high_risk_max"`

	// Fraction of HIGH files above which the overall level is HIGH
	HighRiskPct float64 `yaml:"high_risk_pct"`

	// Fraction of MEDIUM files above which the overall level is MEDIUM
	MediumRiskPct float64 `yaml:"medium_risk_pct"`

	// Framework count considered good compliance coverage
	GoodFrameworkCount int `yaml:"good_framework_count"`
}

// ScanProfile defines a complete screening configuration
type ScanProfile struct {
	// Metadata about the profile
	Metadata ProfileMetadata `yaml:"metadata"`

	// Top-level directory names to scan under the base path
	Directories []string `yaml:"directories"`

	// Retry/timeout/cap envelope
	Limits Limits `yaml:"limits"`

	// Aggregation and readiness tuning
	Thresholds Thresholds `yaml:"thresholds"`

	// Custom security regex patterns, name -> pattern, layered on top of
	// the built-in detector tables
	CustomPatterns map[string]string `yaml:"custom_patterns,omitempty"`
}

// DefaultProfile returns a profile with the documented defaults: the four
// standard directories, 3 attempts, 30s/5s timeouts, a 100-file cap.
func DefaultProfile() *ScanProfile {
	return &ScanProfile{
		Metadata: ProfileMetadata{
			Version:     "1.0.0",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
			Description: "Default risk screening profile",
			Author:      "riskscreen",
		},
		Directories: []string{"tidyllm", "v2", "onboarding", "pending"},
		Limits: Limits{
			MaxRetries:              3,
			DirectoryTimeoutSeconds: 30,
			FileTimeoutSeconds:      5,
			MaxFilesPerDirectory:    100,
			RetryDelaySeconds:       1,
		},
		Thresholds: DefaultThresholds(),
	}
}

// DefaultThresholds returns the documented aggregation thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighRiskCritical:    10,
		AuditCritical:       20,
		ApprovalHighRiskMax: 5,
		HighRiskPct:         0.10,
		MediumRiskPct:       0.30,
		GoodFrameworkCount:  3,
	}
}

// LoadProfile reads a YAML profile file and unmarshals it into a ScanProfile
func LoadProfile(path string) (*ScanProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var profile ScanProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if err := validateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	// Generate hash for integrity checking
	profile.Metadata.Hash = calculateProfileHash(data)

	return &profile, nil
}

// SaveProfile saves a profile to a YAML file
func SaveProfile(profile *ScanProfile, path string) error {
	profile.Metadata.UpdatedAt = time.Now()

	data, err := yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	// Calculate and update the hash for integrity checking
	profile.Metadata.Hash = calculateProfileHash(data)

	// Re-marshal with the updated hash
	data, err = yaml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to re-marshal profile with hash: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	return nil
}

// validateProfile checks if a profile is usable
func validateProfile(profile *ScanProfile) error {
	if len(profile.Directories) == 0 {
		return fmt.Errorf("profile has no directories to scan")
	}

	if profile.Limits.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive, got %d", profile.Limits.MaxRetries)
	}
	if profile.Limits.DirectoryTimeoutSeconds <= 0 {
		return fmt.Errorf("directory_timeout_seconds must be positive, got %d", profile.Limits.DirectoryTimeoutSeconds)
	}
	if profile.Limits.FileTimeoutSeconds <= 0 {
		return fmt.Errorf("file_timeout_seconds must be positive, got %d", profile.Limits.FileTimeoutSeconds)
	}
	if profile.Limits.MaxFilesPerDirectory <= 0 {
		return fmt.Errorf("max_files_per_directory must be positive, got %d", profile.Limits.MaxFilesPerDirectory)
	}

	for name, pattern := range profile.CustomPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("custom pattern '%s' does not compile: %w", name, err)
		}
	}

	return nil
}

// calculateProfileHash generates a hash of the profile content for
// integrity checking
func calculateProfileHash(data []byte) string {
	return Fingerprint(string(data))
}
