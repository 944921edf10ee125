package core

import "time"

// ProfileBuilder provides a fluent interface for creating scan profiles
type ProfileBuilder struct {
	profile *ScanProfile
}

// NewProfileBuilder creates a new profile builder seeded with the
// documented default limits and thresholds
func NewProfileBuilder() *ProfileBuilder {
	profile := DefaultProfile()
	profile.Metadata.CreatedAt = time.Now()
	profile.Metadata.UpdatedAt = time.Now()
	profile.Directories = []string{}
	return &ProfileBuilder{profile: profile}
}

// WithMetadata sets the profile metadata
func (b *ProfileBuilder) WithMetadata(version, description, author string) *ProfileBuilder {
	b.profile.Metadata.Version = version
	b.profile.Metadata.Description = description
	b.profile.Metadata.Author = author
	return b
}

// WithDirectories sets the top-level directories to scan
func (b *ProfileBuilder) WithDirectories(dirs ...string) *ProfileBuilder {
	b.profile.Directories = dirs
	return b
}

// WithMaxRetries sets the total attempts per directory
func (b *ProfileBuilder) WithMaxRetries(retries int) *ProfileBuilder {
	b.profile.Limits.MaxRetries = retries
	return b
}

// WithDirectoryTimeout sets the per-attempt wall-clock budget in seconds
func (b *ProfileBuilder) WithDirectoryTimeout(seconds int) *ProfileBuilder {
	b.profile.Limits.DirectoryTimeoutSeconds = seconds
	return b
}

// WithFileTimeout sets the per-file wall-clock budget in seconds
func (b *ProfileBuilder) WithFileTimeout(seconds int) *ProfileBuilder {
	b.profile.Limits.FileTimeoutSeconds = seconds
	return b
}

// WithFileCap sets the per-directory enumeration cap
func (b *ProfileBuilder) WithFileCap(maxFiles int) *ProfileBuilder {
	b.profile.Limits.MaxFilesPerDirectory = maxFiles
	return b
}

// WithRetryDelay sets the delay between directory attempts in seconds
func (b *ProfileBuilder) WithRetryDelay(seconds int) *ProfileBuilder {
	b.profile.Limits.RetryDelaySeconds = seconds
	return b
}

// WithThresholds replaces the aggregation thresholds
func (b *ProfileBuilder) WithThresholds(t Thresholds) *ProfileBuilder {
	b.profile.Thresholds = t
	return b
}

// AddCustomPattern layers a named security regex onto the built-in tables
func (b *ProfileBuilder) AddCustomPattern(name, pattern string) *ProfileBuilder {
	if b.profile.CustomPatterns == nil {
		b.profile.CustomPatterns = make(map[string]string)
	}
	b.profile.CustomPatterns[name] = pattern
	return b
}

// Build constructs and returns the final profile
func (b *ProfileBuilder) Build() *ScanProfile {
	b.profile.Metadata.UpdatedAt = time.Now()
	return b.profile
}
