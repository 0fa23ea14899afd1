package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"camsort/internal/logging"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string             // Settings key with the issue (e.g., "min_folder_files_count")
	Message  string             // Human-readable description
	Severity ValidationSeverity // "error" or "warning"
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

// Err returns a ConfigError summarizing the errors, or nil when the result is valid.
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return &ConfigError{Type: ValidationError, Message: strings.Join(msgs, "; ")}
}

func (r *ValidationResult) add(issues []ConfigValidationError) {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			r.Errors = append(r.Errors, issue)
		} else {
			r.Warnings = append(r.Warnings, issue)
		}
	}
	r.Valid = len(r.Errors) == 0
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
		Valid:    true,
	}
}

// ValidateSettings checks values and paths and returns all findings.
func ValidateSettings(s *Settings) *ValidationResult {
	result := ValidateValues(s)
	result.add(ValidatePaths(s))
	return result
}

// ValidateValues checks every setting except the source folder, which only
// operations that scan need to exist.
func ValidateValues(s *Settings) *ValidationResult {
	result := newResult()
	result.add(validateNumbers(s))
	result.add(ValidatePolicies(s))
	result.add(validateTarget(s))
	return result
}

func validateNumbers(s *Settings) []ConfigValidationError {
	var errors []ConfigValidationError

	if s.MinFolderFilesCount < 1 {
		errors = append(errors, ConfigValidationError{
			Field:    "min_folder_files_count",
			Message:  "must be at least 1, got " + strconv.Itoa(s.MinFolderFilesCount),
			Severity: SeverityError,
		})
	}
	if s.MaxMinutesBetween < 0 {
		errors = append(errors, ConfigValidationError{
			Field:    "max_minutes_between_files_in_folder",
			Message:  "must be a non-negative integer",
			Severity: SeverityError,
		})
	}
	if s.WatchDebounceSeconds < 1 {
		errors = append(errors, ConfigValidationError{
			Field:    "watch_debounce_seconds",
			Message:  "must be at least 1",
			Severity: SeverityError,
		})
	}
	if s.ResultsFilePath == "" {
		errors = append(errors, ConfigValidationError{
			Field:    "results_file_path",
			Message:  "cannot be empty",
			Severity: SeverityError,
		})
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errors = append(errors, ConfigValidationError{
			Field:    "log_level",
			Message:  err.Error(),
			Severity: SeverityError,
		})
	}
	for i, pattern := range s.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errors = append(errors, ConfigValidationError{
				Field:    formatField("ignore_patterns", i),
				Message:  "invalid pattern \"" + pattern + "\": " + err.Error(),
				Severity: SeverityError,
			})
		}
	}

	return errors
}

// ValidatePolicies checks that policy values are valid.
func ValidatePolicies(s *Settings) []ConfigValidationError {
	var errors []ConfigValidationError

	check := func(field, value string, valid ...string) {
		for _, v := range valid {
			if value == v {
				return
			}
		}
		errors = append(errors, ConfigValidationError{
			Field:    field,
			Message:  "invalid value \"" + value + "\". Must be one of \"" + strings.Join(valid, "\", \"") + "\"",
			Severity: SeverityError,
		})
	}

	check("failure_policy", s.FailurePolicy, FailurePolicyAbort, FailurePolicyContinue)
	check("collision_policy", s.CollisionPolicy, CollisionPolicyOverwrite, CollisionPolicyRename)
	check("symlink_policy", s.SymlinkPolicy, SymlinkPolicyFollow, SymlinkPolicySkip, SymlinkPolicyError)

	return errors
}

// ValidatePaths checks that the source folder is an existing readable directory.
func ValidatePaths(s *Settings) []ConfigValidationError {
	var errors []ConfigValidationError

	info, err := os.Stat(s.SourceFolder)
	switch {
	case os.IsNotExist(err):
		errors = append(errors, ConfigValidationError{
			Field:    "source_folder",
			Message:  "directory does not exist: " + s.SourceFolder,
			Severity: SeverityError,
		})
	case os.IsPermission(err):
		errors = append(errors, ConfigValidationError{
			Field:    "source_folder",
			Message:  "directory is not accessible: " + s.SourceFolder,
			Severity: SeverityError,
		})
	case err != nil:
		errors = append(errors, ConfigValidationError{
			Field:    "source_folder",
			Message:  "error accessing directory: " + err.Error(),
			Severity: SeverityError,
		})
	case !info.IsDir():
		errors = append(errors, ConfigValidationError{
			Field:    "source_folder",
			Message:  "path is not a directory: " + s.SourceFolder,
			Severity: SeverityError,
		})
	default:
		if f, err := os.Open(s.SourceFolder); err != nil {
			errors = append(errors, ConfigValidationError{
				Field:    "source_folder",
				Message:  "directory is not readable: " + s.SourceFolder,
				Severity: SeverityError,
			})
		} else {
			f.Close()
		}
	}

	if s.TargetFolder != "" && directoriesOverlap(s.SourceFolder, s.TargetFolder) {
		errors = append(errors, ConfigValidationError{
			Field:    "target_folder",
			Message:  "target folder \"" + s.TargetFolder + "\" overlaps with source folder \"" + s.SourceFolder + "\"; classified files will be scanned again",
			Severity: SeverityWarning,
		})
	}

	return errors
}

// validateTarget checks that an existing target folder is a directory.
func validateTarget(s *Settings) []ConfigValidationError {
	if s.TargetFolder == "" {
		return []ConfigValidationError{{
			Field:    "target_folder",
			Message:  "cannot be empty",
			Severity: SeverityError,
		}}
	}
	var errors []ConfigValidationError
	if s.IsReplaceTarget && containsDir(s.TargetFolder, s.SourceFolder) {
		errors = append(errors, ConfigValidationError{
			Field:    "is_replace_target",
			Message:  "target folder " + s.TargetFolder + " contains source folder " + s.SourceFolder + " and would be deleted with it",
			Severity: SeverityError,
		})
	}

	info, err := os.Stat(s.TargetFolder)
	switch {
	case err == nil && !info.IsDir():
		errors = append(errors, ConfigValidationError{
			Field:    "target_folder",
			Message:  "path exists but is not a directory: " + s.TargetFolder,
			Severity: SeverityError,
		})
	case err == nil && s.IsReplaceTarget:
		errors = append(errors, ConfigValidationError{
			Field:    "is_replace_target",
			Message:  "existing folder " + s.TargetFolder + " will be deleted before materializing",
			Severity: SeverityWarning,
		})
	}
	return errors
}

// formatField creates a field reference string for validation errors.
func formatField(name string, index int) string {
	return name + "[" + strconv.Itoa(index) + "]"
}

// containsDir reports whether parent is dir or one of its ancestors.
func containsDir(parent, dir string) bool {
	cleanParent := absClean(parent)
	cleanDir := absClean(dir)
	return cleanParent == cleanDir || strings.HasPrefix(cleanDir, cleanParent+string(filepath.Separator))
}

// directoriesOverlap checks if two directories overlap (one is parent/ancestor of the other).
func directoriesOverlap(dir1, dir2 string) bool {
	clean1 := absClean(dir1)
	clean2 := absClean(dir2)

	if clean1 == clean2 {
		return true
	}
	if strings.HasPrefix(clean2, clean1+string(filepath.Separator)) {
		return true
	}
	return strings.HasPrefix(clean1, clean2+string(filepath.Separator))
}

func absClean(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
