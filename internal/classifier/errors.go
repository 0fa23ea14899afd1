package classifier

import "fmt"

// ClassifyErrorType represents the type of fatal classification error.
type ClassifyErrorType string

const (
	// NothingToClassify indicates an empty result set.
	NothingToClassify ClassifyErrorType = "NOTHING_TO_CLASSIFY"
	// MissingTimestamp indicates a record with no capture time and no FileCTime.
	MissingTimestamp ClassifyErrorType = "MISSING_TIMESTAMP"
	// InvalidTimestamp indicates a record whose FileCTime cannot be parsed.
	InvalidTimestamp ClassifyErrorType = "INVALID_TIMESTAMP"
)

// ClassifyError aborts a classification run.
type ClassifyError struct {
	Type ClassifyErrorType
	Path string
	Err  error
}

func (e *ClassifyError) Error() string {
	switch e.Type {
	case NothingToClassify:
		return "nothing to classify: no results to analyze, make sure that they are loaded"
	case MissingTimestamp:
		return fmt.Sprintf("no usable timestamp for %s: FileCTime is missing", e.Path)
	case InvalidTimestamp:
		return fmt.Sprintf("no usable timestamp for %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("classification error for %s", e.Path)
	}
}

func (e *ClassifyError) Unwrap() error {
	return e.Err
}

// Warning is a recoverable per-record problem. The record is still classified.
type Warning struct {
	Path  string
	Field string
	Value string
	Err   error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s %q: %v", w.Path, w.Field, w.Value, w.Err)
}
