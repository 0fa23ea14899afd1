// Package audit keeps an append-only JSON Lines journal of materialization
// runs: when each run started and ended, and every file it copied, moved or
// failed on.
package audit

import "time"

// RunID is a unique identifier for each materialization run (UUID v4).
type RunID string

// EventType represents the type of journal event.
type EventType string

const (
	// Run lifecycle events
	EventRunStart EventType = "RUN_START"
	EventRunEnd   EventType = "RUN_END"

	// File operation events
	EventCopy  EventType = "COPY"
	EventMove  EventType = "MOVE"
	EventError EventType = "ERROR"

	// System events
	EventRotation       EventType = "ROTATION"
	EventLogInitialized EventType = "LOG_INITIALIZED"
)

// OperationStatus represents the outcome of an operation.
type OperationStatus string

const (
	StatusSuccess OperationStatus = "SUCCESS"
	StatusFailure OperationStatus = "FAILURE"
)

// ReasonCode explains a non-default outcome of a file operation.
type ReasonCode string

const (
	// ReasonDuplicateRenamed marks a file stored under a _duplicate name.
	ReasonDuplicateRenamed ReasonCode = "DUPLICATE_RENAMED"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
)

// RunMode is the materialization mode of a run.
type RunMode string

const (
	RunModeCopy RunMode = "COPY"
	RunModeMove RunMode = "MOVE"
)

// ErrorDetails contains detailed information about an error.
type ErrorDetails struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
	Operation    string `json:"operation"`
}

// Event is a single journal record for a file operation or system event.
type Event struct {
	Timestamp       time.Time         `json:"timestamp"`                 // ISO 8601 format
	RunID           RunID             `json:"runId"`                     // Run identifier
	EventType       EventType         `json:"eventType"`                 // Type of event
	Status          OperationStatus   `json:"status"`                    // Operation outcome
	SourcePath      string            `json:"sourcePath,omitempty"`      // Original file path
	DestinationPath string            `json:"destinationPath,omitempty"` // Target file path
	ReasonCode      ReasonCode        `json:"reasonCode,omitempty"`      // Reason for a renamed destination
	ErrorDetails    *ErrorDetails     `json:"errorDetails,omitempty"`    // Error information
	Metadata        map[string]string `json:"metadata,omitempty"`        // Additional metadata
}

// RunSummary contains statistics for a run.
type RunSummary struct {
	Folders int `json:"folders"`
	Files   int `json:"files"`
	Errors  int `json:"errors"`
}

// RunInfo contains metadata and summary for a run.
type RunInfo struct {
	RunID     RunID      `json:"runId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Status    RunStatus  `json:"status"`
	Mode      RunMode    `json:"mode"`
	Target    string     `json:"target"`
	Summary   RunSummary `json:"summary"`
}

// Config holds configuration for the journal.
type Config struct {
	Directory    string // Journal directory
	RotationSize int64  // Rotate when the active file exceeds this size (0 = never)
}

// DefaultConfig returns a Config with the default journal location.
func DefaultConfig() Config {
	return Config{
		Directory:    ".camsort/journal",
		RotationSize: 10 * 1024 * 1024, // 10MB
	}
}
