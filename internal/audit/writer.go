package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoActiveRun is returned when a file event is recorded outside a run.
var ErrNoActiveRun = errors.New("no active run: call StartRun first")

// Writer appends events to the journal. Every event is flushed and synced
// before the call returns.
type Writer struct {
	mu              sync.Mutex
	file            *os.File
	writer          *bufio.Writer
	logPath         string
	currentRun      *RunID
	config          Config
	rotationManager *RotationManager
}

// NewWriter opens (or creates) the active journal in config.Directory.
// A newly created journal starts with a LOG_INITIALIZED event.
func NewWriter(config Config) (*Writer, error) {
	if err := os.MkdirAll(config.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	logPath := filepath.Join(config.Directory, activeLogName)

	isNewLog := false
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		isNewLog = true
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	w := &Writer{
		file:            file,
		writer:          bufio.NewWriter(file),
		logPath:         logPath,
		config:          config,
		rotationManager: NewRotationManager(config),
	}

	if isNewLog {
		event := Event{
			Timestamp: time.Now().UTC(),
			EventType: EventLogInitialized,
			Status:    StatusSuccess,
			Metadata:  map[string]string{"logPath": logPath},
		}
		if err := w.appendLocked(event); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write LOG_INITIALIZED event: %w", err)
		}
	}

	return w, nil
}

// GenerateRunID generates a new UUID v4 run ID.
func GenerateRunID() (RunID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return RunID(id.String()), nil
}

// StartRun begins a run materializing into target and writes the RUN_START event.
func (w *Writer) StartRun(mode RunMode, target string) (RunID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	runID, err := GenerateRunID()
	if err != nil {
		return "", fmt.Errorf("failed to generate run ID: %w", err)
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRunStart,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"mode":   string(mode),
			"target": target,
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return "", fmt.Errorf("failed to write RUN_START event: %w", err)
	}

	w.currentRun = &runID
	return runID, nil
}

// EndRun records the run completion status and summary.
func (w *Writer) EndRun(runID RunID, status RunStatus, summary RunSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	opStatus := StatusSuccess
	if status == RunStatusFailed {
		opStatus = StatusFailure
	}

	event := Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRunEnd,
		Status:    opStatus,
		Metadata: map[string]string{
			"status":  string(status),
			"folders": strconv.Itoa(summary.Folders),
			"files":   strconv.Itoa(summary.Files),
			"errors":  strconv.Itoa(summary.Errors),
		},
	}
	if err := w.writeEventLocked(event); err != nil {
		return fmt.Errorf("failed to write RUN_END event: %w", err)
	}

	w.currentRun = nil
	return nil
}

// RecordCopy records a COPY event.
func (w *Writer) RecordCopy(source, dest string, reason ReasonCode) error {
	return w.recordFile(EventCopy, source, dest, reason)
}

// RecordMove records a MOVE event.
func (w *Writer) RecordMove(source, dest string, reason ReasonCode) error {
	return w.recordFile(EventMove, source, dest, reason)
}

func (w *Writer) recordFile(eventType EventType, source, dest string, reason ReasonCode) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return ErrNoActiveRun
	}
	return w.writeEventLocked(Event{
		Timestamp:       time.Now().UTC(),
		RunID:           *w.currentRun,
		EventType:       eventType,
		Status:          StatusSuccess,
		SourcePath:      source,
		DestinationPath: dest,
		ReasonCode:      reason,
	})
}

// RecordError records an ERROR event for a file that could not be processed.
func (w *Writer) RecordError(source, errType, errMsg, operation string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentRun == nil {
		return ErrNoActiveRun
	}
	return w.writeEventLocked(Event{
		Timestamp:  time.Now().UTC(),
		RunID:      *w.currentRun,
		EventType:  EventError,
		Status:     StatusFailure,
		SourcePath: source,
		ErrorDetails: &ErrorDetails{
			ErrorType:    errType,
			ErrorMessage: errMsg,
			Operation:    operation,
		},
	})
}

// writeEventLocked appends an event and rotates the journal when it grows too large.
func (w *Writer) writeEventLocked(event Event) error {
	if err := w.appendLocked(event); err != nil {
		return err
	}
	return w.checkAndRotate()
}

func (w *Writer) appendLocked(event Event) error {
	data, err := event.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event to disk: %w", err)
	}
	return nil
}

// checkAndRotate closes the active file with a ROTATION event, renames it and reopens a fresh one.
func (w *Writer) checkAndRotate() error {
	needsRotation, err := w.rotationManager.NeedsRotation(w.logPath)
	if err != nil || !needsRotation {
		return err
	}

	rotatedFilename := w.rotationManager.GenerateRotatedFilename(filepath.Dir(w.logPath))

	var runID RunID
	if w.currentRun != nil {
		runID = *w.currentRun
	}
	if err := w.appendLocked(CreateRotationEvent(runID, filepath.Base(w.logPath), rotatedFilename)); err != nil {
		return fmt.Errorf("failed to write rotation event: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close file for rotation: %w", err)
	}
	if _, err := w.rotationManager.RotateWithFilename(w.logPath, rotatedFilename); err != nil {
		return err
	}

	file, err := os.OpenFile(w.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new journal file after rotation: %w", err)
	}
	w.file = file
	w.writer = bufio.NewWriter(file)
	return nil
}

// Close flushes any buffered data and closes the journal file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}

// CurrentRunID returns the current run ID, or nil if no run is active.
func (w *Writer) CurrentRunID() *RunID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentRun
}

// LogPath returns the path to the active journal file.
func (w *Writer) LogPath() string {
	return w.logPath
}
