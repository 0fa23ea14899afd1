package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	activeLogName   = "camsort-journal.jsonl"
	segmentPrefix   = "camsort-journal-"
	segmentSuffix   = ".jsonl"
	rotatedNameTime = "20060102-150405"
)

// RotationManager decides when the active journal file is rotated and renames it.
type RotationManager struct {
	config Config
}

// NewRotationManager creates a new RotationManager with the given configuration.
func NewRotationManager(config Config) *RotationManager {
	return &RotationManager{config: config}
}

// NeedsRotation reports whether the file at logPath has reached the rotation size.
func (rm *RotationManager) NeedsRotation(logPath string) (bool, error) {
	if rm.config.RotationSize <= 0 {
		return false, nil
	}
	info, err := os.Stat(logPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat journal file: %w", err)
	}
	return info.Size() >= rm.config.RotationSize, nil
}

// GenerateRotatedFilename creates an unused filename for a rotated segment in logDir.
// Format: camsort-journal-YYYYMMDD-HHMMSS-mmm-SSS.jsonl, where SSS orders
// segments rotated within the same millisecond.
func (rm *RotationManager) GenerateRotatedFilename(logDir string) string {
	now := time.Now()
	stamp := fmt.Sprintf("%s-%03d", now.Format(rotatedNameTime), now.Nanosecond()/1000000)
	for seq := 0; ; seq++ {
		name := fmt.Sprintf("%s%s-%03d%s", segmentPrefix, stamp, seq, segmentSuffix)
		if _, err := os.Stat(filepath.Join(logDir, name)); os.IsNotExist(err) {
			return name
		}
	}
}

// RotateWithFilename renames the active journal to rotatedFilename in the same directory.
func (rm *RotationManager) RotateWithFilename(logPath, rotatedFilename string) (string, error) {
	rotatedPath := filepath.Join(filepath.Dir(logPath), rotatedFilename)
	if err := os.Rename(logPath, rotatedPath); err != nil {
		return "", fmt.Errorf("failed to rename journal file during rotation: %w", err)
	}
	return rotatedPath, nil
}

// DiscoverSegments finds rotated segments in the directory, oldest first.
func DiscoverSegments(logDir string) ([]string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) && name != activeLogName {
			segments = append(segments, name)
		}
	}

	sort.Strings(segments)
	return segments, nil
}

// GetAllLogFiles returns rotated segments followed by the active journal, oldest first.
func GetAllLogFiles(logDir string) ([]string, error) {
	segments, err := DiscoverSegments(logDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, seg := range segments {
		files = append(files, filepath.Join(logDir, seg))
	}

	activeLog := filepath.Join(logDir, activeLogName)
	if _, err := os.Stat(activeLog); err == nil {
		files = append(files, activeLog)
	}

	return files, nil
}

// CreateRotationEvent creates a ROTATION event to be written before switching files.
func CreateRotationEvent(runID RunID, oldFile, newFile string) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		RunID:     runID,
		EventType: EventRotation,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"previousFile": oldFile,
			"newFile":      newFile,
		},
	}
}
