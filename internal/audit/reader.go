package audit

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Reader reads journal events across the active file and rotated segments.
type Reader struct {
	logDir string
}

// NewReader creates a new Reader for the given journal directory.
func NewReader(logDir string) *Reader {
	return &Reader{logDir: logDir}
}

// ListRuns returns every run in the journal, oldest first.
func (r *Reader) ListRuns() ([]RunInfo, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return extractRunInfos(events), nil
}

// GetRun returns all events for a specific run.
func (r *Reader) GetRun(runID RunID) ([]Event, error) {
	events, err := r.readAllEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	var runEvents []Event
	for _, event := range events {
		if event.RunID == runID {
			runEvents = append(runEvents, event)
		}
	}
	if len(runEvents) == 0 {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return runEvents, nil
}

// GetLatestRun returns the most recent run by start timestamp.
func (r *Reader) GetLatestRun() (*RunInfo, error) {
	runs, err := r.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs found")
	}
	return &runs[len(runs)-1], nil
}

// readAllEvents reads all events from all segments in chronological order.
// A missing journal directory has no events.
func (r *Reader) readAllEvents() ([]Event, error) {
	if _, err := os.Stat(r.logDir); os.IsNotExist(err) {
		return []Event{}, nil
	}

	logFiles, err := GetAllLogFiles(r.logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get journal files: %w", err)
	}

	allEvents := []Event{}
	for _, logFile := range logFiles {
		events, err := readEventsFromFile(logFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read events from %s: %w", logFile, err)
		}
		allEvents = append(allEvents, events...)
	}
	return allEvents, nil
}

func readEventsFromFile(filePath string) ([]Event, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)

	const maxScanTokenSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, maxScanTokenSize), maxScanTokenSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := UnmarshalJSONLine(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", lineNum, err)
		}
		events = append(events, *event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal file: %w", err)
	}
	return events, nil
}

// extractRunInfos groups events by run, skipping system events without a run ID.
func extractRunInfos(events []Event) []RunInfo {
	runEvents := make(map[RunID][]Event)
	var order []RunID
	for _, event := range events {
		if event.RunID == "" {
			continue
		}
		if _, seen := runEvents[event.RunID]; !seen {
			order = append(order, event.RunID)
		}
		runEvents[event.RunID] = append(runEvents[event.RunID], event)
	}

	runs := make([]RunInfo, 0, len(order))
	for _, runID := range order {
		runs = append(runs, buildRunInfo(runID, runEvents[runID]))
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartTime.Before(runs[j].StartTime)
	})
	return runs
}

// buildRunInfo constructs a RunInfo from the events of a single run. Counts
// from RUN_END win over counted file events.
func buildRunInfo(runID RunID, events []Event) RunInfo {
	info := RunInfo{
		RunID:  runID,
		Status: RunStatusInProgress,
	}

	folders := map[string]bool{}
	for _, event := range events {
		switch event.EventType {
		case EventRunStart:
			info.StartTime = event.Timestamp
			info.Mode = RunMode(event.Metadata["mode"])
			info.Target = event.Metadata["target"]

		case EventRunEnd:
			endTime := event.Timestamp
			info.EndTime = &endTime
			if status, ok := event.Metadata["status"]; ok {
				info.Status = RunStatus(status)
			}
			info.Summary = parseSummary(event.Metadata)
			return info

		case EventCopy, EventMove:
			info.Summary.Files++
			folders[parentDir(event.DestinationPath)] = true
			info.Summary.Folders = len(folders)

		case EventError:
			info.Summary.Errors++
		}
	}
	return info
}

func parseSummary(metadata map[string]string) RunSummary {
	var summary RunSummary
	summary.Folders, _ = strconv.Atoi(metadata["folders"])
	summary.Files, _ = strconv.Atoi(metadata["files"])
	summary.Errors, _ = strconv.Atoi(metadata["errors"])
	return summary
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return ""
}
