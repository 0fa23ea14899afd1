package orchestrator

import (
	"time"

	"camsort/internal/audit"
	"camsort/internal/classifier"
	"camsort/internal/organizer"
)

// RunSummary contains statistics from a materialization.
type RunSummary struct {
	Folders  int            // Plan entries processed
	Files    int            // Files copied or moved
	Renamed  int            // Files stored under a _duplicate name
	Errors   int            // Failed files, plus the aborting failure if any
	Duration time.Duration  // Total processing time
	ByFolder map[string]int // Files per folder (only populated in verbose mode)
}

// GenerateSummary creates a summary from a materialization report.
// When verbose is true, ByFolder holds the planned file count of every folder,
// keyed by name ("" for the miscellaneous folder).
func GenerateSummary(report *organizer.Report, plan *classifier.Plan, verbose bool) *RunSummary {
	if report == nil {
		return &RunSummary{}
	}

	summary := &RunSummary{
		Folders:  report.Folders,
		Files:    report.Files,
		Renamed:  report.Renamed,
		Errors:   len(report.Failures),
		Duration: report.Duration,
	}

	if verbose && plan != nil {
		summary.ByFolder = make(map[string]int)
		for _, f := range plan.Folders {
			summary.ByFolder[f.Name] += len(f.Actions)
		}
	}

	return summary
}

// JournalSummary converts the summary for the RUN_END journal event.
func (s *RunSummary) JournalSummary() audit.RunSummary {
	return audit.RunSummary{
		Folders: s.Folders,
		Files:   s.Files,
		Errors:  s.Errors,
	}
}

// HasErrors returns true if any file failed.
func (s *RunSummary) HasErrors() bool {
	return s.Errors > 0
}
