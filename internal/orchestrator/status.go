package orchestrator

import (
	"path/filepath"

	"camsort/internal/classifier"
)

// PlanStatus describes where a plan would put every file, without touching
// the filesystem.
type PlanStatus struct {
	Target     string
	Folders    []FolderStatus // Plan order
	GrandTotal int            // Total count of all planned files
}

// FolderStatus describes one plan entry.
type FolderStatus struct {
	Display     string   // Folder name, or the target root for the miscellaneous folder
	Destination string   // Directory the files go into
	Misc        bool
	Files       []string // Destination paths in plan order
	Total       int
}

// Status resolves every plan entry against target.
func Status(plan *classifier.Plan, target string) *PlanStatus {
	status := &PlanStatus{Target: target}

	for _, folder := range plan.Folders {
		entry := FolderStatus{
			Display:     target,
			Destination: target,
			Misc:        folder.Misc,
			Files:       make([]string, 0, len(folder.Actions)),
		}
		if !folder.Misc {
			entry.Display = folder.Name
			entry.Destination = filepath.Join(target, folder.Name)
		}
		for _, action := range folder.Actions {
			entry.Files = append(entry.Files, filepath.Join(entry.Destination, action.TargetName))
		}
		entry.Total = len(entry.Files)

		status.Folders = append(status.Folders, entry)
		status.GrandTotal += entry.Total
	}

	return status
}
