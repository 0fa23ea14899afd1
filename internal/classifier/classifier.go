// Package classifier groups analyzed files into shooting sessions and names
// a folder for each session from its capture attributes.
package classifier

import (
	"fmt"
	"sort"
	"time"

	"camsort/internal/dateparser"
	"camsort/internal/logging"
	"camsort/internal/messages"
	"camsort/internal/results"
)

// Options configures a classification run.
type Options struct {
	MinMembers int            // Sessions with fewer members go to the miscellaneous folder
	MaxGap     time.Duration  // Largest gap between successive files of one session
	Location   *time.Location // Zone timestamps are interpreted in (default: time.Local)
	Verbose    bool           // Log per-session counters
	Logger     logging.Logger
	Renderer   messages.Renderer
}

// DefaultOptions returns the default options: sessions of at least 3 files with
// gaps of at most 60 minutes.
func DefaultOptions() Options {
	return Options{
		MinMembers: 3,
		MaxGap:     60 * time.Minute,
		Location:   time.Local,
		Logger:     logging.Nop(),
		Renderer:   messages.English{},
	}
}

// Result is the outcome of a classification run.
type Result struct {
	Plan     *Plan
	Buckets  []Bucket // Every session, chronological, including demoted ones
	Warnings []Warning
}

// MiscCount returns the number of files in the miscellaneous folder.
func (r *Result) MiscCount() int {
	if misc := r.Plan.Misc(); misc != nil {
		return len(misc.Actions)
	}
	return 0
}

// Classify derives every record, buckets them by time gap and builds the plan.
func Classify(rs results.ResultSet, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Renderer == nil {
		opts.Renderer = messages.English{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(rs) == 0 {
		return nil, &ClassifyError{Type: NothingToClassify}
	}

	result := &Result{Plan: &Plan{}}

	records := make([]ClassifiedRecord, 0, len(rs))
	for _, r := range rs {
		cr, warnings, err := Derive(r, opts.Location, opts.Renderer)
		for _, w := range warnings {
			logWarning(opts.Logger, w)
		}
		result.Warnings = append(result.Warnings, warnings...)
		if err != nil {
			return nil, err
		}
		records = append(records, cr)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	result.Buckets = BucketByGap(records, opts.MaxGap)

	var misc []FileAction
	var lastRetained time.Time
	demotedSinceLast := 0
	for _, b := range result.Buckets {
		actions := make([]FileAction, len(b.Members))
		for i, m := range b.Members {
			actions[i] = FileAction{Source: m.Source.Path, TargetName: m.Name}
		}

		if len(b.Members) < opts.MinMembers {
			misc = append(misc, actions...)
			demotedSinceLast += len(actions)
			continue
		}

		name := FolderName(b, opts.Renderer)
		result.Plan.Folders = append(result.Plan.Folders, Folder{Name: name, Actions: actions})

		if opts.Verbose {
			if demotedSinceLast > 0 {
				opts.Logger.Info(messages.SkippingNothing,
					"skipped_from_buckets_files", demotedSinceLast,
					"last_bucket_timestamp", formatOptional(lastRetained),
					"start_bucket_timestamp", dateparser.FormatTimestamp(b.Start))
			}
			camera, brightness, orientation := b.Counters()
			opts.Logger.Info(messages.BucketDetails, "bucket_name", name)
			opts.Logger.Info(messages.CameraCounter, "camera_model_counter", camera.String())
			opts.Logger.Info(messages.BrightnessCounter, "brightness_counter", brightness.String())
			opts.Logger.Info(messages.OrientationCounter, "orientation_counter", orientation.String())
		}
		lastRetained = b.End()
		demotedSinceLast = 0
	}

	if len(misc) > 0 {
		result.Plan.Folders = append(result.Plan.Folders, Folder{Misc: true, Actions: misc})
	}
	return result, nil
}

// FolderName builds "{start} {count:3} files on {duration}" followed by the
// brightness and orientation phrases that apply.
func FolderName(b Bucket, r messages.Renderer) string {
	name := fmt.Sprintf("%s %3d%s%s",
		dateparser.FormatTimestamp(b.Start),
		len(b.Members),
		r.Text(messages.FilesOn, nil),
		dateparser.FormatDuration(b.Duration()))

	_, brightness, orientation := b.Counters()
	if label := DominanceLabel(brightness, BrightnessLabels, r); label != "" {
		name += " " + label
	}
	if label := DominanceLabel(orientation, OrientationLabels, r); label != "" {
		name += " " + label
	}
	return name
}

func logWarning(logger logging.Logger, w Warning) {
	if w.Field == TagDateTimeOriginal {
		logger.Warn(messages.WrongDateTime, "file_path", w.Path, "e", w.Err)
		return
	}
	logger.Warn(messages.WrongTagValue, "tag", w.Field, "file_path", w.Path, "e", w.Err)
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return "None"
	}
	return dateparser.FormatTimestamp(t)
}
