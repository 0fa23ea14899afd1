// Package messages holds the message keys the core reports through its log sink and
// the fallback English rendering of those keys.
//
// A key is an English template with %{name} placeholders. Callers that localize output
// look the key up in their own catalog; everyone else renders it with Format.
package messages

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Form selects the grammatical form of a descriptive label.
type Form int

const (
	// One is the singular form, used in per-file target names.
	One Form = iota
	// Few is the indefinite form, used after "mostly" and in "mixed" phrases.
	Few
	// Many is the collective form, used after "all".
	Many
)

// Descriptive labels.
const (
	Dark               = "Dark"
	Light              = "Light"
	Landscape          = "Landscape"
	Portrait           = "Portrait"
	UnknownOrientation = "Unknown orientation"
)

// Dominance phrases.
const (
	AllOf    = "all %{label}"
	MostlyOf = "mostly %{label}"
	MixedOf  = "mixed %{label1} and %{label2}"
	FilesOn  = " files on "
)

// Log message keys.
const (
	Separator           = "------------------------------------"
	Started             = "ClassifyCameraFiles: started with settings %{settings}"
	LookingThrough      = "Looking through '%{source_folder}'..."
	FileAnalyzed        = "  %{file_path} -> %{features}"
	FileSkipped         = "Skipping '%{file_path}': %{e}"
	DirectorySkipped    = "Skipping folder '%{folder}': %{e}"
	Analyzed            = "Analyzed %{files_number} files from '%{source_folder}' in %{duration}."
	Dumped              = "Dumped %{files_number} files analyze results with %{possible_keys} columns into '%{file_path}'."
	FoundResults        = "Found %{files_number} files docs with %{keys} fields in '%{file_path}'."
	FoundNothing        = "Found nothing in '%{file_path}'."
	NoResults           = "No results to analyze, make sure that they are loaded."
	WrongDateTime       = "Wrong DateTimeOriginal value in %{file_path} file: %{e}"
	WrongTagValue       = "Wrong %{tag} value in %{file_path} file: %{e}"
	SkippingNothing     = "Skipping %{skipped_from_buckets_files} files as 'nothing common' in %{last_bucket_timestamp}...%{start_bucket_timestamp}"
	BucketDetails       = "%{bucket_name}:"
	CameraCounter       = "    Camera: %{camera_model_counter}"
	BrightnessCounter   = "    Brightness: %{brightness_counter}"
	OrientationCounter  = "    Orientation: %{orientation_counter}"
	Total               = "Total %{folders_len} folders and %{files_number} 'nothing common' files."
	PlanFolder          = "  %{folder_name}: %{files_number} files"
	Copying             = "Copying %{files_number} files into %{folder_name}..."
	Moving              = "Moving %{files_number} files into %{folder_name}..."
	Copied              = "Created %{folders_number} folders and copied %{files_number} files into '%{folder}' in %{duration}."
	Moved               = "Created %{folders_number} folders and moved %{files_number} files into '%{folder}' in %{duration}."
	FileFailed          = "Failed to process '%{file_path}': %{e}"
	OperationFailed     = "%{operation} failed: %{e}"
	WatchStarted        = "Watching '%{source_folder}' for new files..."
	WatchChanged        = "Detected changes in '%{source_folder}', re-analyzing..."
	WatchStopped        = "Stopped watching after %{duration}: %{runs} analyze runs."
	ConfigWarning       = "Settings warning for %{field}: %{e}"
	ReplacingTarget     = "Replacing target folder '%{folder}'..."
	JournalUnavailable  = "Journal disabled: %{e}"
	ProgressUpdate      = "Processed %{done} of %{total} files."
)

var placeholderPattern = regexp.MustCompile(`%\{(\w+)\}`)

// Placeholders returns the parameter names referenced by template, in order of appearance.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Format substitutes %{name} placeholders in template with params.
// Placeholders without a matching parameter are left untouched.
func Format(template string, params map[string]any) string {
	if len(params) == 0 {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		value, ok := params[name]
		if !ok {
			return match
		}
		return fmt.Sprint(value)
	})
}

// Renderer turns message keys and labels into display text.
type Renderer interface {
	Text(key string, params map[string]any) string
	Label(label string, form Form) string
}

// English renders keys as their own templates. English has no separate grammatical
// forms for the descriptive labels, so Label returns the label unchanged.
type English struct{}

func (English) Text(key string, params map[string]any) string { return Format(key, params) }

func (English) Label(label string, _ Form) string { return label }

// Counter is a label frequency table rendered like "{Dark: 3, Light: 1}".
type Counter map[string]int

// String renders the counter ordered by descending count, then label.
func (c Counter) String() string {
	labels := make([]string, 0, len(c))
	for label := range c {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if c[labels[i]] != c[labels[j]] {
			return c[labels[i]] > c[labels[j]]
		}
		return labels[i] < labels[j]
	})

	parts := make([]string, len(labels))
	for i, label := range labels {
		parts[i] = fmt.Sprintf("%q: %d", label, c[label])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Total returns the sum of all counts.
func (c Counter) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
