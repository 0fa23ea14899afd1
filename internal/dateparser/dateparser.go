// Package dateparser parses and formats the timestamps stored in results files.
package dateparser

import (
	"fmt"
	"strings"
	"time"
)

// DateParseErrorType represents the type of date parsing error.
type DateParseErrorType string

const (
	Missing       DateParseErrorType = "MISSING"
	InvalidFormat DateParseErrorType = "INVALID_FORMAT"
)

// DateParseError represents an error that occurred during date parsing.
type DateParseError struct {
	Type   DateParseErrorType
	Value  string
	Layout string
	Err    error
}

func (e *DateParseError) Error() string {
	switch e.Type {
	case Missing:
		return "missing timestamp value"
	case InvalidFormat:
		return fmt.Sprintf("invalid timestamp %q: expected layout %q", e.Value, e.Layout)
	default:
		return fmt.Sprintf("timestamp parse error: %q", e.Value)
	}
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

const (
	// CaptureLayout is the EXIF DateTimeOriginal layout (YYYY:MM:DD HH:MM:SS).
	CaptureLayout = "2006:01:02 15:04:05"
	// FileTimeLayout is the fixed-precision layout FileCTime/FileMTime are written with.
	FileTimeLayout = "2006-01-02 15:04:05.000000"
	// TimestampLayout is the layout timestamps take in folder and file names.
	TimestampLayout = "2006-01-02 15:04:05"
)

// fileTimeParseLayout accepts values with or without fractional seconds.
const fileTimeParseLayout = "2006-01-02 15:04:05"

// ParseCaptureTime parses an EXIF DateTimeOriginal value in loc.
// Surrounding whitespace, NUL padding and quotes are ignored.
func ParseCaptureTime(value string, loc *time.Location) (time.Time, error) {
	return parse(value, CaptureLayout, CaptureLayout, loc)
}

// ParseFileTime parses a FileCTime/FileMTime value in loc. Fractional seconds are optional.
func ParseFileTime(value string, loc *time.Location) (time.Time, error) {
	return parse(value, fileTimeParseLayout, FileTimeLayout, loc)
}

func parse(value, layout, reported string, loc *time.Location) (time.Time, error) {
	cleaned := Clean(value)
	if cleaned == "" {
		return time.Time{}, &DateParseError{Type: Missing, Value: value, Layout: reported}
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(layout, cleaned, loc)
	if err != nil {
		return time.Time{}, &DateParseError{Type: InvalidFormat, Value: value, Layout: reported, Err: err}
	}
	return t, nil
}

// Clean strips whitespace, NUL padding and one level of surrounding quotes from a tag value.
func Clean(value string) string {
	v := strings.Trim(value, " \t\r\n\x00")
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '\'' || first == '"') && first == last {
			v = v[1 : len(v)-1]
		}
	}
	return strings.Trim(v, " \x00")
}

// FormatFileTime formats t truncated to whole seconds with FileTimeLayout.
func FormatFileTime(t time.Time) string {
	return t.Truncate(time.Second).Format(FileTimeLayout)
}

// FormatTimestamp formats t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// FormatDuration formats d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
