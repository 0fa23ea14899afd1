package classifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"camsort/internal/dateparser"
	"camsort/internal/messages"
	"camsort/internal/results"
)

// Tag attribute names the classifier reads.
const (
	TagDateTimeOriginal = "DateTimeOriginal"
	TagMake             = "Make"
	TagModel            = "Model"
	TagOrientation      = "Orientation"
	TagFlash            = "Flash"
	TagSceneCaptureType = "SceneCaptureType"
	TagISOSpeedRatings  = "ISOSpeedRatings"
)

// SceneCaptureType codes.
const (
	SceneLandscape = 1
	ScenePortrait  = 2
	SceneNight     = 3
)

// DarkISO is the ISO speed from which a shot counts as taken in the dark.
const DarkISO = 500

// flashFiredReturnDetected lists Flash codes where the flash fired and its return light was detected.
var flashFiredReturnDetected = map[int]bool{9: true, 15: true, 25: true, 31: true}

// OptionalInt is an integer tag value that may be absent.
type OptionalInt struct {
	Value int
	Valid bool
}

// Capture holds the typed capture tags used for classification.
type Capture struct {
	CapturedAt       time.Time
	HasCapturedAt    bool
	Make             string
	Model            string
	Orientation      OptionalInt
	SceneCaptureType OptionalInt
	ISOSpeedRatings  OptionalInt
	Flash            OptionalInt
}

// ClassifiedRecord is a record with the fields derived during classification.
// The source record is not modified.
type ClassifiedRecord struct {
	Source      results.Record
	Capture     Capture
	Timestamp   time.Time
	Camera      string
	Brightness  string
	Orientation string // messages.UnknownOrientation when nothing indicates it
	Name        string // Target file name
}

// ParseCapture parses the capture tags of r once. Unparseable optional values are
// reported as warnings and treated as absent.
func ParseCapture(r results.Record, loc *time.Location) (Capture, []Warning) {
	var c Capture
	var warnings []Warning

	if raw, ok := r.Get(TagDateTimeOriginal); ok {
		t, err := dateparser.ParseCaptureTime(raw, loc)
		if err != nil {
			warnings = append(warnings, Warning{Path: r.Path, Field: TagDateTimeOriginal, Value: raw, Err: err})
		} else {
			c.CapturedAt = t
			c.HasCapturedAt = true
		}
	}

	if raw, ok := r.Get(TagMake); ok {
		c.Make = dateparser.Clean(raw)
	}
	if raw, ok := r.Get(TagModel); ok {
		c.Model = dateparser.Clean(raw)
	}

	for _, field := range []struct {
		name   string
		target *OptionalInt
	}{
		{TagOrientation, &c.Orientation},
		{TagSceneCaptureType, &c.SceneCaptureType},
		{TagISOSpeedRatings, &c.ISOSpeedRatings},
		{TagFlash, &c.Flash},
	} {
		raw, ok := r.Get(field.name)
		if !ok {
			continue
		}
		v, err := parseTagInt(raw)
		if err != nil {
			warnings = append(warnings, Warning{Path: r.Path, Field: field.name, Value: raw, Err: err})
			continue
		}
		*field.target = OptionalInt{Value: v, Valid: true}
	}

	return c, warnings
}

// parseTagInt parses an integer tag value. Multi-valued tags use their first value.
func parseTagInt(raw string) (int, error) {
	s := dateparser.Clean(raw)
	if i := strings.IndexAny(s, ", "); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return 0, errors.New("empty value")
	}
	return strconv.Atoi(s)
}

// Derive resolves the timestamp of r and computes its labels and target name.
// A missing or unparseable FileCTime fallback is fatal.
func Derive(r results.Record, loc *time.Location, renderer messages.Renderer) (ClassifiedRecord, []Warning, error) {
	capture, warnings := ParseCapture(r, loc)

	cr := ClassifiedRecord{Source: r, Capture: capture}

	if capture.HasCapturedAt {
		cr.Timestamp = capture.CapturedAt
	} else {
		raw, ok := r.Get(results.FileCTime)
		if !ok {
			return ClassifiedRecord{}, warnings, &ClassifyError{Type: MissingTimestamp, Path: r.Path}
		}
		t, err := dateparser.ParseFileTime(raw, loc)
		if err != nil {
			return ClassifiedRecord{}, warnings, &ClassifyError{Type: InvalidTimestamp, Path: r.Path, Err: err}
		}
		cr.Timestamp = t
	}

	cr.Camera = cameraLabel(capture.Make, capture.Model)
	cr.Brightness = brightnessLabel(capture)
	cr.Orientation = orientationLabel(capture)
	cr.Name = fmt.Sprintf("%s %s %s %s %s",
		dateparser.FormatTimestamp(cr.Timestamp),
		renderer.Label(cr.Brightness, messages.One),
		renderer.Label(cr.Orientation, messages.One),
		cr.Camera,
		filepath.Base(r.Path))

	return cr, warnings, nil
}

func cameraLabel(maker, model string) string {
	switch {
	case maker != "" && model != "":
		return maker + "-" + model
	case maker != "":
		return maker
	default:
		return model
	}
}

func brightnessLabel(c Capture) string {
	if c.SceneCaptureType.Valid && c.SceneCaptureType.Value == SceneNight {
		return messages.Dark
	}
	if c.ISOSpeedRatings.Valid {
		if c.ISOSpeedRatings.Value >= DarkISO {
			return messages.Dark
		}
		return messages.Light
	}
	if c.Flash.Valid && flashFiredReturnDetected[c.Flash.Value] {
		return messages.Dark
	}
	return messages.Light
}

func orientationLabel(c Capture) string {
	if c.SceneCaptureType.Valid {
		switch c.SceneCaptureType.Value {
		case SceneLandscape:
			return messages.Landscape
		case ScenePortrait:
			return messages.Portrait
		}
	}
	if c.Orientation.Valid {
		if c.Orientation.Value == 1 || c.Orientation.Value == 3 {
			return messages.Landscape
		}
		return messages.Portrait
	}
	return messages.UnknownOrientation
}
