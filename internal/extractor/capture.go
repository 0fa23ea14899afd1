package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/spf13/afero"
)

// CaptureTagNames is the whitelist of capture tags kept in results, in the
// order they are reported.
var CaptureTagNames = []string{
	"GPSInfo",
	"DateTimeOriginal",
	"Make",
	"Model",
	"Orientation",
	"ExposureTime",
	"Flash",
	"SceneCaptureType",
	"LightSource",
	"ISOSpeedRatings",
	"DigitalZoomRatio",
	"Software",
}

// captureFields maps whitelist names to the decoder's field names.
var captureFields = map[string]exif.FieldName{
	"GPSInfo":          exif.GPSInfoIFDPointer,
	"DateTimeOriginal": exif.DateTimeOriginal,
	"Make":             exif.Make,
	"Model":            exif.Model,
	"Orientation":      exif.Orientation,
	"ExposureTime":     exif.ExposureTime,
	"Flash":            exif.Flash,
	"SceneCaptureType": exif.SceneCaptureType,
	"LightSource":      exif.LightSource,
	"ISOSpeedRatings":  exif.ISOSpeedRatings,
	"DigitalZoomRatio": exif.DigitalZoomRatio,
	"Software":         exif.Software,
}

// CaptureTags reads whitelisted EXIF tags from image files.
type CaptureTags struct {
	fs afero.Fs
}

// NewCaptureTags creates a CaptureTags sub-extractor.
func NewCaptureTags(fs afero.Fs) *CaptureTags {
	return &CaptureTags{fs: fs}
}

// Name implements AttributeExtractor.
func (c *CaptureTags) Name() string { return "capture-tags" }

// Extract implements AttributeExtractor. A file without decodable EXIF data
// yields no attributes and no error; only an unreadable file is an error.
func (c *CaptureTags) Extract(path string) (map[string]string, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	attrs := make(map[string]string)
	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return attrs, nil
	}

	for _, name := range CaptureTagNames {
		tag, err := x.Get(captureFields[name])
		if err != nil {
			continue
		}
		value, err := tagText(tag)
		if err != nil || value == "" {
			continue
		}
		attrs[name] = value
	}
	return attrs, nil
}

// tagText renders a tag value as text. Multi-valued numeric tags are joined with commas.
func tagText(tag *tiff.Tag) (string, error) {
	if tag.Format() == tiff.StringVal {
		s, err := tag.StringVal()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(strings.TrimRight(s, "\x00")), nil
	}

	parts := make([]string, 0, tag.Count)
	for i := 0; i < int(tag.Count); i++ {
		switch tag.Format() {
		case tiff.IntVal:
			v, err := tag.Int64(i)
			if err != nil {
				return "", err
			}
			parts = append(parts, strconv.FormatInt(v, 10))
		case tiff.RatVal:
			num, den, err := tag.Rat2(i)
			if err != nil {
				return "", err
			}
			parts = append(parts, fmt.Sprintf("%d/%d", num, den))
		case tiff.FloatVal:
			v, err := tag.Float(i)
			if err != nil {
				return "", err
			}
			parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
		default:
			return tag.String(), nil
		}
	}
	return strings.Join(parts, ","), nil
}
