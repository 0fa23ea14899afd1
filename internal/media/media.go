// Package media maps camera file extensions to the kind of media they hold.
package media

import (
	"path/filepath"
	"strings"
)

// Kind is the media type of a supported file.
type Kind string

const (
	Image Kind = "Image"
	Video Kind = "Video"
)

// Kinds lists the supported kinds in lookup order.
var Kinds = []Kind{Image, Video}

var extensionsByKind = map[Kind][]string{
	Image: {".jpg", ".jpeg", ".tiff"},
	Video: {".mov", ".mp4", ".avi", ".3gp"},
}

// Extensions returns the lowercase extensions (with leading dot) recognised for kind.
func Extensions(kind Kind) []string {
	exts := extensionsByKind[kind]
	result := make([]string, len(exts))
	copy(result, exts)
	return result
}

// KindOf reports the media kind of path based on its extension, compared case-insensitively.
// The second return value is false for unsupported files.
func KindOf(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	for _, kind := range Kinds {
		for _, candidate := range extensionsByKind[kind] {
			if ext == candidate {
				return kind, true
			}
		}
	}
	return "", false
}

// IsSupported returns true if path has an Image or Video extension.
func IsSupported(path string) bool {
	_, ok := KindOf(path)
	return ok
}
