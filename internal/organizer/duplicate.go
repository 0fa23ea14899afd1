package organizer

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// duplicatePattern matches names with a _duplicate or _duplicate_N suffix before the extension.
var duplicatePattern = regexp.MustCompile(`^(.+)_duplicate(?:_(\d+))?(\.[^.]+)?$`)

// FileExists checks if a file exists at path on fs.
func FileExists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// GenerateDuplicateName returns a name for filename that is unused in destDir.
// An existing name gets "_duplicate" before the extension, then "_duplicate_2",
// "_duplicate_3" and so on.
//
// Examples:
//   - "2024-05-01 10:00:00 Dark Portrait Canon IMG_1.jpg" -> "... IMG_1_duplicate.jpg"
//   - "IMG_1_duplicate.jpg" -> "IMG_1_duplicate_2.jpg"
func GenerateDuplicateName(fs afero.Fs, destDir, filename string) string {
	if !FileExists(fs, filepath.Join(destDir, filename)) {
		return filename
	}

	ext := filepath.Ext(filename)
	baseName := strings.TrimSuffix(filename, ext)
	nextNum := 0

	if matches := duplicatePattern.FindStringSubmatch(filename); matches != nil {
		baseName = matches[1]
		ext = matches[3]
		nextNum = 2
		if matches[2] != "" {
			num, _ := strconv.Atoi(matches[2])
			nextNum = num + 1
		}
	}

	if nextNum == 0 {
		candidate := baseName + "_duplicate" + ext
		if !FileExists(fs, filepath.Join(destDir, candidate)) {
			return candidate
		}
		nextNum = 2
	}

	for n := nextNum; ; n++ {
		candidate := baseName + "_duplicate_" + strconv.Itoa(n) + ext
		if !FileExists(fs, filepath.Join(destDir, candidate)) {
			return candidate
		}
	}
}
