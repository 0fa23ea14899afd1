//go:build !linux

package extractor

import (
	"io/fs"
	"time"
)

func changeTime(fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
