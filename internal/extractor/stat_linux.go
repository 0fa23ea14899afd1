//go:build linux

package extractor

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime returns the inode change time recorded in info, when the
// platform stat data is available.
func changeTime(info fs.FileInfo) (time.Time, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec), true
}
