package extractor

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"camsort/internal/dateparser"
	"camsort/internal/results"
)

// FileTimes reads FileCTime and FileMTime from filesystem metadata.
// When the filesystem exposes no change time (in-memory filesystems,
// non-Linux platforms) the modification time stands in for it.
type FileTimes struct {
	fs  afero.Fs
	loc *time.Location
}

// NewFileTimes creates a FileTimes sub-extractor rendering times in loc.
func NewFileTimes(fs afero.Fs, loc *time.Location) *FileTimes {
	if loc == nil {
		loc = time.Local
	}
	return &FileTimes{fs: fs, loc: loc}
}

// Name implements AttributeExtractor.
func (f *FileTimes) Name() string { return "file-times" }

// Extract implements AttributeExtractor.
func (f *FileTimes) Extract(path string) (map[string]string, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	mtime := info.ModTime()
	ctime, ok := changeTime(info)
	if !ok {
		ctime = mtime
	}
	return map[string]string{
		results.FileCTime: dateparser.FormatFileTime(ctime.In(f.loc)),
		results.FileMTime: dateparser.FormatFileTime(mtime.In(f.loc)),
	}, nil
}
