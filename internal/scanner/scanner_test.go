package scanner

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"camsort/internal/logging"
	"camsort/internal/media"
)

func writeFiles(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0644))
	}
}

func fullPaths(entries []FileEntry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.FullPath
	}
	sort.Strings(paths)
	return paths
}

func TestScanRecursesAndFiltersByExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs,
		"/card/IMG_0001.JPG",
		"/card/notes.txt",
		"/card/DCIM/100CANON/IMG_0002.jpeg",
		"/card/DCIM/100CANON/MVI_0003.MOV",
		"/card/DCIM/100CANON/thumbs.db",
		"/card/DCIM/deep/er/clip.3gp",
		"/card/noext",
	)

	entries, err := New(fs, DefaultScanOptions()).Scan("/card")
	require.NoError(t, err)
	require.Equal(t, []string{
		"/card/DCIM/100CANON/IMG_0002.jpeg",
		"/card/DCIM/100CANON/MVI_0003.MOV",
		"/card/DCIM/deep/er/clip.3gp",
		"/card/IMG_0001.JPG",
	}, fullPaths(entries))

	kinds := map[string]media.Kind{}
	for _, e := range entries {
		kinds[e.Name] = e.Kind
	}
	require.Equal(t, media.Image, kinds["IMG_0001.JPG"])
	require.Equal(t, media.Video, kinds["MVI_0003.MOV"])
	require.Equal(t, media.Video, kinds["clip.3gp"])
}

func TestScanEmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/empty", 0755))

	entries, err := New(fs, DefaultScanOptions()).Scan("/empty")
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), DefaultScanOptions()).Scan("/nope")

	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, DirectoryNotFound, serr.Type)
}

func TestScanFileInsteadOfDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/card/a.jpg")

	_, err := New(fs, DefaultScanOptions()).Scan("/card/a.jpg")
	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, DirectoryNotFound, serr.Type)
}

func TestScanDepthLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, "/card/a.jpg", "/card/l1/b.jpg", "/card/l1/l2/c.jpg")

	entries, err := New(fs, ScanOptions{MaxDepth: 0}).Scan("/card")
	require.NoError(t, err)
	require.Equal(t, []string{"/card/a.jpg"}, fullPaths(entries))

	entries, err = New(fs, ScanOptions{MaxDepth: 1}).Scan("/card")
	require.NoError(t, err)
	require.Equal(t, []string{"/card/a.jpg", "/card/l1/b.jpg"}, fullPaths(entries))
}

func TestSymlinkPolicies(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "b.jpg"), []byte("x"), 0644))
	if err := os.Symlink(outside, filepath.Join(root, "linked")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	fs := afero.NewOsFs()

	entries, err := New(fs, ScanOptions{MaxDepth: -1, SymlinkPolicy: SymlinkPolicySkip}).Scan(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = New(fs, ScanOptions{MaxDepth: -1, SymlinkPolicy: SymlinkPolicyFollow}).Scan(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = New(fs, ScanOptions{MaxDepth: -1, SymlinkPolicy: SymlinkPolicyError}).Scan(root)
	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, SymlinkError, serr.Type)
}

// unreadableFs fails to open the directories named in denied.
type unreadableFs struct {
	afero.Fs
	denied map[string]bool
}

func (f unreadableFs) Open(name string) (afero.File, error) {
	if f.denied[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

func TestScanSkipsUnreadableSubdirectory(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFiles(t, mem, "/card/a.jpg", "/card/locked/b.jpg", "/card/open/c.jpg")
	fs := unreadableFs{Fs: mem, denied: map[string]bool{"/card/locked": true}}

	var buf bytes.Buffer
	entries, err := New(fs, ScanOptions{MaxDepth: -1, Logger: logging.New(&buf, slog.LevelInfo)}).Scan("/card")
	require.NoError(t, err)
	require.Equal(t, []string{"/card/a.jpg", "/card/open/c.jpg"}, fullPaths(entries))
	require.True(t, strings.HasPrefix(buf.String(), "WARN : Skipping folder '/card/locked': "), buf.String())
}

func TestScanUnreadableRootFails(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFiles(t, mem, "/card/a.jpg")
	fs := unreadableFs{Fs: mem, denied: map[string]bool{"/card": true}}

	_, err := New(fs, DefaultScanOptions()).Scan("/card")
	var serr *ScanError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, PermissionDenied, serr.Type)
}

func TestScanFollowStopsAtSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "DCIM")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.jpg"), []byte("x"), 0644))
	if err := os.Symlink(root, filepath.Join(sub, "back")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	entries, err := New(afero.NewOsFs(), ScanOptions{MaxDepth: -1, SymlinkPolicy: SymlinkPolicyFollow}).Scan(root)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "DCIM", "b.jpg"), filepath.Join(root, "a.jpg")}, fullPaths(entries))
}

// genTree generates relative file paths up to three levels deep with mixed extensions.
func genTree() gopter.Gen {
	exts := []interface{}{".jpg", ".JPEG", ".tiff", ".mov", ".MP4", ".avi", ".3gp", ".txt", ".png", ""}
	segment := gen.RegexMatch("[a-z]{1,6}")
	file := gopter.CombineGens(
		gen.SliceOfN(2, segment),
		gen.IntRange(0, 2),
		segment,
		gen.OneConstOf(exts...),
	).Map(func(vals []interface{}) string {
		dirs := vals[0].([]string)[:vals[1].(int)]
		parts := append([]string{}, dirs...)
		parts = append(parts, "f_"+vals[2].(string)+vals[3].(string))
		return filepath.Join(parts...)
	})
	return gen.SliceOf(file)
}

// Feature: camera-scan, Property 1: Scanner returns exactly the supported files
func TestScanReturnsExactlySupportedFiles(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("scan result equals the supported subset", prop.ForAll(
		func(rel []string) bool {
			fs := afero.NewMemMapFs()
			expected := map[string]bool{}
			for _, r := range rel {
				p := filepath.Join("/src", r)
				if err := fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
					return false
				}
				if err := afero.WriteFile(fs, p, nil, 0644); err != nil {
					return false
				}
				if media.IsSupported(p) {
					expected[p] = true
				}
			}
			entries, err := New(fs, DefaultScanOptions()).Scan("/src")
			if err != nil {
				// /src exists only when at least one file was written.
				return len(rel) == 0
			}
			got := map[string]bool{}
			for _, e := range entries {
				if !media.IsSupported(e.Name) || filepath.Base(e.FullPath) != e.Name {
					return false
				}
				got[e.FullPath] = true
			}
			return reflect.DeepEqual(expected, got)
		},
		genTree(),
	))

	properties.TestingRun(t)
}
