package planner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Recognized video extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
	".mov": true,
	".flv": true,
	".wmv": true,
}

// IsVideo reports whether path has a recognized video extension,
// case-insensitively.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns the recognized extensions without dots, sorted.
func Extensions() []string {
	out := make([]string, 0, len(videoExtensions))
	for ext := range videoExtensions {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// SkipFunc is told about an entry the walk could not read and skipped.
type SkipFunc func(path string, err error)

// walkDir is swapped in tests to inject read errors.
var walkDir = filepath.WalkDir

// Discover walks root and returns every video file, sorted
// lexicographically so that repeated runs see the same order. Only an
// unreadable root is an error; unreadable entries below it are reported
// to onSkip (which may be nil) and left out.
func Discover(root string, onSkip SkipFunc) ([]string, error) {
	var files []string
	err := walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if onSkip != nil {
				onSkip(path, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if IsVideo(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
