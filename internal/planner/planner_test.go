package planner

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/naming"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestIsVideo(t *testing.T) {
	for _, p := range []string{"a.mp4", "a.MKV", "dir/b.Avi", "c.mov", "d.flv", "e.wmv"} {
		assert.True(t, IsVideo(p), p)
	}
	for _, p := range []string{"a.txt", "a.webm", "a.m2ts", "noext", "a.mkv.part", "a.nfo"} {
		assert.False(t, IsVideo(p), p)
	}
	assert.Equal(t, []string{"avi", "flv", "mkv", "mov", "mp4", "wmv"}, Extensions())
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "show", "b.mkv"))
	touch(t, filepath.Join(dir, "show", "a.MP4"))
	touch(t, filepath.Join(dir, "show", "a.nfo"))
	touch(t, filepath.Join(dir, "movie.wmv"))
	touch(t, filepath.Join(dir, "deep", "er", "clip.mov"))
	touch(t, filepath.Join(dir, "cover.jpg"))

	files, err := Discover(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "deep", "er", "clip.mov"),
		filepath.Join(dir, "movie.wmv"),
		filepath.Join(dir, "show", "a.MP4"),
		filepath.Join(dir, "show", "b.mkv"),
	}, files)

	again, err := Discover(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, files, again)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestDiscover_SkipsUnreadableEntries(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "locked", "hidden.mkv"))
	touch(t, filepath.Join(dir, "open", "gone.mkv"))
	touch(t, filepath.Join(dir, "open", "kept.mkv"))

	// Fail reading the "locked" directory and stat'ing "gone.mkv", the
	// way a permission error or a file removed mid-walk would.
	orig := walkDir
	t.Cleanup(func() { walkDir = orig })
	walkDir = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			switch filepath.Base(path) {
			case "locked":
				return fn(path, d, fs.ErrPermission)
			case "gone.mkv":
				return fn(path, nil, fs.ErrNotExist)
			}
			return fn(path, d, err)
		})
	}

	var skipped []string
	files, err := Discover(dir, func(path string, err error) {
		skipped = append(skipped, path)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "open", "kept.mkv")}, files)
	assert.Equal(t, []string{filepath.Join(dir, "locked"), filepath.Join(dir, "open", "gone.mkv")}, skipped)
}

func TestDiscover_UnreadableRootFails(t *testing.T) {
	orig := walkDir
	t.Cleanup(func() { walkDir = orig })
	walkDir = func(root string, fn fs.WalkDirFunc) error {
		return fn(root, nil, fs.ErrPermission)
	}

	_, err := Discover("/media/in", func(string, error) { t.Error("root error must not be skipped") })
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestEnumerate_ListMode(t *testing.T) {
	state := t.TempDir()
	list := "/media/in/a/one.mkv\n/media/in/a/notes.txt\n\n/media/in/b/two.MP4\nTotal h264 files: 2\nTotal size: 0.01 GB\n"
	require.NoError(t, os.WriteFile(filepath.Join(state, "files.txt"), []byte(list), 0o644))

	cfg := config.DefaultConfig()
	cfg.Paths.InputBaseFolder = "/media/in"
	cfg.Paths.StateFolder = state
	cfg.Paths.UseInputFilesList = true

	files, err := Enumerate(&cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/in/a/one.mkv", "/media/in/b/two.MP4"}, files)
}

func TestEnumerate_ListModeMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Paths.StateFolder = t.TempDir()
	cfg.Paths.UseInputFilesList = true

	_, err := Enumerate(&cfg, nil)
	assert.Error(t, err)
}

func TestEnumerate_WalkMode(t *testing.T) {
	in := t.TempDir()
	touch(t, filepath.Join(in, "a", "video.mp4"))

	cfg := config.DefaultConfig()
	cfg.Paths.InputBaseFolder = in

	files, err := Enumerate(&cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(in, "a", "video.mp4")}, files)
}

func TestPlan(t *testing.T) {
	p := &Planner{InputRoot: "/media/in", OutputRoot: "/media/out", Ext: "mkv"}

	c := p.Plan("/media/in/a/video.MP4")
	require.True(t, c.Planned())
	assert.Equal(t, "mp4", c.Ext)
	assert.Equal(t, filepath.Join("a", "video.MP4"), c.Rel)
	assert.Equal(t, filepath.Join("/media/out", "a", "video.mkv"), c.Output)

	c = p.Plan("/elsewhere/video.mp4")
	assert.False(t, c.Planned())
	assert.ErrorIs(t, c.PlanErr, naming.ErrOutsideRoot)
	assert.Empty(t, c.Output)
}

func TestPlan_RelativePaths(t *testing.T) {
	base := t.TempDir()
	t.Chdir(base)

	tests := []struct {
		name  string
		root  string
		input string
	}{
		{"relative input, absolute root", filepath.Join(base, "in"), filepath.Join("in", "a", "video.mp4")},
		{"relative input and root", "in", filepath.Join("in", "a", "video.mp4")},
		{"absolute input, relative root", "in", filepath.Join(base, "in", "a", "video.mp4")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Planner{InputRoot: tt.root, OutputRoot: "out"}
			c := p.Plan(tt.input)
			require.True(t, c.Planned(), "%v", c.PlanErr)
			assert.Equal(t, filepath.Join(base, "in", "a", "video.mp4"), c.Input)
			assert.Equal(t, filepath.Join("a", "video.mp4"), c.Rel)
			assert.Equal(t, filepath.Join(base, "out", "a", "video.mp4"), c.Output)
		})
	}
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Paths.InputBaseFolder = "/in"
	cfg.Paths.OutputBaseFolder = "/out"
	cfg.Other.UseDifferentExtension = true
	cfg.Other.OutputExtension = "mkv"

	p := New(&cfg)
	assert.Equal(t, &Planner{InputRoot: "/in", OutputRoot: "/out", Ext: "mkv"}, p)
}
