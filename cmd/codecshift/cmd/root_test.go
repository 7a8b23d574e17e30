package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/ledger"
	"github.com/backmassage/codecshift/internal/listfile"
)

type result struct {
	err            error
	stdout, stderr string
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return result{err: err, stdout: stdout.String(), stderr: stderr.String()}
}

type library struct {
	in, out, state string
}

func newLibrary(t *testing.T) library {
	t.Helper()
	root := t.TempDir()
	lib := library{
		in:    filepath.Join(root, "in"),
		out:   filepath.Join(root, "out"),
		state: filepath.Join(root, "state"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(lib.in, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib.in, "a", "video.mp4"), []byte("x"), 0o644))
	return lib
}

func (l library) config(t *testing.T, extra string) string {
	t.Helper()
	body := "paths:\n" +
		"  input_base_folder: " + l.in + "\n" +
		"  output_base_folder: " + l.out + "\n" +
		"  state_folder: " + l.state + "\n" +
		extra
	path := filepath.Join(t.TempDir(), "codecshift.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// fakeTools writes stand-in ffprobe and ffmpeg scripts. ffprobe reports
// every file as h264; ffmpeg lists libx265 and writes its last argument.
func fakeTools(t *testing.T) (ffmpeg, ffprobe string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	dir := t.TempDir()
	ffprobe = filepath.Join(dir, "ffprobe")
	require.NoError(t, os.WriteFile(ffprobe, []byte("#!/bin/sh\nprintf 'h264\\nHigh\\nyuv420p\\n'\n"), 0o755))
	ffmpeg = filepath.Join(dir, "ffmpeg")
	script := `#!/bin/sh
if [ "$2" = "-encoders" ]; then
	printf 'Encoders:\n V..... = Video\n ------\n V....D libx265 x265\n'
	exit 0
fi
for a; do last=$a; done
echo encoded > "$last"
`
	require.NoError(t, os.WriteFile(ffmpeg, []byte(script), 0o755))
	return ffmpeg, ffprobe
}

func TestScanThenList_RelativeFolders(t *testing.T) {
	ffmpeg, ffprobe := fakeTools(t)
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "in", "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "in", "a", "video.mp4"), []byte("x"), 0o644))
	t.Chdir(base)

	cfgPath := filepath.Join(base, "codecshift.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("paths:\n"+
		"  input_base_folder: in\n"+
		"  output_base_folder: out\n"+
		"  state_folder: state\n"+
		"tools:\n"+
		"  ffmpeg: "+ffmpeg+"\n"+
		"  ffprobe: "+ffprobe+"\n"), 0o644))

	res := execute(t, "scan", "--config", cfgPath, "--color", "never")
	require.NoError(t, res.err, res.stderr)
	entries, err := listfile.Read(filepath.Join(base, "state", "files.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(base, "in", "a", "video.mp4")}, entries)

	res = execute(t, "--config", cfgPath, "--list", "--no-history", "--color", "never")
	require.NoError(t, res.err, res.stderr)
	assert.FileExists(t, filepath.Join(base, "out", "a", "video.mp4"))
	assert.NoFileExists(t, filepath.Join(base, "state", ledger.ErrorFile))

	completed, err := os.ReadFile(filepath.Join(base, "state", ledger.CompletedFile))
	require.NoError(t, err)
	assert.Contains(t, string(completed), filepath.Join(base, "out", "a", "video.mp4"))
}

func TestRun_InvalidCRFTouchesNothing(t *testing.T) {
	for _, crf := range []string{"52", "-1", "23.5", "best"} {
		t.Run(crf, func(t *testing.T) {
			lib := newLibrary(t)
			cfgPath := lib.config(t, "transcoding:\n  crf_quality: \""+crf+"\"\n")

			res := execute(t, "--config", cfgPath)
			var ve *config.ValidationError
			require.ErrorAs(t, res.err, &ve)
			assert.Equal(t, "transcoding.crf_quality", ve.Key)
			assert.NoDirExists(t, lib.state)
			assert.NoDirExists(t, lib.out)
		})
	}
}

func TestRun_CorruptLedgerAborts(t *testing.T) {
	lib := newLibrary(t)
	require.NoError(t, os.MkdirAll(lib.state, 0o755))
	completed := filepath.Join(lib.state, ledger.CompletedFile)
	require.NoError(t, os.WriteFile(completed, []byte("12 /out/a.mkv \nnot-a-record\n"), 0o644))

	res := execute(t, "--config", lib.config(t, ""), "--color", "never", "--no-history")
	require.ErrorIs(t, res.err, errReported)
	assert.Contains(t, res.stderr, "line 2")
	assert.Contains(t, res.stderr, "not-a-record")

	got, err := os.ReadFile(completed)
	require.NoError(t, err)
	assert.Equal(t, "12 /out/a.mkv \nnot-a-record\n", string(got))
	assert.NoFileExists(t, filepath.Join(lib.state, ledger.ErrorFile))
	assert.NoFileExists(t, filepath.Join(lib.state, ledger.WrongCodecFile))
}

func TestRun_OutputInsideInputRejected(t *testing.T) {
	lib := newLibrary(t)
	res := execute(t, "--config", lib.config(t, ""), "--output", filepath.Join(lib.in, "converted"), "--color", "never")
	require.ErrorIs(t, res.err, errReported)
	assert.Contains(t, res.stderr, "must not be inside the input folder")
	assert.NoDirExists(t, lib.state)
}

func TestRun_MissingInput(t *testing.T) {
	lib := newLibrary(t)
	res := execute(t, "--config", lib.config(t, ""), "--input", filepath.Join(lib.in, "nope"), "--color", "never")
	require.ErrorIs(t, res.err, errReported)
	assert.Contains(t, res.stderr, "Input not found")
}

func TestLedgerCommand(t *testing.T) {
	state := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(state, ledger.CompletedFile),
		[]byte("60 /out/a.mkv \ncopied /out/b.mp4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(state, ledger.ErrorFile),
		[]byte("Error while transcoding: /in/c.mkv\n"), 0o644))

	res := execute(t, "ledger", state, "--errors")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Completed:     2 (1 transcoded, 1 copied)")
	assert.Contains(t, res.stdout, "Encode time:   1 minutes")
	assert.Contains(t, res.stdout, "  Error while transcoding: /in/c.mkv")
	assert.NoFileExists(t, filepath.Join(state, ledger.LockFile))
}

func TestHistoryCommand_Empty(t *testing.T) {
	state := t.TempDir()
	res := execute(t, "history", state)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ENCODER")
	assert.FileExists(t, filepath.Join(state, "history.db"))
}

func TestConfigDump(t *testing.T) {
	res := execute(t, "config", "dump")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "encoder: x265")
	assert.Contains(t, res.stdout, "probe_timeout: 10s")
	assert.Contains(t, res.stdout, "speed_preset: medium")
	assert.NotContains(t, res.stdout, "crf:")
}

func TestConfigDump_FlagsOnlyOverrideWhenSet(t *testing.T) {
	t.Setenv("CODECSHIFT_CODECS_ENCODER", "x264")
	t.Setenv("CODECSHIFT_OTHER_VERBOSE_INFORMATION", "true")

	res := execute(t, "config", "dump", "--effective")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "encoder: x264")
	assert.Contains(t, res.stdout, "verbose_information: true", "unset --verbose must not mask the environment")

	res = execute(t, "config", "dump", "--effective", "--color", "always")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "color: always")
}

func TestVersionCommand(t *testing.T) {
	res := execute(t, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "codecshift "+version)
}

func TestUnknownCommand(t *testing.T) {
	res := execute(t, "transmogrify")
	assert.Error(t, res.err)
}
