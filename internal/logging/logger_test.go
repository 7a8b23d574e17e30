package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/codecshift/internal/config"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Logging.Color = config.ColorNever
	return cfg
}

func TestNew_NoFile(t *testing.T) {
	cfg := testConfig()
	var out, errOut bytes.Buffer
	l, err := New(&cfg, &out, &errOut)
	require.NoError(t, err)
	defer l.Close()

	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	l.Info("scanning %d files", 3)
	l.Error("boom")

	assert.Equal(t, "2024-03-01 12:00:00 [INFO] scanning 3 files\n", out.String())
	assert.Equal(t, "2024-03-01 12:00:00 [ERROR] boom\n", errOut.String())
}

func TestDebug_OnlyWhenVerbose(t *testing.T) {
	cfg := testConfig()
	var out bytes.Buffer
	l, err := New(&cfg, &out, &out)
	require.NoError(t, err)

	l.Debug(false, "hidden")
	assert.Empty(t, out.String())
	l.Debug(true, "shown")
	assert.Contains(t, out.String(), "[DEBUG] shown")
}

func TestNew_WithFile(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "codecshift.log")

	l, err := New(&cfg, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	l.Success("done %s", "movie.mkv")
	l.Warn("careful")
	require.NoError(t, l.Close())

	f, err := os.Open(cfg.Logging.File)
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "done movie.mkv", records[0]["msg"])
	assert.Equal(t, "SUCCESS", records[0]["tag"])
	assert.Equal(t, "WARN", records[1]["level"])
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing")
	assert.NoError(t, l.Close())
}
