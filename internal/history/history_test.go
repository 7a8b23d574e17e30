package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/pipeline"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Paths.InputBaseFolder = "/media/in"
	cfg.Paths.OutputBaseFolder = "/media/out"
	return &cfg
}

func TestWithPragmas(t *testing.T) {
	assert.Contains(t, withPragmas("/x/history.db"), "/x/history.db?_pragma=busy_timeout(5000)")
	assert.Contains(t, withPragmas("file:/x/h.db?mode=rwc"), "mode=rwc&_pragma=")
}

func TestDSNPath(t *testing.T) {
	assert.Equal(t, "/x/h.db", dsnPath("file:/x/h.db?mode=rwc"))
	assert.Equal(t, "/x/h.db", dsnPath("/x/h.db"))
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	run, err := s.BeginRun(ctx, testConfig(), started)
	require.NoError(t, err)
	require.Len(t, run.ID, 26)
	assert.Equal(t, "h264", run.InputCodec)
	assert.Equal(t, 23, run.CRF)

	j := s.Journal(run)
	require.NoError(t, j.Record(ctx, pipeline.Outcome{Input: "/media/in/a.mkv", Output: "/media/out/a.mkv", State: pipeline.StateSucceeded, Codec: "h264", Seconds: 12}))
	require.NoError(t, j.Record(ctx, pipeline.Outcome{Input: "/media/in/b.mkv", State: pipeline.StateProbeFailed, Detail: "exit status 1"}))

	counters := pipeline.RunCounters{Success: 1, Failed: 1, Total: 2}
	require.NoError(t, s.FinishRun(ctx, run, counters, started.Add(time.Minute), false))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 1, got.Success)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 2, got.Total)
	assert.False(t, got.Interrupted)

	outcomes, err := s.Outcomes(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, string(pipeline.StateSucceeded), outcomes[0].State)
	assert.Equal(t, int64(12), outcomes[0].Seconds)
	assert.Equal(t, "exit status 1", outcomes[1].Detail)
}

func TestListRuns_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := s.BeginRun(ctx, testConfig(), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetRun_NotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.GetRun(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestNewID_OrderedByTime(t *testing.T) {
	a := NewID(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := NewID(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.Less(t, a, b)
	assert.Len(t, NewID(time.Time{}), 26)
}
