// Package history keeps a queryable journal of runs and per-file outcomes
// in SQLite. It supplements the ledger; resumption never depends on it.
package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/pipeline"
)

// ErrRunNotFound is returned when a run ID matches nothing.
var ErrRunNotFound = errors.New("run not found")

// Store wraps the history database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at dsn and migrates
// the schema.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("history: empty dsn")
	}
	if path := dsnPath(dsn); path != "" && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &Outcome{}); err != nil {
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &Store{db: db}, nil
}

// withPragmas appends the connection pragmas to dsn.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	return dsn + "_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
}

func dsnPath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BeginRun inserts a run row for cfg and returns it.
func (s *Store) BeginRun(ctx context.Context, cfg *config.Config, started time.Time) (*Run, error) {
	run := &Run{
		StartedAt:  started,
		InputRoot:  cfg.Paths.InputBaseFolder,
		OutputRoot: cfg.Paths.OutputBaseFolder,
		InputCodec: string(cfg.Codecs.InputCodec),
		Encoder:    string(cfg.Codecs.Encoder),
		CRF:        cfg.Transcoding.CRF,
		Preset:     string(cfg.Transcoding.SpeedPreset),
		DryRun:     cfg.Other.DryRun,
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	return run, nil
}

// RecordOutcome appends one outcome to runID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, o pipeline.Outcome) error {
	row := &Outcome{
		RunID:   runID,
		Input:   o.Input,
		Output:  o.Output,
		State:   string(o.State),
		Codec:   o.Codec,
		Seconds: o.Seconds,
		Detail:  o.Detail,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("recording outcome for %s: %w", o.Input, err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, run *Run, c pipeline.RunCounters, finished time.Time, interrupted bool) error {
	run.FinishedAt = &finished
	run.Total = c.Total
	run.Success = c.Success
	run.Failed = c.Failed
	run.WrongCodec = c.WrongCodec
	run.Interrupted = interrupted
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("finishing run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	q := s.db.WithContext(ctx).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	return &run, nil
}

// Outcomes returns the outcomes of runID in insertion order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	var out []Outcome
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing outcomes of %s: %w", runID, err)
	}
	return out, nil
}

// Journal returns a pipeline.Journal writing into run.
func (s *Store) Journal(run *Run) pipeline.Journal {
	return &runJournal{store: s, runID: run.ID}
}

type runJournal struct {
	store *Store
	runID string
}

func (j *runJournal) Record(ctx context.Context, o pipeline.Outcome) error {
	return j.store.RecordOutcome(ctx, j.runID, o)
}
