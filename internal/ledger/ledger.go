// Package ledger persists run outcomes across invocations. Three append-only
// text logs live in the state folder:
//
//	completed_files.txt    "<seconds> <output> " or "copied <output>"
//	error_files.txt        "<phase>: <input>"
//	wrong_codec_files.txt  "File is <detected>, not <expected>: <input> -> <output>"
//
// The completed log is authoritative: an output path listed there is never
// processed again. The other two are advisory and deduplicated by path.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File names inside the state folder.
const (
	CompletedFile  = "completed_files.txt"
	ErrorFile      = "error_files.txt"
	WrongCodecFile = "wrong_codec_files.txt"
	LockFile       = ".codecshift.lock"
)

var (
	// ErrLocked is returned by Open when another process holds the state folder.
	ErrLocked = errors.New("ledger: state folder is in use by another codecshift process")
	// ErrReadOnly is returned by Record* on a ledger obtained from Load.
	ErrReadOnly = errors.New("ledger: opened read-only")
)

// CompletedEntry is one line of the completed log.
type CompletedEntry struct {
	Output  string
	Seconds int64
	Copied  bool
}

// Totals summarizes the ledger contents.
type Totals struct {
	Completed  int   // lines in the completed log
	Transcoded int   // completed lines carrying a duration
	Copied     int   // completed lines marked "copied"
	Seconds    int64 // sum of all recorded durations
	Errors     int
	WrongCodec int
}

// Ledger is the in-memory mirror of the three logs. All methods are safe for
// concurrent use, though the coordinator only ever calls them sequentially.
type Ledger struct {
	mu  sync.Mutex
	dir string

	lock     *os.File
	readOnly bool

	completed map[string]CompletedEntry
	totals    Totals

	errors     *recordSet
	wrongCodec *recordSet
}

// Open takes the state folder lock and loads the logs. The folder is
// created if missing. Close releases the lock.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state folder: %w", err)
	}
	lock, err := acquireLock(filepath.Join(dir, LockFile))
	if err != nil {
		return nil, err
	}
	l, err := load(dir)
	if err != nil {
		_ = releaseLock(lock)
		return nil, err
	}
	l.lock = lock
	return l, nil
}

// Load reads the logs without taking the lock. The result rejects writes.
func Load(dir string) (*Ledger, error) {
	l, err := load(dir)
	if err != nil {
		return nil, err
	}
	l.readOnly = true
	return l, nil
}

func load(dir string) (*Ledger, error) {
	l := &Ledger{
		dir:        dir,
		completed:  make(map[string]CompletedEntry),
		errors:     newRecordSet(filepath.Join(dir, ErrorFile), errorSubjects),
		wrongCodec: newRecordSet(filepath.Join(dir, WrongCodecFile), wrongCodecSubjects),
	}
	if err := l.loadCompleted(); err != nil {
		return nil, err
	}
	if err := l.errors.load(); err != nil {
		return nil, err
	}
	if err := l.wrongCodec.load(); err != nil {
		return nil, err
	}
	l.totals.Errors = l.errors.len()
	l.totals.WrongCodec = l.wrongCodec.len()
	return l, nil
}

func (l *Ledger) loadCompleted() error {
	path := filepath.Join(l.dir, CompletedFile)
	return readLines(path, func(n int, line string) error {
		entry, err := ParseCompletedLine(line)
		if err != nil {
			return &CorruptionError{File: path, Line: n, Text: line, Err: err}
		}
		l.addCompleted(entry)
		return nil
	})
}

func (l *Ledger) addCompleted(e CompletedEntry) {
	if _, seen := l.completed[e.Output]; !seen {
		l.completed[e.Output] = e
	}
	l.totals.Completed++
	if e.Copied {
		l.totals.Copied++
	} else {
		l.totals.Transcoded++
		l.totals.Seconds += e.Seconds
	}
}

// Dir returns the state folder.
func (l *Ledger) Dir() string { return l.dir }

// Close releases the state folder lock.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lock == nil {
		return nil
	}
	err := releaseLock(l.lock)
	l.lock = nil
	return err
}

// Completed reports the first completed entry recorded for output.
func (l *Ledger) Completed(output string) (CompletedEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.completed[output]
	return e, ok
}

// ErrorRecorded reports whether any error record names path.
func (l *Ledger) ErrorRecorded(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors.has(path)
}

// WrongCodecRecorded reports whether any wrong-codec record names path.
func (l *Ledger) WrongCodecRecorded(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wrongCodec.has(path)
}

// RecordCompleted appends a transcoded entry.
func (l *Ledger) RecordCompleted(output string, seconds int64) error {
	return l.recordCompleted(CompletedEntry{Output: output, Seconds: seconds})
}

// RecordCopied appends a copied entry.
func (l *Ledger) RecordCopied(output string) error {
	return l.recordCompleted(CompletedEntry{Output: output, Copied: true})
}

func (l *Ledger) recordCompleted(e CompletedEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readOnly {
		return ErrReadOnly
	}
	if err := appendLine(filepath.Join(l.dir, CompletedFile), FormatCompletedLine(e)); err != nil {
		return fmt.Errorf("recording completion of %s: %w", e.Output, err)
	}
	l.addCompleted(e)
	return nil
}

// RecordError appends "<phase>: <subject>" unless a record already names
// subject. It reports whether a line was written.
func (l *Ledger) RecordError(phase, subject string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readOnly {
		return false, ErrReadOnly
	}
	if l.errors.has(subject) {
		return false, nil
	}
	if err := l.errors.append(phase + ": " + subject); err != nil {
		return false, fmt.Errorf("recording error for %s: %w", subject, err)
	}
	l.totals.Errors++
	return true, nil
}

// RecordWrongCodec appends a wrong-codec record unless one already names
// input or output. Older records name only the output path. It reports
// whether a line was written.
func (l *Ledger) RecordWrongCodec(detected, expected, input, output string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readOnly {
		return false, ErrReadOnly
	}
	if l.wrongCodec.has(input) || l.wrongCodec.has(output) {
		return false, nil
	}
	line := fmt.Sprintf("File is %s, not %s: %s -> %s", detected, expected, input, output)
	if err := l.wrongCodec.append(line); err != nil {
		return false, fmt.Errorf("recording wrong codec for %s: %w", input, err)
	}
	l.totals.WrongCodec++
	return true, nil
}

// Totals returns a snapshot of the ledger counters.
func (l *Ledger) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}

// Errors returns the error records in file order.
func (l *Ledger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errors.snapshot()
}

// WrongCodecs returns the wrong-codec records in file order.
func (l *Ledger) WrongCodecs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wrongCodec.snapshot()
}
