package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const copiedMarker = "copied"

// CorruptionError reports a malformed completed-log line. It is fatal:
// skipping the line would silently re-transcode the file it names.
type CorruptionError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("ledger corrupted: %s line %d %q: %v", e.File, e.Line, e.Text, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }

// ParseCompletedLine parses "<seconds> <output>" or "copied <output>".
// Trailing whitespace is ignored.
func ParseCompletedLine(line string) (CompletedEntry, error) {
	line = strings.TrimRight(line, " \t\r\n")
	head, output, ok := strings.Cut(line, " ")
	output = strings.TrimSpace(output)
	if !ok || output == "" {
		return CompletedEntry{}, errors.New("expected two fields")
	}
	if head == copiedMarker {
		return CompletedEntry{Output: output, Copied: true}, nil
	}
	secs, err := strconv.ParseInt(head, 10, 64)
	if err != nil || secs < 0 {
		return CompletedEntry{}, fmt.Errorf("first field %q is neither a duration nor %q", head, copiedMarker)
	}
	return CompletedEntry{Output: output, Seconds: secs}, nil
}

// FormatCompletedLine renders e without the trailing newline.
func FormatCompletedLine(e CompletedEntry) string {
	if e.Copied {
		return copiedMarker + " " + e.Output
	}
	return strconv.FormatInt(e.Seconds, 10) + " " + e.Output + " "
}

// recordSet is an advisory log indexed by the paths its records name.
type recordSet struct {
	path     string
	records  []string
	subjects map[string]struct{}
	extract  func(string) []string
}

func newRecordSet(path string, extract func(string) []string) *recordSet {
	return &recordSet{path: path, subjects: make(map[string]struct{}), extract: extract}
}

func (s *recordSet) load() error {
	return readLines(s.path, func(_ int, line string) error {
		s.add(strings.TrimSpace(line))
		return nil
	})
}

func (s *recordSet) add(record string) {
	s.records = append(s.records, record)
	for _, p := range s.extract(record) {
		s.subjects[p] = struct{}{}
	}
}

func (s *recordSet) has(path string) bool {
	_, ok := s.subjects[path]
	return ok
}

func (s *recordSet) append(record string) error {
	if err := appendLine(s.path, record); err != nil {
		return err
	}
	s.add(record)
	return nil
}

func (s *recordSet) len() int { return len(s.records) }

func (s *recordSet) snapshot() []string {
	out := make([]string, len(s.records))
	copy(out, s.records)
	return out
}

// errorSubjects extracts the path from "<phase>: <path>".
func errorSubjects(record string) []string {
	_, subject, ok := strings.Cut(record, ": ")
	if !ok {
		return []string{record}
	}
	return []string{strings.TrimSpace(subject)}
}

// wrongCodecSubjects extracts input and output from
// "File is X, not Y: <input> -> <output>". Records that name a single path
// index just that path.
func wrongCodecSubjects(record string) []string {
	_, rest, ok := strings.Cut(record, ": ")
	if !ok {
		return []string{record}
	}
	input, output, ok := strings.Cut(rest, " -> ")
	if !ok {
		return []string{strings.TrimSpace(rest)}
	}
	return []string{strings.TrimSpace(input), strings.TrimSpace(output)}
}

// readLines calls fn for every non-blank line of path with its 1-based
// line number. A missing file is an empty log.
func readLines(path string, fn func(n int, line string) error) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// appendLine appends line plus newline and fsyncs before returning.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
