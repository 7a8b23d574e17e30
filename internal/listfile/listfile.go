// Package listfile reads and writes candidate list files: one input path
// per line, optionally grouped by folder with blank lines, followed by
// "Total ..." summary lines.
package listfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/codecshift/internal/fsx"
)

const summaryPrefix = "Total "

const gib = 1024 * 1024 * 1024

// Read returns the non-blank, non-summary lines of the list file at path,
// in file order.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening list file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse is Read over an arbitrary reader.
func Parse(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, summaryPrefix) {
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading list file: %w", err)
	}
	return paths, nil
}

// Builder accumulates a grouped list file in memory. Add must be called in
// walk order so that files of one folder are adjacent.
type Builder struct {
	buf    bytes.Buffer
	folder string
	count  int
	size   int64
}

// Add appends path; a blank line separates it from the previous folder.
func (b *Builder) Add(path string, size int64) {
	dir := filepath.Dir(path)
	if b.count > 0 && dir != b.folder {
		b.buf.WriteByte('\n')
	}
	b.folder = dir
	b.buf.WriteString(path)
	b.buf.WriteByte('\n')
	b.count++
	b.size += size
}

// Count is the number of paths added.
func (b *Builder) Count() int { return b.count }

// Size is the summed size of the added files.
func (b *Builder) Size() int64 { return b.size }

// Render renders the list with its summary lines for codec.
func (b *Builder) Render(codec string) []byte {
	var out bytes.Buffer
	out.Write(b.buf.Bytes())
	fmt.Fprintf(&out, "\nTotal %s files: %d\n", codec, b.count)
	fmt.Fprintf(&out, "Total size: %.2f GB\n", float64(b.size)/gib)
	return out.Bytes()
}

// WriteFile atomically replaces path with the rendered list.
func (b *Builder) WriteFile(path, codec string) error {
	if err := fsx.WriteFileAtomic(path, b.Render(codec)); err != nil {
		return fmt.Errorf("writing list file: %w", err)
	}
	return nil
}
