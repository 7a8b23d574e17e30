package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// stderrTailLines bounds how much ffmpeg output an EncodeError carries.
const stderrTailLines = 20

// Encoder produces job.Output from job.Input or fails.
type Encoder interface {
	Encode(ctx context.Context, job Job) error
}

// Exec is the subprocess-backed Encoder. The call is synchronous and has no
// timeout of its own; only ctx cancellation stops it.
type Exec struct {
	Path   string    // ffmpeg binary; "ffmpeg" when empty
	Stderr io.Writer // live copy of ffmpeg's stderr (progress), may be nil
}

// EncodeError is a non-zero ffmpeg exit.
type EncodeError struct {
	Input string
	Err   error
	Tail  string // last lines of stderr
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg %s: %v", e.Input, e.Err)
	if hint := Classify(e.Tail); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Command returns the command Exec would run for job.
func (x *Exec) Command(ctx context.Context, job Job) *exec.Cmd {
	bin := x.Path
	if bin == "" {
		bin = "ffmpeg"
	}
	return exec.CommandContext(ctx, bin, Build(job)...)
}

// Encode runs ffmpeg for job. stderr is tee'd to x.Stderr in real time and
// captured so the tail can be attached to the error.
func (x *Exec) Encode(ctx context.Context, job Job) error {
	cmd := x.Command(ctx, job)

	var stderrBuf bytes.Buffer
	if x.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, x.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &EncodeError{Input: job.Input, Err: err, Tail: tail(stderrBuf.String(), stderrTailLines)}
	}
	return nil
}

// tail returns the last n non-empty lines of s. ffmpeg's -stats output uses
// carriage returns, so both separators split lines.
func tail(s string, n int) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
