// Package probe classifies input files by the codec of their first video
// stream and compares it against the expected source codec.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single ffprobe call.
const DefaultTimeout = 10 * time.Second

// Prober inspects a file's primary video stream.
type Prober interface {
	Probe(ctx context.Context, path string) (CodecInfo, error)
}

// FFprobe is the subprocess-backed Prober.
type FFprobe struct {
	Path    string        // ffprobe binary; "ffprobe" when empty
	Timeout time.Duration // DefaultTimeout when zero
}

// Args returns the ffprobe arguments for path: codec name, profile and
// pixel format of stream v:0, one bare value per line.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,profile,pix_fmt",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// Probe runs ffprobe under a timeout. Failures are *ProbeError, except
// cancellation of ctx itself which is returned as ctx.Err().
func (p *FFprobe) Probe(ctx context.Context, path string) (CodecInfo, error) {
	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(probeCtx, bin, Args(path)...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return CodecInfo{}, ctx.Err()
		}
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return CodecInfo{}, &ProbeError{Path: path, Err: fmt.Errorf("timed out after %s", timeout)}
		}
		return CodecInfo{}, &ProbeError{Path: path, Err: err, Stderr: strings.TrimSpace(stderr.String())}
	}

	info, err := ParseOutput(out)
	if err != nil {
		return CodecInfo{}, &ProbeError{Path: path, Err: err}
	}
	return info, nil
}

// ParseOutput parses the three-line ffprobe output (codec, profile, pixel
// format). Exported for testing without a real ffprobe binary.
func ParseOutput(out []byte) (CodecInfo, error) {
	text := strings.TrimRight(string(out), "\r\n\t ")
	if strings.TrimSpace(text) == "" {
		return CodecInfo{}, errors.New("no video stream reported")
	}
	lines := strings.Split(text, "\n")

	info := CodecInfo{
		Codec:       NormalizeCodec(lines[0]),
		Profile:     UnknownField,
		PixelFormat: UnknownField,
	}
	if info.Codec == "" {
		info.Codec = UnknownCodec
	}
	if len(lines) > 1 {
		if v := strings.TrimSpace(lines[1]); v != "" {
			info.Profile = v
		}
	}
	if len(lines) > 2 {
		if v := strings.TrimSpace(lines[2]); v != "" {
			info.PixelFormat = v
		}
	}
	return info, nil
}

// NormalizeCodec lowercases name and strips dots and dashes, which vary
// between ffprobe builds ("H.264", "h-264").
func NormalizeCodec(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(".", "", "-", "").Replace(name)
}

// Matches reports whether info is in the expected codec. skip accepts every
// file; otherwise an unknown codec never matches.
func Matches(info CodecInfo, expected string, skip bool) bool {
	if skip {
		return true
	}
	if info.IsUnknown() {
		return false
	}
	return info.Codec == NormalizeCodec(expected)
}
