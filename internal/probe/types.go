package probe

import (
	"fmt"
	"strings"
)

// UnknownCodec is the codec sentinel for a blank codec line. It never
// matches an expected codec.
const UnknownCodec = "unknown"

// UnknownField fills a missing profile or pixel format.
const UnknownField = "Unknown"

// CodecInfo describes the first video stream of a file.
type CodecInfo struct {
	Codec       string // normalized: lowercase, no dots or dashes
	Profile     string
	PixelFormat string
}

// IsUnknown reports whether the codec could not be determined.
func (c CodecInfo) IsUnknown() bool { return c.Codec == UnknownCodec }

// BitDepth infers the source bit depth from the pixel format name
// (yuv420p10le → 10). Returns 8 for plain formats and 0 when unknown.
func (c CodecInfo) BitDepth() int {
	pf := strings.ToLower(c.PixelFormat)
	switch {
	case pf == "" || pf == strings.ToLower(UnknownField):
		return 0
	case strings.Contains(pf, "p16"):
		return 16
	case strings.Contains(pf, "p12"):
		return 12
	case strings.Contains(pf, "p10"):
		return 10
	}
	return 8
}

func (c CodecInfo) String() string {
	return fmt.Sprintf("%s (profile %s, %s)", c.Codec, c.Profile, c.PixelFormat)
}

// ProbeError is a per-file classification failure: ffprobe exited non-zero,
// timed out, or printed nothing usable.
type ProbeError struct {
	Path   string
	Err    error
	Stderr string
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("probe %s: %v", e.Path, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ProbeError) Unwrap() error { return e.Err }
