package ffmpeg

import "regexp"

// Pre-compiled patterns that turn an ffmpeg stderr tail into a short hint
// for the console. Checked in order; the first match wins.
var failureHints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)Unknown encoder|Encoder .* not found`), "encoder not available in this ffmpeg build"},
	{regexp.MustCompile(`(?i)No NVENC capable devices found|Cannot load (nvcuda|libcuda|libnvidia-encode)|OpenEncodeSessionEx failed`), "NVENC device unavailable"},
	{regexp.MustCompile(`(?i)No space left on device`), "output volume is full"},
	{regexp.MustCompile(`(?i)Permission denied`), "permission denied"},
	{regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found|EBML header parsing failed`), "input is corrupt or truncated"},
	{regexp.MustCompile(`(?i)Could not find tag for codec .* in stream|codec not currently supported in container`), "a copied stream is not supported by the output container"},
}

// Classify returns a short human hint for a failed encode, or "" when the
// stderr tail matches nothing known.
func Classify(stderr string) string {
	for _, h := range failureHints {
		if h.re.MatchString(stderr) {
			return h.hint
		}
	}
	return ""
}
