// Package display renders the human-facing parts of a run: the banner, the
// progress block printed before each file and the end-of-run summary.
package display

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatDuration renders whole seconds as "1 days, 2 hours, 5 seconds".
// Zero units are omitted; seconds are shown when they are the only unit.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d seconds", secs))
	}
	return strings.Join(parts, ", ")
}

// FormatSize returns a human-readable IEC size (e.g. "1.5 GiB").
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCount adds thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
