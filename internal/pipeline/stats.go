package pipeline

import "github.com/backmassage/codecshift/internal/display"

// RunCounters are the per-run tallies. A value is owned by one Run call and
// returned to the caller; nothing is shared between runs.
type RunCounters struct {
	Success    int // transcoded now or in an earlier run
	Failed     int
	WrongCodec int // mismatched now, or copied in an earlier run
	Total      int
}

// Handled is the number of candidates that reached a terminal state.
func (c RunCounters) Handled() int { return c.Success + c.Failed + c.WrongCodec }

// Left is the number of candidates not yet handled.
func (c RunCounters) Left() int { return c.Total - c.Handled() }

// Tally converts the counters for the display package.
func (c RunCounters) Tally() display.Tally {
	return display.Tally{Success: c.Success, Failed: c.Failed, WrongCodec: c.WrongCodec, Total: c.Total}
}
