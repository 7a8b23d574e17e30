package display

import (
	"fmt"
	"io"

	"github.com/backmassage/codecshift/internal/term"
)

// Tally is the counter snapshot shown to the user.
type Tally struct {
	Success    int
	Failed     int
	WrongCodec int
	Total      int
}

// Handled is the number of files that reached a terminal state.
func (t Tally) Handled() int { return t.Success + t.Failed + t.WrongCodec }

// Left is the number of files not yet handled.
func (t Tally) Left() int { return t.Total - t.Handled() }

// PrintProgress prints the block shown before each file is processed.
// copying marks wrong-codec files as copied through.
func PrintProgress(w io.Writer, t Tally, inputCodec string, copying bool) {
	failColor := term.NC
	if t.Failed > 0 {
		failColor = term.Red
	}
	wrongColor := term.NC
	if t.WrongCodec > 0 {
		wrongColor = term.Magenta
	}
	suffix := ""
	if copying {
		suffix = " (copied)"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "%s files successfully transcoded\n", FormatCount(t.Success))
	fmt.Fprintf(w, "%s%s files failed%s\n", failColor, FormatCount(t.Failed), term.NC)
	fmt.Fprintf(w, "%s%s files not in %s%s%s\n", wrongColor, FormatCount(t.WrongCodec), inputCodec, term.NC, suffix)
	fmt.Fprintf(w, "%s files left to transcode\n", FormatCount(t.Left()))
	fmt.Fprintf(w, "%s files total\n", FormatCount(t.Total))
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintln(w)
}

// PrintSummary prints the end-of-run summary. totalSeconds covers every
// completed transcode in the ledger, including earlier runs.
func PrintSummary(w io.Writer, t Tally, totalSeconds int64) {
	fmt.Fprintf(w, "\n%sSUMMARY:%s\n\n", term.Blue, term.NC)
	fmt.Fprintf(w, "%sSuccessfully transcoded: %s%s\n", term.Green, FormatCount(t.Success), term.NC)
	fmt.Fprintf(w, "%sWrong codec: %s%s%s\n", term.Green, term.Red, FormatCount(t.WrongCodec), term.NC)
	fmt.Fprintf(w, "%sFailed transcodings: %s%s%s\n", term.Green, term.Red, FormatCount(t.Failed), term.NC)
	fmt.Fprintf(w, "%sTotal number of files handled: %s%s\n", term.Green, FormatCount(t.Total), term.NC)
	fmt.Fprintf(w, "%sTotal time elapsed: %s%s\n", term.Green, FormatDuration(totalSeconds), term.NC)
	fmt.Fprintf(w, "\n%sFINISHED PROCESSING ALL FILES%s\n\n", term.Blue, term.NC)
}
