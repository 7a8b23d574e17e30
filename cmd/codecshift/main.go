// Command codecshift re-encodes a video library into a parallel output tree
// with ffmpeg. Runs are resumable: finished files are recorded in a ledger
// in the state folder and skipped on the next run.
package main

import (
	"os"

	"github.com/backmassage/codecshift/cmd/codecshift/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
