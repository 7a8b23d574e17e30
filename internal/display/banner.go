package display

import (
	"fmt"
	"io"

	"github.com/backmassage/codecshift/internal/term"
)

// PrintBanner prints the ASCII art banner in magenta when colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `               _               _     _  __ _
  ___ ___   __| | ___  ___ ___| |__ (_)/ _| |_
 / __/ _ \ / _`+"`"+` |/ _ \/ __/ __| '_ \| | |_| __|
| (_| (_) | (_| |  __/ (__\__ \ | | | |  _| |_
 \___\___/ \__,_|\___|\___|___/_| |_|_|_|  \__|
`)
	fmt.Fprint(w, term.NC)
	if version != "" {
		fmt.Fprintf(w, "%s%s%s\n", term.Cyan, version, term.NC)
	}
	fmt.Fprintln(w)
}
