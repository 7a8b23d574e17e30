package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version and commit are injected at build time via -ldflags
// "-X github.com/backmassage/codecshift/cmd/codecshift/cmd.version=...".
var (
	version = "1.0.0"
	commit  = "unknown"
)

func newVersionCommand(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codecshift %s (%s, %s)\n", version, commit, runtime.Version())
		},
	}
}
