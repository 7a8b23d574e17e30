package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/codecshift/internal/display"
	"github.com/backmassage/codecshift/internal/ledger"
)

func newLedgerCommand(o *options) *cobra.Command {
	var showErrors, showWrong bool
	c := &cobra.Command{
		Use:   "ledger [state-folder]",
		Short: "Summarize the completed, error and wrong-codec logs",
		Long: `ledger reads the state folder without locking it, so it can be used while a
run is in progress. The folder defaults to --state or paths.state_folder.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := o.stateFolder(cmd, args)
			if err != nil {
				return err
			}
			led, err := ledger.Load(dir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			t := led.Totals()
			fmt.Fprintf(w, "State folder:  %s\n", dir)
			fmt.Fprintf(w, "Completed:     %s (%s transcoded, %s copied)\n",
				display.FormatCount(t.Completed), display.FormatCount(t.Transcoded), display.FormatCount(t.Copied))
			fmt.Fprintf(w, "Encode time:   %s\n", display.FormatDuration(t.Seconds))
			fmt.Fprintf(w, "Errors:        %s\n", display.FormatCount(t.Errors))
			fmt.Fprintf(w, "Wrong codec:   %s\n", display.FormatCount(t.WrongCodec))

			if showErrors {
				fmt.Fprintf(w, "\n%s:\n", ledger.ErrorFile)
				for _, line := range led.Errors() {
					fmt.Fprintln(w, "  "+line)
				}
			}
			if showWrong {
				fmt.Fprintf(w, "\n%s:\n", ledger.WrongCodecFile)
				for _, line := range led.WrongCodecs() {
					fmt.Fprintln(w, "  "+line)
				}
			}
			return nil
		},
	}
	c.Flags().BoolVar(&showErrors, "errors", false, "list error records")
	c.Flags().BoolVar(&showWrong, "wrong-codec", false, "list wrong-codec records")
	return c
}

// stateFolder picks the state folder from the argument, --state, or the
// configuration, in that order.
func (o *options) stateFolder(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return filepath.Clean(args[0]), nil
	}
	cfg, err := o.loadSettings(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Paths.StateFolder, nil
}
