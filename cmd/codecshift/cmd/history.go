package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/codecshift/internal/display"
	"github.com/backmassage/codecshift/internal/history"
)

func newHistoryCommand(o *options) *cobra.Command {
	var (
		limit int
		runID string
		dsn   string
	)
	c := &cobra.Command{
		Use:   "history [state-folder]",
		Short: "List past runs, or the per-file outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				if len(args) == 1 {
					dsn = filepath.Join(args[0], "history.db")
				} else {
					cfg, err := o.loadSettings(cmd)
					if err != nil {
						return err
					}
					dsn = cfg.HistoryDSN()
				}
			}
			store, err := history.Open(dsn)
			if err != nil {
				return err
			}
			defer store.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			if runID != "" {
				run, err := store.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				outcomes, err := store.Outcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "STATE\tCODEC\tTIME\tINPUT\tDETAIL")
				for _, oc := range outcomes {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", oc.State, oc.Codec, display.FormatDuration(oc.Seconds), oc.Input, oc.Detail)
				}
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "ID\tSTARTED\tENCODER\tCRF\tTOTAL\tOK\tFAILED\tWRONG\tSTATUS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Encoder, r.CRF,
					r.Total, r.Success, r.Failed, r.WrongCodec, runStatus(r))
			}
			return nil
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "number of runs to list (0 for all)")
	c.Flags().StringVar(&runID, "run", "", "show the outcomes of this run")
	c.Flags().StringVar(&dsn, "dsn", "", "history database (default: history.db in the state folder)")
	return c
}

func runStatus(r history.Run) string {
	switch {
	case r.FinishedAt == nil:
		return "running"
	case r.Interrupted:
		return "interrupted"
	case r.DryRun:
		return "dry-run"
	}
	return "done"
}
