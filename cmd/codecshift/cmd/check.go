package cmd

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/codecshift/internal/check"
	"github.com/backmassage/codecshift/internal/logging"
)

func newCheckCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check ffmpeg, ffprobe, the configured encoder and free space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadSettings(cmd)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg, o.out, o.errOut)
			if err != nil {
				return err
			}
			defer log.Close()

			if !check.RunCheck(cmd.Context(), cfg, log) {
				return errReported
			}
			return nil
		},
	}
}
