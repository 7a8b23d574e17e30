package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/codecshift/internal/check"
	"github.com/backmassage/codecshift/internal/display"
	"github.com/backmassage/codecshift/internal/listfile"
	"github.com/backmassage/codecshift/internal/logging"
	"github.com/backmassage/codecshift/internal/planner"
	"github.com/backmassage/codecshift/internal/probe"
)

func newScanCommand(o *options) *cobra.Command {
	var outPath string
	c := &cobra.Command{
		Use:   "scan",
		Short: "Write the list of input videos in the configured codec",
		Long: `scan walks the input folder, probes every video file and writes those in
codecs.input_codec to the list file (paths.input_files_list_name in the state
folder), grouped by folder and followed by a count and total size. A later run
with --list or paths.use_input_files_list reads it back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg, o.out, o.errOut)
			if err != nil {
				return err
			}
			defer log.Close()

			tools, err := check.Locate(cfg)
			if err != nil {
				log.Error("%v", err)
				return errReported
			}
			prober := &probe.FFprobe{Path: tools.FFprobe, Timeout: cfg.Transcoding.ProbeTimeout}

			// List entries are read back by later runs, possibly from
			// another working directory.
			for _, p := range []*string{&cfg.Paths.InputBaseFolder, &cfg.Paths.StateFolder} {
				if abs, err := filepath.Abs(*p); err == nil {
					*p = abs
				}
			}
			files, err := planner.Discover(cfg.Paths.InputBaseFolder, func(path string, err error) {
				log.Warn("Skipping unreadable %s: %v", path, err)
			})
			if err != nil {
				log.Error("Walking %s: %v", cfg.Paths.InputBaseFolder, err)
				return errReported
			}
			log.Info("Probing %s video files under %s", display.FormatCount(len(files)), cfg.Paths.InputBaseFolder)

			expected := cfg.Codecs.InputCodec.ProbeName()
			var b listfile.Builder
			for _, f := range files {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				info, err := prober.Probe(cmd.Context(), f)
				if err != nil {
					log.Warn("Skipping %s: %v", f, err)
					continue
				}
				if !probe.Matches(info, expected, false) {
					log.Debug(cfg.Other.VerboseInformation, "%s is %s", f, info.Codec)
					continue
				}
				var size int64
				if fi, err := os.Stat(f); err == nil {
					size = fi.Size()
				}
				b.Add(f, size)
			}

			if outPath == "" {
				outPath = cfg.ListFilePath()
			}
			if err := os.MkdirAll(cfg.Paths.StateFolder, 0o755); err != nil {
				log.Error("Cannot create state folder: %v", err)
				return errReported
			}
			if err := b.WriteFile(outPath, string(cfg.Codecs.InputCodec)); err != nil {
				log.Error("%v", err)
				return errReported
			}
			log.Success("Found %s %s files (%s), list written to %s",
				display.FormatCount(b.Count()), cfg.Codecs.InputCodec, display.FormatSize(b.Size()), outPath)
			return nil
		},
	}
	c.Flags().StringVar(&outPath, "write", "", "list file to write (default: the configured list file)")
	return c
}
