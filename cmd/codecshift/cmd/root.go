// Package cmd implements the codecshift command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/backmassage/codecshift/internal/config"
)

// errReported means the failure was already logged; Execute only sets the
// exit code.
var errReported = errors.New("reported")

// options are the flag values shared by every command.
type options struct {
	configPath string
	input      string
	output     string
	state      string
	color      string
	logFile    string
	verbose    bool
	dryRun     bool
	noHistory  bool
	useList    bool

	out    io.Writer
	errOut io.Writer
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "codecshift: %v\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree. The root command runs the
// transcode.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{out: stdout, errOut: stderr}

	root := &cobra.Command{
		Use:   "codecshift",
		Short: "Resumable batch video transcoder",
		Long: `codecshift walks an input folder (or reads a list file), checks the codec
of every video with ffprobe and re-encodes matching files with ffmpeg into the
same relative path under the output folder. Files in other codecs can be
copied through unchanged.

Progress is recorded in the state folder, so an interrupted run picks up where
it stopped. Configuration comes from codecshift.yaml, CODECSHIFT_* environment
variables and the flags below, in increasing priority.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTranscode(cmd, o)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "config file (default: codecshift.yaml in ., $HOME/.codecshift, /etc/codecshift)")
	pf.StringVarP(&o.input, "input", "i", "", "input base folder")
	pf.StringVarP(&o.output, "output", "o", "", "output base folder")
	pf.StringVar(&o.state, "state", "", "state folder for the ledger, list file and history")
	pf.StringVar(&o.color, "color", "", "color output: auto, always or never")
	pf.StringVar(&o.logFile, "log", "", "also write JSON log records to this file")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output")

	f := root.Flags()
	f.BoolVarP(&o.dryRun, "dry-run", "n", false, "probe and report without encoding, copying or recording")
	f.BoolVar(&o.noHistory, "no-history", false, "do not write the run history database")
	f.BoolVar(&o.useList, "list", false, "read candidates from the list file instead of walking the input folder")

	root.AddCommand(
		newCheckCommand(o),
		newScanCommand(o),
		newLedgerCommand(o),
		newHistoryCommand(o),
		newConfigCommand(o),
		newVersionCommand(o),
	)
	return root
}

// load reads configuration with explicitly set flags applied on top.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath, o.overrides(cmd)...)
	if err != nil {
		return nil, err
	}
	cfg.Paths.InputBaseFolder = config.NormalizeDirArg(cfg.Paths.InputBaseFolder)
	cfg.Paths.OutputBaseFolder = config.NormalizeDirArg(cfg.Paths.OutputBaseFolder)
	return cfg, nil
}

// loadSettings is load without requiring the base folders.
func (o *options) loadSettings(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadSettings(o.configPath, o.overrides(cmd)...)
}

// overrides turns the flags the user actually set into config overrides,
// so unset flags never mask file or environment values.
func (o *options) overrides(cmd *cobra.Command) []config.Override {
	f := cmd.Flags()
	var out []config.Override
	set := func(name string, fn config.Override) {
		if changed(f, name) {
			out = append(out, fn)
		}
	}
	set("input", func(c *config.Config) { c.Paths.InputBaseFolder = o.input })
	set("output", func(c *config.Config) { c.Paths.OutputBaseFolder = o.output })
	set("state", func(c *config.Config) { c.Paths.StateFolder = o.state })
	set("color", func(c *config.Config) { c.Logging.Color = config.ColorMode(o.color) })
	set("log", func(c *config.Config) { c.Logging.File = o.logFile })
	set("verbose", func(c *config.Config) { c.Other.VerboseInformation = o.verbose })
	set("dry-run", func(c *config.Config) { c.Other.DryRun = o.dryRun })
	set("no-history", func(c *config.Config) { c.History.Enabled = !o.noHistory })
	set("list", func(c *config.Config) { c.Paths.UseInputFilesList = o.useList })
	return out
}

// changed reports whether name exists in f and was set on the command line.
func changed(f *pflag.FlagSet, name string) bool {
	fl := f.Lookup(name)
	return fl != nil && fl.Changed
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
