package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/codecshift/internal/check"
	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/display"
	"github.com/backmassage/codecshift/internal/ffmpeg"
	"github.com/backmassage/codecshift/internal/history"
	"github.com/backmassage/codecshift/internal/ledger"
	"github.com/backmassage/codecshift/internal/logging"
	"github.com/backmassage/codecshift/internal/pipeline"
	"github.com/backmassage/codecshift/internal/planner"
	"github.com/backmassage/codecshift/internal/probe"
)

func runTranscode(cmd *cobra.Command, o *options) error {
	// Configuration is validated completely before any file is touched.
	cfg, err := o.load(cmd)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg, o.out, o.errOut)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(o.out, version)

	if err := resolvePaths(cfg, log); err != nil {
		return err
	}

	log.Info("In:    %s", cfg.Paths.InputBaseFolder)
	log.Info("Out:   %s", cfg.Paths.OutputBaseFolder)
	log.Info("State: %s", cfg.Paths.StateFolder)

	led, err := ledger.Open(cfg.Paths.StateFolder)
	if err != nil {
		var ce *ledger.CorruptionError
		switch {
		case errors.Is(err, ledger.ErrLocked):
			log.Error("Another codecshift run is using %s", cfg.Paths.StateFolder)
		case errors.As(err, &ce):
			log.Error("Ledger is corrupt, fix or remove the line and rerun: %v", err)
		default:
			log.Error("Cannot open ledger: %v", err)
		}
		return errReported
	}
	defer led.Close()

	// Phase: signal handling. The first SIGINT/SIGTERM stops the run
	// between files or abandons the encode in flight.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tools, err := check.CheckDeps(ctx, cfg)
	if err != nil {
		log.Error("%v", err)
		return errReported
	}
	log.Debug(cfg.Other.VerboseInformation, "ffmpeg: %s, ffprobe: %s", tools.FFmpeg, tools.FFprobe)
	warnLowSpace(ctx, cfg, log)

	inputs, err := planner.Enumerate(cfg, func(path string, err error) {
		log.Warn("Skipping unreadable %s: %v", path, err)
	})
	if err != nil {
		log.Error("%v", err)
		return errReported
	}
	if cfg.Paths.UseInputFilesList {
		log.Info("Read %s candidates from %s", display.FormatCount(len(inputs)), cfg.ListFilePath())
	}

	runner := pipeline.New(cfg, log, led,
		&probe.FFprobe{Path: tools.FFprobe, Timeout: cfg.Transcoding.ProbeTimeout},
		&ffmpeg.Exec{Path: tools.FFmpeg, Stderr: o.errOut},
	)
	runner.Out = o.out

	store, run := openHistory(ctx, cfg, log)
	if store != nil {
		defer store.Close()
		runner.Journal = store.Journal(run)
	}

	counters, runErr := runner.Run(ctx, inputs)
	interrupted := runErr != nil && ctx.Err() != nil

	if store != nil {
		// The run context may be cancelled already; the final row is still written.
		if err := store.FinishRun(context.WithoutCancel(ctx), run, counters, time.Now(), interrupted); err != nil {
			log.Warn("Could not finish run history: %v", err)
		}
	}

	switch {
	case interrupted:
		return errReported
	case runErr != nil:
		log.Error("Ledger write failed, stopping: %v", runErr)
		return errReported
	case counters.Failed > 0:
		return errReported
	}
	return nil
}

// resolvePaths makes the roots absolute and rejects an output folder inside
// the input folder. Outside dry-run the output folder is created.
func resolvePaths(cfg *config.Config, log *logging.Logger) error {
	inputAbs, err := absPath(cfg.Paths.InputBaseFolder)
	if err != nil {
		log.Error("Input not found: %s", cfg.Paths.InputBaseFolder)
		return errReported
	}
	if !cfg.Other.DryRun {
		if err := os.MkdirAll(cfg.Paths.OutputBaseFolder, 0o755); err != nil {
			log.Error("Cannot create output directory: %s", cfg.Paths.OutputBaseFolder)
			return errReported
		}
	}
	outputAbs, err := absPath(cfg.Paths.OutputBaseFolder)
	if err != nil {
		// Dry runs do not create the output folder.
		if outputAbs, err = filepath.Abs(cfg.Paths.OutputBaseFolder); err != nil {
			log.Error("Cannot resolve output path: %s", cfg.Paths.OutputBaseFolder)
			return errReported
		}
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.Paths.InputBaseFolder)
		return errReported
	}

	// Candidates are matched against the roots lexically, so keep the
	// unresolved absolute form.
	for _, p := range []*string{&cfg.Paths.InputBaseFolder, &cfg.Paths.OutputBaseFolder, &cfg.Paths.StateFolder} {
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}
	return nil
}

func warnLowSpace(ctx context.Context, cfg *config.Config, log *logging.Logger) {
	free, err := check.FreeSpace(ctx, cfg.Paths.OutputBaseFolder)
	if err != nil {
		log.Debug(cfg.Other.VerboseInformation, "Free space unknown for %s: %v", cfg.Paths.OutputBaseFolder, err)
		return
	}
	if free < check.LowSpaceThreshold {
		log.Warn("Only %s free on the output volume", display.FormatSize(int64(free)))
	}
}

// openHistory starts a history run. History is best effort: failures are
// logged and the run continues without it.
func openHistory(ctx context.Context, cfg *config.Config, log *logging.Logger) (*history.Store, *history.Run) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.HistoryDSN())
	if err != nil {
		log.Warn("Run history disabled: %v", err)
		return nil, nil
	}
	run, err := store.BeginRun(ctx, cfg, time.Now())
	if err != nil {
		log.Warn("Run history disabled: %v", err)
		_ = store.Close()
		return nil, nil
	}
	log.Debug(cfg.Other.VerboseInformation, "History run %s", run.ID)
	return store, run
}
