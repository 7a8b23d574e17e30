// Package pipeline is the run coordinator: for every candidate it consults
// the ledger, classifies the source codec, and dispatches to the encoder or
// the copy-through, recording each outcome durably before moving on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/backmassage/codecshift/internal/config"
	"github.com/backmassage/codecshift/internal/display"
	"github.com/backmassage/codecshift/internal/ffmpeg"
	"github.com/backmassage/codecshift/internal/ledger"
	"github.com/backmassage/codecshift/internal/logging"
	"github.com/backmassage/codecshift/internal/naming"
	"github.com/backmassage/codecshift/internal/planner"
	"github.com/backmassage/codecshift/internal/probe"
)

// Ledger error phases. The text is part of the persisted format.
const (
	phasePath      = "Error constructing relative path"
	phaseProbe     = "Error reading codec"
	phaseDirectory = "Error creating directory"
	phaseEncode    = "Error while transcoding"
	phaseCopy      = "Error copying file"
)

// errInterrupted marks a candidate abandoned because ctx was cancelled.
var errInterrupted = errors.New("interrupted")

// Runner processes candidates sequentially. All fields except Journal, Out
// and Now are required.
type Runner struct {
	Cfg     *config.Config
	Log     *logging.Logger
	Ledger  *ledger.Ledger
	Planner *planner.Planner
	Prober  probe.Prober
	Encoder ffmpeg.Encoder
	Params  ffmpeg.Params

	Journal Journal          // optional
	Out     io.Writer        // progress banner and summary; io.Discard when nil
	Now     func() time.Time // time.Now when nil

	claims *naming.Claims
}

// New wires a Runner from configuration and its collaborators.
func New(cfg *config.Config, log *logging.Logger, led *ledger.Ledger, prober probe.Prober, enc ffmpeg.Encoder) *Runner {
	return &Runner{
		Cfg:     cfg,
		Log:     log,
		Ledger:  led,
		Planner: planner.New(cfg),
		Prober:  prober,
		Encoder: enc,
		Params:  ffmpeg.ParamsFor(cfg),
		Out:     os.Stdout,
	}
}

// Run processes inputs in order and returns the counters. A ledger write
// failure aborts the run with an error; cancellation of ctx stops it
// between files (or abandons the encode in flight) and returns ctx.Err().
// The summary is printed in every case.
func (r *Runner) Run(ctx context.Context, inputs []string) (RunCounters, error) {
	if r.Out == nil {
		r.Out = io.Discard
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	r.claims = naming.NewClaims()

	counters := RunCounters{Total: len(inputs)}
	r.logHeader(len(inputs))

	var runErr error
	for _, input := range inputs {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}

		o, err := r.processFile(ctx, input, &counters)
		if errors.Is(err, errInterrupted) {
			runErr = ctx.Err()
			break
		}
		if err != nil {
			runErr = err
			break
		}
		r.journal(ctx, o)
	}

	if runErr != nil && ctx.Err() != nil {
		r.Log.Warn("Interrupted: %d of %d files left unprocessed", counters.Left(), counters.Total)
	}
	display.PrintSummary(r.Out, counters.Tally(), r.Ledger.Totals().Seconds)
	return counters, runErr
}

// processFile drives one candidate to a terminal state. It returns
// errInterrupted when ctx was cancelled mid-file and a non-nil error only
// for fatal ledger failures.
func (r *Runner) processFile(ctx context.Context, input string, counters *RunCounters) (Outcome, error) {
	c := r.Planner.Plan(input)
	if !c.Planned() {
		counters.Failed++
		r.Log.Error("Error constructing relative path for %s: %v", input, c.PlanErr)
		o := Outcome{Input: input, State: StateDisqualifiedPath, Detail: c.PlanErr.Error()}
		return o, r.recordError(phasePath, input)
	}

	if owner, collided := r.claims.Claim(c.Input, c.Output); collided {
		r.Log.Warn("%s maps to the same output as %s: %s", c.Input, owner, c.Output)
	}

	if e, done := r.Ledger.Completed(c.Output); done {
		return r.alreadyDone(c, e, counters), nil
	}

	display.PrintProgress(r.Out, counters.Tally(), string(r.Cfg.Codecs.InputCodec), r.Cfg.Other.CopyFilesOfWrongCodec)

	if r.Cfg.Codecs.RememberWrongCodec && (r.Ledger.WrongCodecRecorded(c.Input) || r.Ledger.WrongCodecRecorded(c.Output)) {
		counters.WrongCodec++
		r.Log.Info("Skipping %s: already recorded as not %s", c.Input, r.Cfg.Codecs.InputCodec)
		return Outcome{Input: c.Input, Output: c.Output, State: StateWrongCodecRemembered}, nil
	}

	info, err := r.Prober.Probe(ctx, c.Input)
	if ctx.Err() != nil {
		return Outcome{}, errInterrupted
	}
	if err != nil {
		counters.Failed++
		r.Log.Error("Error reading codec for %s. Skipping: %v", c.Input, err)
		o := Outcome{Input: c.Input, Output: c.Output, State: StateProbeFailed, Detail: err.Error()}
		return o, r.recordError(phaseProbe, c.Input)
	}
	r.Log.Info("Detected Codec: %s, Profile: %s, Pixel Format: %s", info.Codec, info.Profile, info.PixelFormat)

	expected := r.Cfg.Codecs.InputCodec.ProbeName()
	if !probe.Matches(info, expected, r.Cfg.Codecs.SkipCodecChecking) {
		return r.copyThrough(c, info, counters)
	}
	return r.transcode(ctx, c, info, counters)
}

func (r *Runner) alreadyDone(c planner.Candidate, e ledger.CompletedEntry, counters *RunCounters) Outcome {
	if e.Copied {
		counters.WrongCodec++
		r.Log.Info("%d. File already copied: %s", counters.Handled(), c.Output)
		return Outcome{Input: c.Input, Output: c.Output, State: StateAlreadyCopied}
	}
	counters.Success++
	r.Log.Info("%d. File already transcoded (%s): %s", counters.Handled(), display.FormatDuration(e.Seconds), c.Output)
	return Outcome{Input: c.Input, Output: c.Output, State: StateAlreadyTranscoded, Seconds: e.Seconds}
}

// recordError appends an error record unless this is a dry run.
func (r *Runner) recordError(phase, subject string) error {
	if r.Cfg.Other.DryRun {
		return nil
	}
	wrote, err := r.Ledger.RecordError(phase, subject)
	if err != nil {
		return err
	}
	if !wrote {
		r.Log.Debug(r.Cfg.Other.VerboseInformation, "Error for %s already recorded", subject)
	}
	return nil
}

func (r *Runner) journal(ctx context.Context, o Outcome) {
	if r.Journal == nil {
		return
	}
	if err := r.Journal.Record(ctx, o); err != nil {
		r.Log.Warn("Could not write run history for %s: %v", o.Input, err)
	}
}

func (r *Runner) logHeader(total int) {
	cfg := r.Cfg
	r.Log.Info("Found %s files", display.FormatCount(total))
	r.Log.Info("Expecting %s sources; encoding with %s (%s, %d-bit), CRF %d, preset %s",
		cfg.Codecs.InputCodec, r.Params.VideoCodec, r.Params.PixelFormat,
		cfg.Codecs.Encoder.BitDepth(), r.Params.CRF, r.Params.Preset)
	if cfg.Codecs.SkipCodecChecking {
		r.Log.Warn("Codec checking disabled: every file will be transcoded")
	}
	if cfg.Other.CopyFilesOfWrongCodec {
		r.Log.Info("Files in other codecs are copied to the output unchanged")
	}
	if cfg.Other.DryRun {
		r.Log.Warn("DRY RUN: nothing will be encoded, copied or recorded")
	}
	fmt.Fprintln(r.Out)
}
