package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"

	"github.com/backmassage/codecshift/internal/display"
	"github.com/backmassage/codecshift/internal/ffmpeg"
	"github.com/backmassage/codecshift/internal/planner"
	"github.com/backmassage/codecshift/internal/probe"
)

// transcode encodes a matched candidate and records the result.
func (r *Runner) transcode(ctx context.Context, c planner.Candidate, info probe.CodecInfo, counters *RunCounters) (Outcome, error) {
	verbose := r.Cfg.Other.VerboseInformation
	o := Outcome{Input: c.Input, Output: c.Output, Codec: info.Codec}

	if fi, err := os.Stat(c.Input); err == nil {
		r.Log.Info("Input file size: %s", display.FormatSize(fi.Size()))
	}
	r.Log.Debug(verbose, "Source bit depth %d, target %d-bit %s", info.BitDepth(), r.Cfg.Codecs.Encoder.BitDepth(), r.Params.PixelFormat)

	if r.Cfg.Other.DryRun {
		counters.Success++
		r.Log.Info("[DRY RUN] Would transcode %s -> %s", c.Input, c.Output)
		o.State = StateDryRun
		return o, nil
	}

	dir := filepath.Dir(c.Output)
	created, err := ensureDir(dir)
	if err != nil {
		counters.Failed++
		r.Log.Error("Error creating directory %s: %v", dir, err)
		o.State = StateDirectoryFailed
		o.Detail = err.Error()
		return o, r.recordError(phaseDirectory, dir)
	}
	if created {
		r.Log.Info("Created directory %s", dir)
	}

	r.Log.Info("Transcoding %s", c.Input)
	start := r.Now()
	err = r.Encoder.Encode(ctx, ffmpeg.Job{Input: c.Input, Output: c.Output, Params: r.Params})
	if ctx.Err() != nil {
		r.Log.Warn("Transcode of %s interrupted; it will be retried on the next run", c.Input)
		return o, errInterrupted
	}
	if err != nil {
		counters.Failed++
		r.Log.Error("Error while transcoding %s: %v", c.Input, err)
		o.State = StateEncodeFailed
		o.Detail = err.Error()
		return o, r.recordError(phaseEncode, c.Input)
	}
	seconds := int64(math.Round(r.Now().Sub(start).Seconds()))

	if err := r.Ledger.RecordCompleted(c.Output, seconds); err != nil {
		return o, err
	}
	counters.Success++
	r.Log.Success("Transcoded in %s: %s", display.FormatDuration(seconds), c.Output)
	o.State = StateSucceeded
	o.Seconds = seconds
	return o, nil
}

// ensureDir creates dir and its parents, reporting whether it was missing.
func ensureDir(dir string) (bool, error) {
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}
