package pipeline

import (
	"errors"
	"path/filepath"

	"github.com/backmassage/codecshift/internal/fsx"
	"github.com/backmassage/codecshift/internal/planner"
	"github.com/backmassage/codecshift/internal/probe"
)

// copyFileFunc is swapped in tests to simulate copy failures.
var copyFileFunc = fsx.CopyFile

// copyThrough handles a candidate whose codec is not the expected one. The
// wrong-codec record is written whether or not the copy succeeds; a failed
// copy leaves no completed entry so the next run tries again.
func (r *Runner) copyThrough(c planner.Candidate, info probe.CodecInfo, counters *RunCounters) (Outcome, error) {
	expected := r.Cfg.Codecs.InputCodec.ProbeName()
	counters.WrongCodec++
	o := Outcome{Input: c.Input, Output: c.Output, Codec: info.Codec, State: StateWrongCodecNoCopy}

	r.Log.Warn("File is %s, not %s: %s", info.Codec, expected, c.Input)

	if r.Cfg.Other.DryRun {
		if r.Cfg.Other.CopyFilesOfWrongCodec {
			r.Log.Info("[DRY RUN] Would copy %s -> %s", c.Input, c.Output)
		}
		o.State = StateDryRun
		return o, nil
	}

	if r.Cfg.Other.CopyFilesOfWrongCodec {
		if err := r.copyFile(c); err != nil {
			var ce *fsx.CopyError
			if errors.As(err, &ce) && ce.IsPermission() {
				r.Log.Error("Permission denied while copying %s to %s: %v", c.Input, c.Output, err)
			} else {
				r.Log.Error("Error copying %s to %s: %v", c.Input, c.Output, err)
			}
			o.State = StateCopyFailed
			o.Detail = err.Error()
			if r.Cfg.Other.RecordCopyFailures {
				if err := r.recordError(phaseCopy, c.Input); err != nil {
					return o, err
				}
			}
		} else {
			if err := r.Ledger.RecordCopied(c.Output); err != nil {
				return o, err
			}
			r.Log.Success("Copied to %s", c.Output)
			o.State = StateCopied
		}
	}

	wrote, err := r.Ledger.RecordWrongCodec(info.Codec, expected, c.Input, c.Output)
	if err != nil {
		return o, err
	}
	if !wrote {
		r.Log.Debug(r.Cfg.Other.VerboseInformation, "Wrong codec for %s already recorded", c.Input)
	}
	return o, nil
}

func (r *Runner) copyFile(c planner.Candidate) error {
	dir := filepath.Dir(c.Output)
	created, err := ensureDir(dir)
	if err != nil {
		return err
	}
	if created {
		r.Log.Info("Created directory %s", dir)
	}
	return copyFileFunc(c.Input, c.Output)
}
