package pipeline

import "context"

// State is the terminal state of one candidate.
type State string

const (
	StateAlreadyTranscoded    State = "already_transcoded"
	StateAlreadyCopied        State = "already_copied"
	StateDisqualifiedPath     State = "disqualified_path"
	StateProbeFailed          State = "probe_failed"
	StateCopied               State = "copied"
	StateCopyFailed           State = "copy_failed"
	StateWrongCodecNoCopy     State = "wrong_codec"
	StateWrongCodecRemembered State = "wrong_codec_remembered"
	StateDirectoryFailed      State = "directory_failed"
	StateSucceeded            State = "succeeded"
	StateEncodeFailed         State = "encode_failed"
	StateDryRun               State = "dry_run"
)

// Failed reports whether the state counts toward the failed counter.
func (s State) Failed() bool {
	switch s {
	case StateDisqualifiedPath, StateProbeFailed, StateDirectoryFailed, StateEncodeFailed:
		return true
	}
	return false
}

// Outcome describes how one candidate was resolved.
type Outcome struct {
	Input   string
	Output  string
	State   State
	Codec   string // detected codec, when probed
	Seconds int64  // encode time, or the recorded time for already-done files
	Detail  string // error text for failed states
}

// Journal receives every outcome of a run. Record errors are logged and
// never stop the run.
type Journal interface {
	Record(ctx context.Context, o Outcome) error
}
