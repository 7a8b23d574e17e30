// Package ffmpeg derives encode parameters from configuration, builds the
// ffmpeg command line and runs it.
package ffmpeg

import (
	"strconv"

	"github.com/backmassage/codecshift/internal/config"
)

// Params is the fixed, encoder-derived parameter set for every encode in a
// run. The pixel format follows the encoder family, never the source.
type Params struct {
	VideoCodec  string // ffmpeg -c:v value
	CRF         int
	Preset      string
	PixelFormat string
	LogLevel    string // "verbose" or "error"
}

// ParamsFor derives Params from validated configuration.
func ParamsFor(cfg *config.Config) Params {
	level := "error"
	if cfg.Other.VerboseInformation {
		level = "verbose"
	}
	return Params{
		VideoCodec:  cfg.Codecs.Encoder.FFmpegName(),
		CRF:         cfg.Transcoding.CRF,
		Preset:      string(cfg.Transcoding.SpeedPreset),
		PixelFormat: cfg.Codecs.Encoder.PixelFormat(),
		LogLevel:    level,
	}
}

// Job is one encode: input, output and the run's parameters.
type Job struct {
	Input  string
	Output string
	Params Params
}

// Build returns the ffmpeg arguments (without the binary) for job. All
// streams are mapped; audio and subtitles are stream-copied; an existing
// output is overwritten.
func Build(job Job) []string {
	p := job.Params
	args := make([]string, 0, 32)

	// Preamble
	args = append(args, "-hide_banner", "-nostdin", "-y", "-loglevel", p.LogLevel, "-stats")

	// Input
	args = append(args, "-i", job.Input)

	// Streams
	args = append(args, "-map", "0")

	// Video
	args = append(args,
		"-c:v", p.VideoCodec,
		"-crf", strconv.Itoa(p.CRF),
		"-preset", p.Preset,
		"-pix_fmt", p.PixelFormat,
	)

	// Audio and subtitles pass through untouched.
	args = append(args, "-c:a", "copy", "-c:s", "copy")

	return append(args, job.Output)
}
