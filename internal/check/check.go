// Package check locates ffmpeg and ffprobe, verifies that the configured
// encoder is usable, and reports system diagnostics for the check command.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/backmassage/codecshift/internal/config"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrFFmpegNotFound     = errors.New("ffmpeg not found")
	ErrFFprobeNotFound    = errors.New("ffprobe not found")
	ErrEncoderUnavailable = errors.New("encoder not available in this ffmpeg build")
	ErrEncoderTestFailed  = errors.New("encoder is listed but a test encode failed")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a recording logger.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	Debug(bool, string, ...any)
}

// Tools holds the resolved binary paths.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Locate resolves ffmpeg and ffprobe per FindBinary.
func Locate(cfg *config.Config) (Tools, error) {
	var t Tools
	var err error
	if t.FFmpeg, err = FindBinary("ffmpeg", cfg.Tools.FFmpeg, EnvFFmpeg); err != nil {
		return Tools{}, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	if t.FFprobe, err = FindBinary("ffprobe", cfg.Tools.FFprobe, EnvFFprobe); err != nil {
		return Tools{}, fmt.Errorf("%w: %v", ErrFFprobeNotFound, err)
	}
	return t, nil
}

// CheckDeps is the pre-run validation: both tools must exist, ffmpeg must
// list the configured encoder, and NVENC encoders must pass a short test
// encode (they are often compiled in without a usable GPU).
func CheckDeps(ctx context.Context, cfg *config.Config) (Tools, error) {
	tools, err := Locate(cfg)
	if err != nil {
		return Tools{}, err
	}
	enc := cfg.Codecs.Encoder
	available, err := ListEncoders(ctx, tools.FFmpeg)
	if err != nil {
		return Tools{}, fmt.Errorf("listing encoders: %w", err)
	}
	if !available[enc.FFmpegName()] {
		return Tools{}, fmt.Errorf("%w: %s", ErrEncoderUnavailable, enc.FFmpegName())
	}
	if isNVENC(enc) && !testEncode(ctx, tools.FFmpeg, enc.FFmpegName(), enc.PixelFormat()) {
		return Tools{}, fmt.Errorf("%w: %s", ErrEncoderTestFailed, enc.FFmpegName())
	}
	return tools, nil
}

// ListEncoders runs `ffmpeg -encoders` and returns the encoder names.
func ListEncoders(ctx context.Context, ffmpegPath string) (map[string]bool, error) {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, err
	}
	return ParseEncoders(out), nil
}

// ParseEncoders parses `ffmpeg -encoders` output. Encoder rows start with a
// six-character capability column (e.g. "V....D") followed by the name; the
// legend above the "------" separator is skipped.
func ParseEncoders(out []byte) map[string]bool {
	names := make(map[string]bool)
	body := out
	if i := bytes.Index(out, []byte("------")); i >= 0 {
		body = out[i+len("------"):]
	}
	for _, line := range strings.Split(string(body), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

// RunCheck prints tool versions, the relevant encoders, a test encode for
// the configured encoder, and host resources. It reports false when a tool
// is missing or the configured encoder does not work.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	tools, err := Locate(cfg)
	if err != nil {
		log.Error("%v", err)
		return false
	}
	logVersion(ctx, log, "ffmpeg", tools.FFmpeg)
	logVersion(ctx, log, "ffprobe", tools.FFprobe)

	available, err := ListEncoders(ctx, tools.FFmpeg)
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
	} else {
		for _, e := range []config.Encoder{config.EncoderX264, config.EncoderX264NVENC, config.EncoderX265, config.EncoderX265NVENC} {
			if available[e.FFmpegName()] {
				log.Success("  %-10s -> %s", e, e.FFmpegName())
			} else {
				log.Warn("  %-10s -> %s (not built in)", e, e.FFmpegName())
			}
		}
	}

	enc := cfg.Codecs.Encoder
	log.Info("Testing %s (%s)...", enc.FFmpegName(), enc.PixelFormat())
	ok := testEncode(ctx, tools.FFmpeg, enc.FFmpegName(), enc.PixelFormat())
	if ok {
		log.Success("%s works", enc.FFmpegName())
	} else {
		log.Error("%s test encode failed", enc.FFmpegName())
	}

	logHost(ctx, cfg, log)
	return ok
}

func logVersion(ctx context.Context, log Logger, name, path string) {
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		log.Warn("%s found at %s but -version failed: %v", name, path, err)
		return
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	log.Success("%s: %s (%s)", name, first, path)
}

func logHost(ctx context.Context, cfg *config.Config, log Logger) {
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		log.Info("CPU threads: %d", n)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		log.Info("Memory: %s available of %s", humanize.IBytes(vm.Available), humanize.IBytes(vm.Total))
	}
	for _, p := range []struct{ label, path string }{
		{"Output folder", cfg.Paths.OutputBaseFolder},
		{"State folder", cfg.Paths.StateFolder},
	} {
		if p.path == "" {
			continue
		}
		free, err := FreeSpace(ctx, p.path)
		if err != nil {
			log.Warn("%s %s: free space unknown: %v", p.label, p.path, err)
			continue
		}
		if free < LowSpaceThreshold {
			log.Warn("%s %s: only %s free", p.label, p.path, humanize.IBytes(free))
		} else {
			log.Info("%s %s: %s free", p.label, p.path, humanize.IBytes(free))
		}
	}
}

func isNVENC(e config.Encoder) bool {
	return e == config.EncoderX264NVENC || e == config.EncoderX265NVENC
}

// testEncode runs a tenth of a second of black video through codec.
func testEncode(ctx context.Context, ffmpegPath, codec, pixFmt string) bool {
	return runSilent(ctx, ffmpegPath,
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", codec, "-pix_fmt", pixFmt,
		"-f", "null", "-",
	)
}

// runSilent runs a command and reports whether it exited 0.
func runSilent(ctx context.Context, name string, args ...string) bool {
	return exec.CommandContext(ctx, name, args...).Run() == nil
}
