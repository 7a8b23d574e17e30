// Package config holds runtime configuration: typed enums, defaults, layered
// loading (file, environment, flags) and exhaustive validation. Validation
// always completes before any file or ledger is touched.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// SourceCodec is the codec the input library is expected to be in.
type SourceCodec string

const (
	SourceH264 SourceCodec = "h264"
	SourceH265 SourceCodec = "h265"
	SourceVP9  SourceCodec = "vp9"
)

// ProbeName returns the codec name as ffprobe reports it.
func (s SourceCodec) ProbeName() string {
	if s == SourceH265 {
		return "hevc"
	}
	return string(s)
}

// Encoder selects the target video encoder family.
type Encoder string

const (
	EncoderX264      Encoder = "x264"
	EncoderX264NVENC Encoder = "x264_nvenc"
	EncoderX265      Encoder = "x265"
	EncoderX265NVENC Encoder = "x265_nvenc"
)

// FFmpegName returns the ffmpeg -c:v identifier for the encoder.
func (e Encoder) FFmpegName() string {
	switch e {
	case EncoderX264:
		return "libx264"
	case EncoderX264NVENC:
		return "h264_nvenc"
	case EncoderX265:
		return "libx265"
	case EncoderX265NVENC:
		return "hevc_nvenc"
	}
	return ""
}

// PixelFormat returns the forced output pixel format. The 264 family is
// pinned to 8-bit, the 265 family to 10-bit, regardless of the source.
func (e Encoder) PixelFormat() string {
	switch e {
	case EncoderX264, EncoderX264NVENC:
		return "yuv420p"
	case EncoderX265, EncoderX265NVENC:
		return "yuv420p10le"
	}
	return ""
}

// BitDepth is 8 or 10 depending on the encoder family (0 if unknown).
func (e Encoder) BitDepth() int {
	switch e.PixelFormat() {
	case "yuv420p":
		return 8
	case "yuv420p10le":
		return 10
	}
	return 0
}

// Preset is an x264/x265 speed preset.
type Preset string

// Presets lists the ten accepted speed presets, fastest first.
var Presets = []Preset{
	"ultrafast", "superfast", "veryfast", "faster", "fast",
	"medium", "slow", "slower", "veryslow", "placebo",
}

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

const (
	CRFMin = 0
	CRFMax = 51
)

// Config holds all runtime settings, grouped the way the settings file is.
type Config struct {
	Paths       PathsConfig       `mapstructure:"paths" yaml:"paths"`
	Codecs      CodecsConfig      `mapstructure:"codecs" yaml:"codecs"`
	Transcoding TranscodingConfig `mapstructure:"transcoding" yaml:"transcoding"`
	Other       OtherConfig       `mapstructure:"other" yaml:"other"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	History     HistoryConfig     `mapstructure:"history" yaml:"history"`
	Tools       ToolsConfig       `mapstructure:"tools" yaml:"tools"`
}

// PathsConfig locates the input tree, the output tree and the run state.
type PathsConfig struct {
	InputBaseFolder    string `mapstructure:"input_base_folder" yaml:"input_base_folder"`
	OutputBaseFolder   string `mapstructure:"output_base_folder" yaml:"output_base_folder"`
	StateFolder        string `mapstructure:"state_folder" yaml:"state_folder"` // ledger, list file, history.db
	InputFilesListName string `mapstructure:"input_files_list_name" yaml:"input_files_list_name"`
	UseInputFilesList  bool   `mapstructure:"use_input_files_list" yaml:"use_input_files_list"`
}

// CodecsConfig describes the expected source codec and the target encoder.
type CodecsConfig struct {
	InputCodec         SourceCodec `mapstructure:"input_codec" yaml:"input_codec"`
	SkipCodecChecking  bool        `mapstructure:"skip_codec_checking" yaml:"skip_codec_checking"`
	Encoder            Encoder     `mapstructure:"encoder" yaml:"encoder"`
	RememberWrongCodec bool        `mapstructure:"remember_wrong_codec" yaml:"remember_wrong_codec"`
}

// TranscodingConfig holds the encoder quality knobs.
type TranscodingConfig struct {
	SpeedPreset Preset `mapstructure:"speed_preset" yaml:"speed_preset"`
	// CRFQuality is kept as text so that "23.5" or "high" can be rejected
	// explicitly instead of being coerced. Validate fills CRF.
	CRFQuality   string        `mapstructure:"crf_quality" yaml:"crf_quality"`
	CRF          int           `mapstructure:"-" yaml:"-"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

// OtherConfig holds behavior toggles.
type OtherConfig struct {
	CopyFilesOfWrongCodec bool   `mapstructure:"copy_files_of_wrong_codec" yaml:"copy_files_of_wrong_codec"`
	RecordCopyFailures    bool   `mapstructure:"record_copy_failures" yaml:"record_copy_failures"`
	VerboseInformation    bool   `mapstructure:"verbose_information" yaml:"verbose_information"`
	UseDifferentExtension bool   `mapstructure:"use_different_extension" yaml:"use_different_extension"`
	OutputExtension       string `mapstructure:"output_extension" yaml:"output_extension"`
	DryRun                bool   `mapstructure:"dry_run" yaml:"dry_run"`
}

// LoggingConfig controls console colors and the optional JSON log file.
type LoggingConfig struct {
	File  string    `mapstructure:"file" yaml:"file"`
	Color ColorMode `mapstructure:"color" yaml:"color"`
}

// HistoryConfig controls the SQLite run journal.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"` // Default: <state_folder>/history.db.
}

// ToolsConfig pins the ffmpeg/ffprobe binaries. Empty means auto-detect.
type ToolsConfig struct {
	FFmpeg  string `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	FFprobe string `mapstructure:"ffprobe" yaml:"ffprobe"`
}

// DefaultConfig returns a Config with every default applied. It mirrors the
// viper defaults registered by SetDefaults.
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			StateFolder:        ".",
			InputFilesListName: "files.txt",
		},
		Codecs: CodecsConfig{
			InputCodec: SourceH264,
			Encoder:    EncoderX265,
		},
		Transcoding: TranscodingConfig{
			SpeedPreset:  "medium",
			CRFQuality:   "23",
			CRF:          23,
			ProbeTimeout: 10 * time.Second,
		},
		Other: OtherConfig{
			OutputExtension: "mkv",
		},
		Logging: LoggingConfig{
			Color: ColorAuto,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// ValidationError names the offending configuration key.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Key, e.Value, e.Reason)
}

func invalid(key, value, reason string) error {
	return &ValidationError{Key: key, Value: value, Reason: reason}
}

// Validate checks every enum and range, normalizing case and whitespace in
// place, and requires both base folders. It fills Transcoding.CRF from
// Transcoding.CRFQuality.
func (c *Config) Validate() error {
	if err := c.ValidateSettings(); err != nil {
		return err
	}
	if c.Paths.InputBaseFolder == "" {
		return invalid("paths.input_base_folder", "", "required")
	}
	if c.Paths.OutputBaseFolder == "" {
		return invalid("paths.output_base_folder", "", "required")
	}
	return nil
}

// ValidateSettings is Validate without the base-folder requirement, for
// commands that never touch the library.
func (c *Config) ValidateSettings() error {
	c.Codecs.InputCodec = SourceCodec(normalizeEnum(string(c.Codecs.InputCodec)))
	switch c.Codecs.InputCodec {
	case SourceH264, SourceH265, SourceVP9:
		// valid
	default:
		return invalid("codecs.input_codec", string(c.Codecs.InputCodec), "use h264, h265 or vp9")
	}

	c.Codecs.Encoder = Encoder(normalizeEnum(string(c.Codecs.Encoder)))
	switch c.Codecs.Encoder {
	case EncoderX264, EncoderX264NVENC, EncoderX265, EncoderX265NVENC:
		// valid
	default:
		return invalid("codecs.encoder", string(c.Codecs.Encoder), "use x264, x264_nvenc, x265 or x265_nvenc")
	}

	c.Transcoding.SpeedPreset = Preset(normalizeEnum(string(c.Transcoding.SpeedPreset)))
	if !validPreset(c.Transcoding.SpeedPreset) {
		return invalid("transcoding.speed_preset", string(c.Transcoding.SpeedPreset), "use one of "+presetList())
	}

	crf, err := ParseCRF(c.Transcoding.CRFQuality)
	if err != nil {
		return err
	}
	c.Transcoding.CRF = crf

	if c.Transcoding.ProbeTimeout <= 0 {
		return invalid("transcoding.probe_timeout", c.Transcoding.ProbeTimeout.String(), "must be positive")
	}

	c.Logging.Color = ColorMode(normalizeEnum(string(c.Logging.Color)))
	switch c.Logging.Color {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return invalid("logging.color", string(c.Logging.Color), "use auto, always or never")
	}

	if c.Other.UseDifferentExtension {
		c.Other.OutputExtension = strings.TrimPrefix(strings.TrimSpace(c.Other.OutputExtension), ".")
		if c.Other.OutputExtension == "" || strings.ContainsAny(c.Other.OutputExtension, `/\`) {
			return invalid("other.output_extension", c.Other.OutputExtension, "must be a bare extension such as mkv")
		}
	}

	if c.Paths.StateFolder == "" {
		c.Paths.StateFolder = "."
	}
	if c.Paths.UseInputFilesList && strings.TrimSpace(c.Paths.InputFilesListName) == "" {
		return invalid("paths.input_files_list_name", "", "required when use_input_files_list is set")
	}
	return nil
}

// ParseCRF parses a constant-rate-factor value: a whole number in [0, 51].
func ParseCRF(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid("transcoding.crf_quality", raw, "must be a whole number")
	}
	if n < CRFMin || n > CRFMax {
		return 0, invalid("transcoding.crf_quality", raw, fmt.Sprintf("must be between %d and %d", CRFMin, CRFMax))
	}
	return n, nil
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory, so a directory walk never rediscovers
// its own outputs. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return invalid("paths.output_base_folder", outputAbs, "must not be inside the input folder")
	}
	return nil
}

// ListFilePath is the candidate list file inside the state folder.
func (c *Config) ListFilePath() string {
	return filepath.Join(c.Paths.StateFolder, c.Paths.InputFilesListName)
}

// HistoryDSN returns the configured history DSN or the state-folder default.
func (c *Config) HistoryDSN() string {
	if c.History.DSN != "" {
		return c.History.DSN
	}
	return filepath.Join(c.Paths.StateFolder, "history.db")
}

// OutputExt returns the rewritten extension, or "" when extensions are kept.
func (c *Config) OutputExt() string {
	if !c.Other.UseDifferentExtension {
		return ""
	}
	return c.Other.OutputExtension
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validPreset(p Preset) bool {
	for _, v := range Presets {
		if v == p {
			return true
		}
	}
	return false
}

func presetList() string {
	names := make([]string, len(Presets))
	for i, p := range Presets {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
