package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CODECSHIFT_CODECS_ENCODER.
const EnvPrefix = "CODECSHIFT"

// Override mutates a loaded Config before validation. CLI flags use it so
// that explicitly set flags win over file and environment values.
type Override func(*Config)

// Load reads configuration from file and environment, applies overrides and
// validates the result. An empty configPath searches the standard locations;
// a missing file is not an error (defaults and env vars still apply).
func Load(configPath string, overrides ...Override) (*Config, error) {
	return load(configPath, (*Config).Validate, overrides)
}

// LoadSettings is Load validated with ValidateSettings, so the base folders
// may be unset.
func LoadSettings(configPath string, overrides ...Override) (*Config, error) {
	return load(configPath, (*Config).ValidateSettings, overrides)
}

func load(configPath string, validate func(*Config) error, overrides []Override) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("codecshift")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.codecshift")
		v.AddConfigPath("/etc/codecshift")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	for _, o := range overrides {
		o(&cfg)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for all of them.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("paths.input_base_folder", d.Paths.InputBaseFolder)
	v.SetDefault("paths.output_base_folder", d.Paths.OutputBaseFolder)
	v.SetDefault("paths.state_folder", d.Paths.StateFolder)
	v.SetDefault("paths.input_files_list_name", d.Paths.InputFilesListName)
	v.SetDefault("paths.use_input_files_list", d.Paths.UseInputFilesList)

	v.SetDefault("codecs.input_codec", string(d.Codecs.InputCodec))
	v.SetDefault("codecs.skip_codec_checking", d.Codecs.SkipCodecChecking)
	v.SetDefault("codecs.encoder", string(d.Codecs.Encoder))
	v.SetDefault("codecs.remember_wrong_codec", d.Codecs.RememberWrongCodec)

	v.SetDefault("transcoding.speed_preset", string(d.Transcoding.SpeedPreset))
	v.SetDefault("transcoding.crf_quality", d.Transcoding.CRFQuality)
	v.SetDefault("transcoding.probe_timeout", d.Transcoding.ProbeTimeout)

	v.SetDefault("other.copy_files_of_wrong_codec", d.Other.CopyFilesOfWrongCodec)
	v.SetDefault("other.record_copy_failures", d.Other.RecordCopyFailures)
	v.SetDefault("other.verbose_information", d.Other.VerboseInformation)
	v.SetDefault("other.use_different_extension", d.Other.UseDifferentExtension)
	v.SetDefault("other.output_extension", d.Other.OutputExtension)
	v.SetDefault("other.dry_run", d.Other.DryRun)

	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.color", string(d.Logging.Color))

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.dsn", d.History.DSN)

	v.SetDefault("tools.ffmpeg", d.Tools.FFmpeg)
	v.SetDefault("tools.ffprobe", d.Tools.FFprobe)
}
