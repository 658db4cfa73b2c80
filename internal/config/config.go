package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override, e.g. VOCALCUT_CACHE_DIR.
const EnvPrefix = "VOCALCUT"

type Config struct {
	Environment string `yaml:"environment" envconfig:"ENVIRONMENT"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	CacheDir       string `yaml:"cache_dir" split_words:"true" validate:"required"`
	FFmpegPath     string `yaml:"ffmpeg_path" split_words:"true" validate:"required"`
	FFprobePath    string `yaml:"ffprobe_path" split_words:"true" validate:"required"`
	ExtractWorkers int    `yaml:"extract_workers" split_words:"true" validate:"min=1,max=32"`

	ASR     ASR     `yaml:"asr"`
	Encode  Encode  `yaml:"encode"`
	Storage Storage `yaml:"storage"`
}

type ASR struct {
	Backend      string `yaml:"backend" validate:"oneof=whispercpp assemblyai"`
	Language     string `yaml:"language" validate:"required"`
	WhisperBin   string `yaml:"whisper_bin" split_words:"true" validate:"required_if=Backend whispercpp"`
	WhisperModel string `yaml:"whisper_model" split_words:"true" validate:"required_if=Backend whispercpp"`
	APIKey       string `yaml:"assemblyai_api_key" envconfig:"ASSEMBLYAI_API_KEY" validate:"required_if=Backend assemblyai"`
}

type Encode struct {
	VideoCodec         string `yaml:"video_codec" split_words:"true" validate:"required"`
	AudioCodec         string `yaml:"audio_codec" split_words:"true" validate:"required"`
	VideoBitrate       string `yaml:"video_bitrate" split_words:"true" validate:"required"`
	AudioBitrate       string `yaml:"audio_bitrate" split_words:"true" validate:"required"`
	ConcatVideoBitrate string `yaml:"concat_video_bitrate" split_words:"true" validate:"required"`
	Preset             string `yaml:"preset" validate:"required"`
	CRF                int    `yaml:"crf" validate:"min=1,max=51"`
}

// Storage is only needed for publishing; an empty Endpoint disables it.
type Storage struct {
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"access_key" split_words:"true" validate:"required_with=Endpoint"`
	SecretKey     string        `yaml:"secret_key" split_words:"true" validate:"required_with=Endpoint"`
	Bucket        string        `yaml:"bucket" validate:"required_with=Endpoint"`
	UseSSL        bool          `yaml:"use_ssl" split_words:"true"`
	PresignExpiry time.Duration `yaml:"presign_expiry" split_words:"true" validate:"min=1s,max=168h"`
}

func (s Storage) Enabled() bool { return s.Endpoint != "" }

func Default() *Config {
	return &Config{
		Environment:    "local",
		LogLevel:       "info",
		CacheDir:       ".cache",
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",
		ExtractWorkers: 1,
		ASR: ASR{
			Backend:      "whispercpp",
			Language:     "zh",
			WhisperBin:   ".cache/bin/whisper.cpp",
			WhisperModel: ".cache/models/ggml-base.bin",
		},
		Encode: Encode{
			VideoCodec:         "libx264",
			AudioCodec:         "aac",
			VideoBitrate:       "1000k",
			AudioBitrate:       "128k",
			ConcatVideoBitrate: "1500k",
			Preset:             "medium",
			CRF:                23,
		},
		Storage: Storage{
			PresignExpiry: 24 * time.Hour,
		},
	}
}

// Load layers the optional YAML file and then the environment over the
// defaults. Fields absent from both keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q check", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}
