// Package config holds the download settings, their defaults and the
// subtitle language map.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultMaxParallel = 1
	MinMaxParallel     = 1
	MaxMaxParallel     = 10
	DefaultMaxRetries  = 10
	DefaultLogMode     = "dev"
)

// Environment variable keys
const (
	EnvLogMode     = "DC_LOG_MODE"
	EnvMaxParallel = "DC_MAX_PARALLEL"
	EnvSessionFile = "DC_SESSION_FILE"
)

// SubtitleLanguages maps CLI language codes to the full language names the
// platform uses on subtitle streams.
var SubtitleLanguages = map[string]string{
	"en": "English",
	"zh": "Chinese simplified",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"pt": "Portuguese",
	"ru": "Russian",
	"es": "Spanish",
}

// DownloadOptions gates which asset types the pipeline persists and how.
// Overwrite applies uniformly across all asset types.
type DownloadOptions struct {
	Slides      bool     `yaml:"slides"`
	Datasets    bool     `yaml:"datasets"`
	Videos      bool     `yaml:"videos"`
	Exercises   bool     `yaml:"exercises"`
	Audios      bool     `yaml:"audios"`
	Scripts     bool     `yaml:"scripts"`
	LastAttempt bool     `yaml:"last_attempt"`
	Subtitles   []string `yaml:"subtitles"`
	Overwrite   bool     `yaml:"overwrite"`
	MaxParallel int      `yaml:"max_parallel"`
	MaxRetries  int      `yaml:"max_retries"`
}

// DefaultDownloadOptions mirrors the upstream CLI defaults: everything except
// audio is downloaded, English subtitles, no overwriting, sequential transfers.
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Slides:      true,
		Datasets:    true,
		Videos:      true,
		Exercises:   true,
		Audios:      false,
		Scripts:     true,
		LastAttempt: true,
		Subtitles:   []string{"en"},
		Overwrite:   false,
		MaxParallel: DefaultMaxParallel,
		MaxRetries:  DefaultMaxRetries,
	}
}

// Clamp bounds the tunable fields to safe ranges.
func (o *DownloadOptions) Clamp() {
	if o.MaxParallel < MinMaxParallel {
		o.MaxParallel = MinMaxParallel
	}
	if o.MaxParallel > MaxMaxParallel {
		o.MaxParallel = MaxMaxParallel
	}
	if o.MaxRetries < 1 {
		o.MaxRetries = 1
	}
}

// Settings is the application-level configuration.
type Settings struct {
	LogMode     string          `yaml:"log_mode"`
	SessionFile string          `yaml:"session_file"`
	Download    DownloadOptions `yaml:"download"`
}

// DefaultSettings returns the settings used when no config file is present.
func DefaultSettings() Settings {
	return Settings{
		LogMode:  DefaultLogMode,
		Download: DefaultDownloadOptions(),
	}
}

// Load reads settings from an optional YAML file, then applies environment
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Settings, error) {
	settings := DefaultSettings()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// First run; defaults apply.
		case err != nil:
			return settings, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &settings); err != nil {
				return settings, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(&settings)
	settings.Download.Clamp()
	return settings, nil
}

func applyEnv(s *Settings) {
	if mode := os.Getenv(EnvLogMode); mode != "" {
		s.LogMode = mode
	}
	if file := os.Getenv(EnvSessionFile); file != "" {
		s.SessionFile = file
	}
	if raw := os.Getenv(EnvMaxParallel); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			s.Download.MaxParallel = n
		}
	}
}
