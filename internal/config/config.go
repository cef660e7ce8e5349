// Package config resolves daemon startup settings from a YAML file
// overridden by command-line flags, grounded on the retrieval pack's
// doismellburning-samoyed and Conceptual-Machines-magda-agents-go
// go.mod dependencies on github.com/spf13/pflag and gopkg.in/yaml.v3 —
// no config.go in the pack combines the two, so the merge order
// (defaults, then YAML, then flags) follows pflag's own documented
// "flags win" convention.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables original_source reads from its
// TOML/env startup and spec.md §6 names for the daemon.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	RecordingDir string `yaml:"recording_dir"`

	FramesPerPeriod     int     `yaml:"frames_per_period"`
	PreferredSampleRate float64 `yaml:"preferred_sample_rate"`
	UpsamplePasses      int     `yaml:"upsample_passes"`

	TunerMinFreq float64 `yaml:"tuner_min_freq"`
	TunerMaxFreq float64 `yaml:"tuner_max_freq"`
	TunerPeriods int     `yaml:"tuner_periods"`
}

// Default mirrors original_source's built-in fallbacks, used both as
// the zero-file starting point and to fill in anything a partial YAML
// document omits.
func Default() Config {
	return Config{
		ListenAddr:          "127.0.0.1:29475",
		RecordingDir:        ".",
		FramesPerPeriod:     256,
		PreferredSampleRate: 44100,
		UpsamplePasses:      1,
		TunerMinFreq:        40.0,
		TunerMaxFreq:        400.0,
		TunerPeriods:        4,
	}
}

// Load builds a Config from defaults, a YAML file (if path is
// non-empty and exists), and finally flagSet's parsed values, each
// layer overriding the last — matching pflag's "last one wins" merge
// idiom rather than direwolf's line-oriented config file scanner.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("pedalboardd", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML config file")
	listenAddr := fs.String("listen", "", "TCP address to accept client connections on")
	recordingDir := fs.String("recording-dir", "", "directory recordings are written to")
	framesPerPeriod := fs.Int("frames-per-period", 0, "audio block size in frames")
	sampleRate := fs.Float64("sample-rate", 0, "preferred device sample rate")
	upsamplePasses := fs.Int("upsample-passes", -1, "number of 2x resampler stages")
	tunerMin := fs.Float64("tuner-min-freq", 0, "lowest frequency the tuner detects")
	tunerMax := fs.Float64("tuner-max-freq", 0, "highest frequency the tuner detects")
	tunerPeriods := fs.Int("tuner-periods", 0, "YIN window size in waveform periods")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}

	if *configPath != "" {
		if err := mergeYAMLFile(&cfg, *configPath); err != nil {
			return Config{}, err
		}
	}

	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *recordingDir != "" {
		cfg.RecordingDir = *recordingDir
	}
	if *framesPerPeriod != 0 {
		cfg.FramesPerPeriod = *framesPerPeriod
	}
	if *sampleRate != 0 {
		cfg.PreferredSampleRate = *sampleRate
	}
	if *upsamplePasses >= 0 {
		cfg.UpsamplePasses = *upsamplePasses
	}
	if *tunerMin != 0 {
		cfg.TunerMinFreq = *tunerMin
	}
	if *tunerMax != 0 {
		cfg.TunerMaxFreq = *tunerMax
	}
	if *tunerPeriods != 0 {
		cfg.TunerPeriods = *tunerPeriods
	}

	return cfg, nil
}

func mergeYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}
