package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Audio struct {
		Backend     string   `toml:"backend"`
		VolumeBoost *float32 `toml:"volume_boost"`
		SampleRate  int      `toml:"sample_rate"`
		InputFormat string   `toml:"input_format"`
		InputDevice string   `toml:"input_device"`
		FFMPEG      string   `toml:"ffmpeg_command"`
	} `toml:"audio"`

	Engine struct {
		Backend          string `toml:"backend"`
		ModelDir         string `toml:"model_dir"`
		Model            string `toml:"model"`
		Language         string `toml:"language"`
		Threads          int    `toml:"threads"`
		UnloadDelaySecs  *int   `toml:"unload_delay_secs"`
		DeepgramAPIKey   string `toml:"deepgram_api_key"`
		DeepgramModel    string `toml:"deepgram_model"`
		DeepgramAPIBase  string `toml:"deepgram_api_base"`
		DeepgramSmartFmt *bool  `toml:"deepgram_smart_format"`
	} `toml:"engine"`

	Hotkey struct {
		Modifier *string `toml:"modifier"`
		Key      string  `toml:"key"`
	} `toml:"hotkey"`

	Feedback struct {
		Enabled     *bool  `toml:"enabled"`
		StartSound  string `toml:"start_sound"`
		FinishSound string `toml:"finish_sound"`
	} `toml:"feedback"`

	Ducking struct {
		Enabled *bool `toml:"enabled"`
	} `toml:"ducking"`

	Rules struct {
		Path           string `toml:"path"`
		IterationLimit int    `toml:"iteration_limit"`
	} `toml:"rules"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		ToFile *bool  `toml:"to_file"`
		File   string `toml:"file"`
	} `toml:"log"`
}

func applyFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %q: %w", path, err)
	}

	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("config file %q: unknown keys %s", path, strings.Join(keys, ", "))
	}

	setString(&cfg.Audio.Backend, fc.Audio.Backend)
	if fc.Audio.VolumeBoost != nil {
		cfg.Audio.VolumeBoost = *fc.Audio.VolumeBoost
	}
	if fc.Audio.SampleRate > 0 {
		cfg.Audio.SampleRate = fc.Audio.SampleRate
	}
	setString(&cfg.Audio.InputFormat, fc.Audio.InputFormat)
	setString(&cfg.Audio.InputDevice, fc.Audio.InputDevice)
	setString(&cfg.Audio.RecorderCommand, fc.Audio.FFMPEG)

	setString(&cfg.Engine.Backend, fc.Engine.Backend)
	setString(&cfg.Engine.ModelDir, expandTilde(fc.Engine.ModelDir))
	setString(&cfg.Engine.Model, fc.Engine.Model)
	setString(&cfg.Engine.Language, fc.Engine.Language)
	if fc.Engine.Threads > 0 {
		cfg.Engine.Threads = fc.Engine.Threads
	}
	if fc.Engine.UnloadDelaySecs != nil && *fc.Engine.UnloadDelaySecs >= 0 {
		cfg.Engine.UnloadDelay = secondsToDuration(*fc.Engine.UnloadDelaySecs)
	}
	setString(&cfg.Engine.Deepgram.APIKey, fc.Engine.DeepgramAPIKey)
	setString(&cfg.Engine.Deepgram.Model, fc.Engine.DeepgramModel)
	setString(&cfg.Engine.Deepgram.APIBaseURL, fc.Engine.DeepgramAPIBase)
	if fc.Engine.DeepgramSmartFmt != nil {
		cfg.Engine.Deepgram.SmartFormat = *fc.Engine.DeepgramSmartFmt
	}

	if fc.Hotkey.Modifier != nil {
		cfg.Hotkey.Modifier = strings.TrimSpace(*fc.Hotkey.Modifier)
	}
	setString(&cfg.Hotkey.Key, fc.Hotkey.Key)

	if fc.Feedback.Enabled != nil {
		cfg.Feedback.Enabled = *fc.Feedback.Enabled
	}
	setString(&cfg.Feedback.StartSound, expandTilde(fc.Feedback.StartSound))
	setString(&cfg.Feedback.FinishSound, expandTilde(fc.Feedback.FinishSound))

	if fc.Ducking.Enabled != nil {
		cfg.Ducking.Enabled = *fc.Ducking.Enabled
	}

	setString(&cfg.Rules.Path, expandTilde(fc.Rules.Path))
	if fc.Rules.IterationLimit > 0 {
		cfg.Rules.IterationLimit = fc.Rules.IterationLimit
	}

	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)
	if fc.Log.ToFile != nil {
		cfg.Log.ToFile = *fc.Log.ToFile
	}
	setString(&cfg.Log.File, expandTilde(fc.Log.File))

	return nil
}

func setString(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func secondsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
