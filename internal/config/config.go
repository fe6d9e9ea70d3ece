package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration.
type Config struct {
	Audio    AudioConfig
	Engine   EngineConfig
	Hotkey   HotkeyConfig
	Feedback FeedbackConfig
	Ducking  DuckingConfig
	Rules    RulesConfig
	Log      LogConfig
	Session  SessionConfig
}

type AudioConfig struct {
	Backend         string
	VolumeBoost     float32
	SampleRate      int
	Channels        int
	RecorderCommand string
	InputFormat     string
	InputDevice     string
}

type EngineConfig struct {
	Backend     string
	ModelDir    string
	Model       string
	Language    string
	Threads     int
	UnloadDelay time.Duration
	Deepgram    DeepgramConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
}

type HotkeyConfig struct {
	Modifier string
	Key      string
}

type FeedbackConfig struct {
	Enabled     bool
	StartSound  string
	FinishSound string
}

type DuckingConfig struct {
	Enabled bool
}

type RulesConfig struct {
	Path           string
	IterationLimit int
}

type LogConfig struct {
	Level  string
	Format string
	ToFile bool
	File   string
}

type SessionConfig struct {
	PollInterval time.Duration
	InjectDelay  time.Duration
}

// ModelPath resolves the configured model against the model directory.
func (c EngineConfig) ModelPath() string {
	if filepath.IsAbs(c.Model) {
		return c.Model
	}
	return filepath.Join(c.ModelDir, c.Model)
}

// LogFile returns the destination file, or "" when logging to stdout.
func (c LogConfig) LogFile() string {
	if !c.ToFile {
		return ""
	}
	return c.File
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			Backend:         "portaudio",
			VolumeBoost:     1.0,
			SampleRate:      16000,
			Channels:        1,
			RecorderCommand: "ffmpeg",
			InputDevice:     "default",
		},
		Engine: EngineConfig{
			Backend:     "whisper",
			ModelDir:    filepath.Join(".", "assets", "models"),
			Model:       "ggml-base.en.bin",
			Language:    "en",
			Threads:     4,
			UnloadDelay: 300 * time.Second,
			Deepgram: DeepgramConfig{
				APIBaseURL:  "https://api.deepgram.com/v1",
				Model:       "nova-2",
				SmartFormat: true,
			},
		},
		Hotkey: HotkeyConfig{Modifier: "CTRL", Key: "SPACE"},
		Feedback: FeedbackConfig{
			Enabled:     true,
			StartSound:  filepath.Join(".", "assets", "sounds", "start.wav"),
			FinishSound: filepath.Join(".", "assets", "sounds", "finish.wav"),
		},
		Ducking: DuckingConfig{Enabled: true},
		Rules:   RulesConfig{IterationLimit: 30},
		Log:     LogConfig{Level: "info", Format: "console", File: "speedy-stt.log"},
		Session: SessionConfig{
			PollInterval: 10 * time.Millisecond,
			InjectDelay:  100 * time.Millisecond,
		},
	}
}

// Load resolves configuration from defaults, the optional TOML file and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Default()

	path, explicit := filePath()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the core cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Audio.VolumeBoost <= 0 {
		errs = append(errs, fmt.Errorf("VOLUME_BOOST must be positive, got %v", c.Audio.VolumeBoost))
	}
	if c.Engine.Threads <= 0 {
		errs = append(errs, fmt.Errorf("WHISPER_THREADS must be positive, got %d", c.Engine.Threads))
	}
	if strings.TrimSpace(c.Engine.Model) == "" && c.Engine.Backend == "whisper" {
		errs = append(errs, errors.New("WHISPER_MODEL is required"))
	}
	if strings.TrimSpace(c.Hotkey.Key) == "" {
		errs = append(errs, errors.New("HOTKEY_KEY is required"))
	}
	if c.Engine.UnloadDelay < 0 {
		errs = append(errs, errors.New("MODEL_UNLOAD_DELAY_SECS must not be negative"))
	}
	return errors.Join(errs...)
}

func filePath() (string, bool) {
	if explicit := strings.TrimSpace(os.Getenv("SPEEDYSTT_CONFIG")); explicit != "" {
		return explicit, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".config", "speedystt", "config.toml"), false
}

func applyEnv(cfg *Config) {
	cfg.Audio.Backend = envOrDefault("SPEEDYSTT_AUDIO_BACKEND", cfg.Audio.Backend)
	cfg.Audio.VolumeBoost = envOrDefaultFloat32("VOLUME_BOOST", cfg.Audio.VolumeBoost)
	cfg.Audio.SampleRate = envOrDefaultInt("SPEEDYSTT_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("SPEEDYSTT_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.RecorderCommand = envOrDefault("SPEEDYSTT_FFMPEG_COMMAND", cfg.Audio.RecorderCommand)
	cfg.Audio.InputFormat = envOrDefault("SPEEDYSTT_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = envOrDefault("SPEEDYSTT_AUDIO_INPUT_DEVICE", cfg.Audio.InputDevice)

	cfg.Engine.Backend = envOrDefault("SPEEDYSTT_ENGINE", cfg.Engine.Backend)
	cfg.Engine.ModelDir = envOrDefault("SPEEDYSTT_MODEL_DIR", cfg.Engine.ModelDir)
	cfg.Engine.Model = envOrDefault("WHISPER_MODEL", cfg.Engine.Model)
	cfg.Engine.Language = envOrDefault("WHISPER_LANGUAGE", cfg.Engine.Language)
	cfg.Engine.Threads = envOrDefaultInt("WHISPER_THREADS", cfg.Engine.Threads)
	if secs := envOrDefaultInt("MODEL_UNLOAD_DELAY_SECS", -1); secs >= 0 {
		cfg.Engine.UnloadDelay = time.Duration(secs) * time.Second
	}
	cfg.Engine.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Engine.Deepgram.APIKey)
	cfg.Engine.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Engine.Deepgram.APIBaseURL)
	cfg.Engine.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Engine.Deepgram.Model)
	cfg.Engine.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Engine.Deepgram.SmartFormat)

	cfg.Hotkey.Modifier = envOrDefault("HOTKEY_MODIFIER", cfg.Hotkey.Modifier)
	cfg.Hotkey.Key = envOrDefault("HOTKEY_KEY", cfg.Hotkey.Key)

	cfg.Feedback.Enabled = envOrDefaultBool("ENABLE_SOUND_FEEDBACK", cfg.Feedback.Enabled)
	cfg.Feedback.StartSound = envOrDefault("SPEEDYSTT_START_SOUND", cfg.Feedback.StartSound)
	cfg.Feedback.FinishSound = envOrDefault("SPEEDYSTT_FINISH_SOUND", cfg.Feedback.FinishSound)

	cfg.Ducking.Enabled = envOrDefaultBool("ENABLE_AUDIO_DUCKING", cfg.Ducking.Enabled)

	cfg.Rules.Path = envOrDefault("SPEEDYSTT_RULES_FILE", cfg.Rules.Path)
	cfg.Rules.IterationLimit = envOrDefaultInt("SPEEDYSTT_RULE_ITERATION_LIMIT", cfg.Rules.IterationLimit)

	cfg.Log.Level = envOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("SPEEDYSTT_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.ToFile = envOrDefaultBool("LOG_TO_FILE", cfg.Log.ToFile)
	cfg.Log.File = envOrDefault("SPEEDYSTT_LOG_FILE", cfg.Log.File)

	if ms := envOrDefaultInt("SPEEDYSTT_INJECT_DELAY_MS", -1); ms >= 0 {
		cfg.Session.InjectDelay = time.Duration(ms) * time.Millisecond
	}
}

func normalize(cfg *Config) {
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Rules.IterationLimit <= 0 {
		cfg.Rules.IterationLimit = 30
	}
	if cfg.Session.PollInterval <= 0 {
		cfg.Session.PollInterval = 10 * time.Millisecond
	}
	cfg.Audio.Backend = strings.ToLower(cfg.Audio.Backend)
	cfg.Engine.Backend = strings.ToLower(cfg.Engine.Backend)
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat32(key string, fallback float32) float32 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fallback
	}
	return float32(parsed)
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
