package bootstrap

import (
	"errors"
	"fmt"
	"os"

	"speedystt/internal/audio"
	"speedystt/internal/config"
	"speedystt/internal/domain"
	"speedystt/internal/ducking"
	"speedystt/internal/feedback"
	"speedystt/internal/hotkey"
	"speedystt/internal/inject"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
	"speedystt/internal/rules"
	"speedystt/internal/usecase"
)

const (
	// HotkeyID identifies the push-to-talk hotkey in the event stream.
	HotkeyID = "push-to-talk"

	startToneHz  = 880
	finishToneHz = 660
	toneMs       = 120
)

var ErrUnknownCaptureBackend = errors.New("unknown audio capture backend")

// Natives supplies the components that link native libraries.
type Natives struct {
	PortAudioCapture func(cfg audio.Config, log *logging.Logger) ports.AudioCapture
	EngineLoader     func(cfg config.Config, log *logging.Logger) (ports.EngineLoader, error)
	Playback         feedback.Output
	RegisterHotkey   hotkey.Registrar
}

// Externals are collaborators owned by the window runtime.
type Externals struct {
	Tray   ports.Tray
	Events ports.EventSink
}

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.RecordingController
	Loop       *usecase.EventLoop
	Hotkeys    *hotkey.Source
	Binding    hotkey.Binding
	Registrar  hotkey.Registrar
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(cfg config.Config, log *logging.Logger, ext Externals, natives Natives) (Services, error) {
	if log == nil {
		log = logging.Nop()
	}

	binding, err := hotkey.Parse(cfg.Hotkey.Modifier, cfg.Hotkey.Key)
	if err != nil {
		return Services{}, fmt.Errorf("hotkey: %w", err)
	}

	rulesSet, err := rules.Load(cfg.Rules.Path, cfg.Rules.IterationLimit, log)
	if err != nil {
		return Services{}, err
	}

	capture, err := buildCapture(cfg.Audio, log, natives)
	if err != nil {
		return Services{}, err
	}

	if natives.EngineLoader == nil {
		return Services{}, errors.New("no transcription engine available")
	}
	loader, err := natives.EngineLoader(cfg, log)
	if err != nil {
		return Services{}, err
	}

	injectCfg := inject.DefaultConfig()
	injectCfg.SettleDelay = cfg.Session.InjectDelay

	deps := usecase.Dependencies{
		Capture:  capture,
		Loader:   loader,
		Tray:     ext.Tray,
		Feedback: feedback.NewPlayer(cfg.Feedback.Enabled, natives.Playback, log),
		Injector: inject.New(injectCfg, log),
		Rules:    rulesSet,
		Events:   ext.Events,
	}
	if cfg.Ducking.Enabled {
		deps.Ducker = ducking.New(ducking.DefaultConfig(), log)
	}

	controller := usecase.NewRecordingController(deps, usecase.Config{
		Engine: ports.EngineSpec{
			ModelPath: cfg.Engine.ModelPath(),
			Threads:   cfg.Engine.Threads,
			Language:  cfg.Engine.Language,
		},
		UnloadDelay: cfg.Engine.UnloadDelay,
		StartSound:  cue("start", cfg.Feedback.StartSound, startToneHz),
		FinishSound: cue("finish", cfg.Feedback.FinishSound, finishToneHz),
	}, log)

	hotkeys := hotkey.NewSource(HotkeyID, log)
	loop := usecase.NewEventLoop(controller, hotkeys, ext.Tray, cfg.Session.PollInterval, log)

	log.Info("runtime assembled",
		logging.String("capture", cfg.Audio.Backend),
		logging.String("engine", cfg.Engine.Backend),
		logging.String("hotkey", binding.String()),
		logging.Bool("ducking", cfg.Ducking.Enabled),
		logging.Int("rules", rulesSet.Len()),
	)

	return Services{
		Controller: controller,
		Loop:       loop,
		Hotkeys:    hotkeys,
		Binding:    binding,
		Registrar:  natives.RegisterHotkey,
		Config:     cfg,
	}, nil
}

func buildCapture(cfg config.AudioConfig, log *logging.Logger, natives Natives) (ports.AudioCapture, error) {
	base := audio.Config{
		SampleRate:  cfg.SampleRate,
		Channels:    cfg.Channels,
		VolumeBoost: cfg.VolumeBoost,
	}
	switch cfg.Backend {
	case "", "portaudio":
		if natives.PortAudioCapture == nil {
			return nil, fmt.Errorf("%w: portaudio is not available in this build", ErrUnknownCaptureBackend)
		}
		return natives.PortAudioCapture(base, log), nil
	case "ffmpeg":
		return audio.NewFFmpegCapture(audio.FFmpegConfig{
			Config:      base,
			Command:     cfg.RecorderCommand,
			InputFormat: cfg.InputFormat,
			InputDevice: cfg.InputDevice,
		}, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCaptureBackend, cfg.Backend)
	}
}

// cue falls back to a tone when the sound file is missing.
func cue(name, path string, hz float64) domain.Sound {
	sound := domain.Sound{Name: name, Frequency: hz, DurationMs: toneMs}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			sound.Path = path
		}
	}
	return sound
}
