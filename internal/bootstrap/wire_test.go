package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"speedystt/internal/audio"
	"speedystt/internal/config"
	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

func TestBuildSuccess(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Ducking.Enabled = false

	var captureCfg audio.Config
	natives := fakeNatives()
	natives.PortAudioCapture = func(c audio.Config, _ *logging.Logger) ports.AudioCapture {
		captureCfg = c
		return nopCapture{}
	}

	services, err := Build(cfg, logging.Nop(), Externals{Events: noopEventSink{}}, natives)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Controller == nil || services.Loop == nil || services.Hotkeys == nil {
		t.Fatalf("expected controller, loop and hotkeys: %+v", services)
	}
	if services.Hotkeys.ID() != HotkeyID {
		t.Fatalf("unexpected hotkey id %q", services.Hotkeys.ID())
	}
	if services.Binding.String() != "CTRL+SPACE" {
		t.Fatalf("unexpected binding %s", services.Binding)
	}
	if captureCfg.SampleRate != 16000 || captureCfg.Channels != 1 {
		t.Fatalf("unexpected capture config: %+v", captureCfg)
	}
	if status := services.Controller.Status(); status.State != domain.ControllerStateIdle || status.EngineLoaded {
		t.Fatalf("unexpected initial status: %+v", status)
	}
}

func TestBuildSelectsFFmpegCapture(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Audio.Backend = "ffmpeg"
	natives := fakeNatives()
	natives.PortAudioCapture = nil

	if _, err := Build(cfg, nil, Externals{}, natives); err != nil {
		t.Fatalf("build failed: %v", err)
	}
}

func TestBuildFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	badRules := filepath.Join(dir, "bad.rules")
	if err := os.WriteFile(badRules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	loaderErr := errors.New("no such backend")
	cases := map[string]func(*config.Config, *Natives){
		"invalid rules":   func(c *config.Config, _ *Natives) { c.Rules.Path = badRules },
		"invalid hotkey":  func(c *config.Config, _ *Natives) { c.Hotkey.Key = "F42" },
		"unknown capture": func(c *config.Config, _ *Natives) { c.Audio.Backend = "alsa" },
		"no portaudio":    func(_ *config.Config, n *Natives) { n.PortAudioCapture = nil },
		"no engine":       func(_ *config.Config, n *Natives) { n.EngineLoader = nil },
		"engine error": func(_ *config.Config, n *Natives) {
			n.EngineLoader = func(config.Config, *logging.Logger) (ports.EngineLoader, error) { return nil, loaderErr }
		},
	}
	for name, mutate := range cases {
		name, mutate := name, mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			natives := fakeNatives()
			mutate(&cfg, &natives)
			if _, err := Build(cfg, nil, Externals{}, natives); err == nil {
				t.Fatalf("expected build error")
			}
		})
	}
}

func TestCueFallsBackToTone(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wav := filepath.Join(dir, "start.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if got := cue("start", wav, 880); got.Path != wav {
		t.Fatalf("expected existing file to be used: %+v", got)
	}
	got := cue("finish", filepath.Join(dir, "missing.wav"), 660)
	if got.Path != "" || got.Frequency != 660 || got.DurationMs != toneMs {
		t.Fatalf("expected tone fallback: %+v", got)
	}
}

func fakeNatives() Natives {
	return Natives{
		PortAudioCapture: func(audio.Config, *logging.Logger) ports.AudioCapture { return nopCapture{} },
		EngineLoader: func(config.Config, *logging.Logger) (ports.EngineLoader, error) {
			return nopLoader{}, nil
		},
		Playback: func([]float32, int, int) error { return nil },
	}
}

type nopCapture struct{}

func (nopCapture) RecordUntilStopped(context.Context, *atomic.Bool) ([]float32, error) {
	return nil, nil
}

type nopLoader struct{}

func (nopLoader) Load(context.Context, ports.EngineSpec) (ports.Engine, error) {
	return nil, errors.New("not loaded in tests")
}

type noopEventSink struct{}

func (noopEventSink) CycleStateChanged(string, domain.ControllerState, domain.CycleReason) {}
func (noopEventSink) TranscriptReady(string, string, string)                               {}
func (noopEventSink) CycleError(domain.ErrorCode, string)                                  {}
