// Package platform provides the natively linked runtime pieces: PortAudio,
// the local whisper model and OS hotkeys.
package platform

import (
	"speedystt/internal/audio"
	"speedystt/internal/bootstrap"
	"speedystt/internal/config"
	"speedystt/internal/engine"
	"speedystt/internal/engine/deepgram"
	"speedystt/internal/hotkey/native"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
	"speedystt/internal/soundcard"
)

func Natives() bootstrap.Natives {
	return bootstrap.Natives{
		PortAudioCapture: func(cfg audio.Config, log *logging.Logger) ports.AudioCapture {
			return soundcard.NewCapture(cfg, log)
		},
		EngineLoader:   engineLoader,
		Playback:       soundcard.Play,
		RegisterHotkey: native.Register,
	}
}

func engineLoader(cfg config.Config, log *logging.Logger) (ports.EngineLoader, error) {
	dg := cfg.Engine.Deepgram
	return engine.NewLoader(engine.Config{
		Backend: cfg.Engine.Backend,
		Deepgram: deepgram.Config{
			APIKey:      dg.APIKey,
			APIBaseURL:  dg.APIBaseURL,
			Model:       dg.Model,
			Language:    cfg.Engine.Language,
			SmartFormat: dg.SmartFormat,
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
		},
	}, log)
}
