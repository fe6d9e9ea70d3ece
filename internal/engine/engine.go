// Package engine selects the transcription backend.
package engine

import (
	"errors"
	"fmt"

	"speedystt/internal/engine/deepgram"
	"speedystt/internal/engine/whisper"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

const (
	BackendWhisper  = "whisper"
	BackendDeepgram = "deepgram"
)

var ErrUnknownBackend = errors.New("unknown transcription backend")

type Config struct {
	Backend  string
	Deepgram deepgram.Config
}

func NewLoader(cfg Config, log *logging.Logger) (ports.EngineLoader, error) {
	switch cfg.Backend {
	case "", BackendWhisper:
		return whisper.NewLoader(log), nil
	case BackendDeepgram:
		return deepgram.NewLoader(cfg.Deepgram, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
