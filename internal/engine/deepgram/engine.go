package deepgram

import (
	"context"
	"errors"
	"strings"

	"speedystt/internal/audio"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

const (
	defaultBaseURL = "https://api.deepgram.com/v1"
	defaultModel   = "nova-2"

	// 100ms of 16 kHz mono PCM16.
	chunkBytes = 3200
)

var ErrMissingAPIKey = errors.New("DEEPGRAM_API_KEY is not configured")

// Config controls the Deepgram listen endpoint.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	SampleRate  int
	Channels    int
}

// Loader implements ports.EngineLoader. Loading only validates
// credentials; there is no local model.
type Loader struct {
	cfg Config
	log *logging.Logger
}

func NewLoader(cfg Config, log *logging.Logger) *Loader {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{cfg: cfg, log: log.Named("deepgram")}
}

// Load ignores the model path; a requested language overrides the configured
// one when set.
func (l *Loader) Load(_ context.Context, spec ports.EngineSpec) (ports.Engine, error) {
	if strings.TrimSpace(l.cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := l.cfg
	if spec.Language != "" {
		cfg.Language = spec.Language
	}
	return &Engine{cfg: cfg, log: l.log}, nil
}

// Engine transcribes a finished recording over one websocket request.
type Engine struct {
	cfg Config
	log *logging.Logger
}

func (e *Engine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	s, err := dialStream(ctx, e.cfg, streamFormat{SampleRate: e.cfg.SampleRate, Channels: e.cfg.Channels})
	if err != nil {
		return "", err
	}
	defer s.Close()

	sendErr := make(chan error, 1)
	go func() {
		defer s.CloseSend()
		pcm := audio.Float32ToPCM16(samples)
		for start := 0; start < len(pcm); start += chunkBytes {
			end := min(start+chunkBytes, len(pcm))
			if err := s.Send(pcm[start:end]); err != nil {
				sendErr <- err
				return
			}
		}
		sendErr <- nil
	}()

	var agg transcriptAggregator
	for event := range s.Events() {
		agg.Add(event)
	}

	streamErr := s.Wait()
	if err := errors.Join(<-sendErr, streamErr); err != nil {
		if agg.Raw() != "" {
			e.log.Warn("transcription stream ended with error, discarding partial result", logging.Error(err))
		}
		return "", err
	}
	return agg.Raw(), nil
}

func (e *Engine) Close() error { return nil }
