// Package whisper runs a local whisper.cpp model.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

// Loader loads ggml models from disk.
type Loader struct {
	log *logging.Logger
}

func NewLoader(log *logging.Logger) *Loader {
	if log == nil {
		log = logging.Nop()
	}
	return &Loader{log: log.Named("whisper")}
}

func (l *Loader) Load(_ context.Context, spec ports.EngineSpec) (ports.Engine, error) {
	if _, err := os.Stat(spec.ModelPath); err != nil {
		return nil, fmt.Errorf("whisper model %q: %w", spec.ModelPath, err)
	}

	model, err := whisper.New(spec.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", spec.ModelPath, err)
	}
	l.log.Info("whisper model loaded",
		logging.String("model", spec.ModelPath),
		logging.Int("threads", spec.Threads),
		logging.String("language", spec.Language),
	)
	return &Engine{model: model, threads: spec.Threads, language: spec.Language, log: l.log}, nil
}

// Engine transcribes 16 kHz mono samples with greedy decoding.
type Engine struct {
	mu       sync.Mutex
	model    whisper.Model
	threads  int
	language string
	log      *logging.Logger
}

func (e *Engine) Transcribe(_ context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return "", errors.New("whisper model is closed")
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}
	if e.threads > 0 {
		wctx.SetThreads(uint(e.threads))
	}
	if e.language != "" {
		if err := wctx.SetLanguage(e.language); err != nil {
			return "", fmt.Errorf("set whisper language %q: %w", e.language, err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper inference failed: %w", err)
	}

	var text strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read whisper segment: %w", err)
		}
		text.WriteString(segment.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Close()
	e.model = nil
	return err
}
