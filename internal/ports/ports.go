package ports

import (
	"context"
	"sync/atomic"

	"speedystt/internal/domain"
)

// AudioCapture records microphone samples until the stop flag flips.
type AudioCapture interface {
	// RecordUntilStopped returns boosted float samples once stop is observed
	// true. Implementations poll stop and must not busy-spin.
	RecordUntilStopped(ctx context.Context, stop *atomic.Bool) ([]float32, error)
}

// EngineSpec describes which model to load and how to run it.
type EngineSpec struct {
	ModelPath string
	Threads   int
	Language  string
}

// Engine is a loaded speech-to-text model.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
	Close() error
}

// EngineLoader loads an Engine. Load may be slow and is safe to call off the
// event loop goroutine.
type EngineLoader interface {
	Load(ctx context.Context, spec EngineSpec) (Engine, error)
}

// Tray shows the recording indicator and reports quit requests.
type Tray interface {
	SetState(state domain.TrayState) error
	ShouldQuit() bool
}

// HotkeySource delivers hotkey events without blocking.
type HotkeySource interface {
	ID() string
	Poll() (domain.HotkeyEvent, bool)
}

// FeedbackPlayer plays start/finish sounds.
type FeedbackPlayer interface {
	Play(sound domain.Sound) error
}

// TextInjector types text into the active window.
type TextInjector interface {
	Inject(ctx context.Context, text string) error
}

// RulesEngine transforms transcripts using deterministic rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// DuckScope is an engaged ducking interval. Restore fades sessions back in;
// Close restores if needed and releases platform resources.
type DuckScope interface {
	Restore() error
	Close() error
}

// AudioDucker fades other applications' audio out.
type AudioDucker interface {
	Duck() (DuckScope, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	CycleStateChanged(cycleID string, state domain.ControllerState, reason domain.CycleReason)
	TranscriptReady(cycleID string, raw string, injected string)
	CycleError(code domain.ErrorCode, detail string)
}
