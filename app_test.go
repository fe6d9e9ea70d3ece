package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"speedystt/internal/bootstrap"
	"speedystt/internal/config"
	"speedystt/internal/domain"
	"speedystt/internal/hotkey"
	"speedystt/internal/logging"
)

type emitted struct {
	name    string
	payload map[string]string
}

type recorder struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recorder) emit(_ context.Context, name string, data ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, _ := data[0].(map[string]string)
	r.events = append(r.events, emitted{name: name, payload: payload})
}

func newTestApp(t *testing.T) (*App, *recorder) {
	t.Helper()
	rec := &recorder{}
	app := NewApp(config.Default(), logging.Nop(), bootstrap.Natives{}, nil)
	app.ctx = context.Background()
	app.emit = rec.emit
	app.quit = func(context.Context) {}
	return app, rec
}

func TestCycleReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.CycleReason]string{
		domain.CycleReasonRecordingStarted:    "Recording started",
		domain.CycleReasonTranscribing:        "Recording stopped. Transcribing...",
		domain.CycleReasonTextInjected:        "Text typed into the active window",
		domain.CycleReasonInjectFailed:        "Transcript ready (typing failed)",
		domain.CycleReasonNoTranscript:        "No speech detected",
		domain.CycleReasonModelLoadFailed:     "Model failed to load",
		domain.CycleReasonCaptureFailed:       "Recording failed",
		domain.CycleReasonTranscriptionFailed: "Transcription failed",
		domain.CycleReasonDiscarded:           "Recording discarded",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := cycleReasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := cycleReasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:       "Startup failed",
		domain.ErrorCodeModelLoad:     "Model failed to load",
		domain.ErrorCodeCapture:       "Microphone capture failed",
		domain.ErrorCodeTranscription: "Transcription error",
		domain.ErrorCodeInjection:     "Typing into the active window failed",
		domain.ErrorCodeDucking:       "Could not lower other audio",
		domain.ErrorCodeRules:         "Rules processing failed",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}
	if err := app.StartPTT(); err == nil {
		t.Fatalf("expected StartPTT to fail before startup")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
	if info := app.GetRuntimeInfo(); info["error"] != "boot" {
		t.Fatalf("expected boot error in runtime info, got %v", info)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.ControllerStateIdle || status.Recording {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestPTTButtonsFeedHotkeySource(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	source := hotkey.NewSource(bootstrap.HotkeyID, nil)
	app.services = bootstrap.Services{Hotkeys: source}
	app.ready = true

	if err := app.StartPTT(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := app.StopPTT(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	for _, want := range []domain.HotkeyEventKind{domain.HotkeyPressed, domain.HotkeyReleased} {
		event, ok := source.Poll()
		if !ok || event.Kind != want || event.HotkeyID != bootstrap.HotkeyID {
			t.Fatalf("expected %s event, got %+v (ok=%v)", want, event, ok)
		}
	}
}

func TestEventSinkEmitsToWindow(t *testing.T) {
	t.Parallel()

	app, rec := newTestApp(t)
	if err := app.SetState(domain.TrayStateRecording); err != nil {
		t.Fatalf("set state: %v", err)
	}
	app.CycleStateChanged("c1", domain.ControllerStateIdle, domain.CycleReasonTextInjected)
	app.TranscriptReady("c1", "hello world", "Hello world")
	app.CycleError(domain.ErrorCodeCapture, "device lost")

	if len(rec.events) != 4 {
		t.Fatalf("expected 4 events, got %+v", rec.events)
	}
	if rec.events[0].name != eventState || rec.events[0].payload["state"] != "recording" {
		t.Fatalf("unexpected state event: %+v", rec.events[0])
	}
	if rec.events[1].payload["message"] != "Text typed into the active window" || rec.events[1].payload["id"] != "c1" {
		t.Fatalf("unexpected cycle event: %+v", rec.events[1])
	}
	if rec.events[2].name != eventTranscript || rec.events[2].payload["injected"] != "Hello world" {
		t.Fatalf("unexpected transcript event: %+v", rec.events[2])
	}
	if rec.events[3].name != eventError || rec.events[3].payload["detail"] != "device lost" {
		t.Fatalf("unexpected error event: %+v", rec.events[3])
	}
	if app.ShouldQuit() {
		t.Fatalf("app without tray should never quit on its own")
	}
}

func TestStartupFailureIsReported(t *testing.T) {
	t.Parallel()

	app, rec := newTestApp(t)
	app.startup(context.Background())

	if app.bootErr == nil {
		t.Fatalf("expected startup to fail without native components")
	}
	if len(rec.events) != 1 || rec.events[0].payload["code"] != string(domain.ErrorCodeStartup) {
		t.Fatalf("expected a startup error event, got %+v", rec.events)
	}
	if err := app.StopPTT(); !errors.Is(err, app.bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
	app.shutdown(context.Background())
}

func TestNotifies(t *testing.T) {
	t.Parallel()

	if !notifies(domain.ErrorCodeTranscription) || notifies(domain.ErrorCodeDucking) || notifies(domain.ErrorCodeFeedback) {
		t.Fatalf("unexpected notification policy")
	}
}
