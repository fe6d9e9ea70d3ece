package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"speedystt/internal/bootstrap"
	"speedystt/internal/config"
	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/tray"
)

const (
	eventState      = "speedystt:state"
	eventCycle      = "speedystt:cycle"
	eventTranscript = "speedystt:transcript"
	eventError      = "speedystt:error"
)

// App is the Wails application root. It is the tray and event sink the
// controller talks to, and forwards both to the window and the system tray.
type App struct {
	ctx context.Context

	cfg     config.Config
	log     *logging.Logger
	natives bootstrap.Natives
	tray    *tray.Tray

	services bootstrap.Services
	ready    bool
	bootErr  error

	cancel   context.CancelFunc
	loopDone chan struct{}
	stopOnce sync.Once

	emit func(ctx context.Context, name string, data ...interface{})
	quit func(ctx context.Context)
}

func NewApp(cfg config.Config, log *logging.Logger, natives bootstrap.Natives, tr *tray.Tray) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		cfg:     cfg,
		log:     log.Named("app"),
		natives: natives,
		tray:    tr,
		emit:    runtime.EventsEmit,
		quit:    runtime.Quit,
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a.cfg, a.log, bootstrap.Externals{Tray: a, Events: a}, a.natives)
	if err != nil {
		a.bootErr = err
		a.log.Error("startup failed", logging.Error(err))
		a.CycleError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = services
	a.ready = true

	if err := services.Hotkeys.Register(services.Binding, services.Registrar); err != nil {
		a.log.Warn("global hotkey unavailable, use the window buttons", logging.Error(err))
		a.CycleError(domain.ErrorCodeStartup, fmt.Sprintf("hotkey %s unavailable: %v", services.Binding, err))
	}
	if a.tray != nil {
		a.tray.Start()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.loopDone = make(chan struct{})
	go func() {
		if err := services.Loop.Run(loopCtx); err != nil {
			a.log.Error("event loop failed", logging.Error(err))
		}
		close(a.loopDone)
		if loopCtx.Err() == nil {
			a.quit(ctx)
		}
	}()
}

func (a *App) shutdown(_ context.Context) {
	a.stopOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
			<-a.loopDone
		}
		if a.ready {
			if err := a.services.Hotkeys.Close(); err != nil {
				a.log.Warn("failed to unregister hotkey", logging.Error(err))
			}
		}
		if a.tray != nil {
			a.tray.Close()
		}
	})
}

// StartPTT starts recording as if the hotkey went down.
func (a *App) StartPTT() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Hotkeys.Push(domain.HotkeyPressed)
	return nil
}

// StopPTT finishes recording as if the hotkey was released.
func (a *App) StopPTT() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Hotkeys.Push(domain.HotkeyReleased)
	return nil
}

// GetStatus returns the controller status.
func (a *App) GetStatus() domain.Status {
	if !a.ready {
		return domain.Status{State: domain.ControllerStateIdle}
	}
	return a.services.Controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	info := map[string]string{
		"engine":      a.cfg.Engine.Backend,
		"language":    a.cfg.Engine.Language,
		"hotkey":      a.services.Binding.String(),
		"capture":     a.cfg.Audio.Backend,
		"rulesFile":   a.cfg.Rules.Path,
		"ducking":     fmt.Sprint(a.cfg.Ducking.Enabled),
		"unloadDelay": a.cfg.Engine.UnloadDelay.String(),
	}
	if a.cfg.Engine.Backend == "deepgram" {
		info["model"] = a.cfg.Engine.Deepgram.Model
	} else {
		info["model"] = a.cfg.Engine.ModelPath()
	}
	return info
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if !a.ready {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SetState mirrors the recording indicator into the window and tray.
func (a *App) SetState(state domain.TrayState) error {
	a.send(eventState, map[string]string{"state": string(state)})
	if a.tray == nil {
		return nil
	}
	return a.tray.SetState(state)
}

// ShouldQuit reports whether Quit was picked from the tray menu.
func (a *App) ShouldQuit() bool {
	return a.tray != nil && a.tray.ShouldQuit()
}

// CycleStateChanged emits controller lifecycle updates to the frontend.
func (a *App) CycleStateChanged(cycleID string, state domain.ControllerState, reason domain.CycleReason) {
	a.send(eventCycle, map[string]string{
		"id":      cycleID,
		"state":   string(state),
		"reason":  string(reason),
		"message": cycleReasonMessage(reason),
	})
}

// TranscriptReady emits the transcript of a finished cycle.
func (a *App) TranscriptReady(cycleID string, raw string, injected string) {
	a.send(eventTranscript, map[string]string{
		"id":       cycleID,
		"raw":      raw,
		"injected": injected,
	})
}

// CycleError emits backend errors to the UI and raises a desktop
// notification for the ones that lose the dictation.
func (a *App) CycleError(code domain.ErrorCode, detail string) {
	message := errorMessage(code, detail)
	a.send(eventError, map[string]string{
		"code":    string(code),
		"message": message,
		"detail":  detail,
	})
	if a.tray != nil && notifies(code) {
		a.tray.Notify(tray.AppName, message)
	}
}

func (a *App) send(name string, payload map[string]string) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, name, payload)
}

func notifies(code domain.ErrorCode) bool {
	switch code {
	case domain.ErrorCodeStartup, domain.ErrorCodeModelLoad, domain.ErrorCodeCapture,
		domain.ErrorCodeTranscription, domain.ErrorCodeInjection:
		return true
	default:
		return false
	}
}

func cycleReasonMessage(reason domain.CycleReason) string {
	switch reason {
	case domain.CycleReasonRecordingStarted:
		return "Recording started"
	case domain.CycleReasonTranscribing:
		return "Recording stopped. Transcribing..."
	case domain.CycleReasonTextInjected:
		return "Text typed into the active window"
	case domain.CycleReasonInjectFailed:
		return "Transcript ready (typing failed)"
	case domain.CycleReasonNoTranscript:
		return "No speech detected"
	case domain.CycleReasonModelLoadFailed:
		return "Model failed to load"
	case domain.CycleReasonCaptureFailed:
		return "Recording failed"
	case domain.CycleReasonTranscriptionFailed:
		return "Transcription failed"
	case domain.CycleReasonDiscarded:
		return "Recording discarded"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeModelLoad:
		return "Model failed to load"
	case domain.ErrorCodeCapture:
		return "Microphone capture failed"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeInjection:
		return "Typing into the active window failed"
	case domain.ErrorCodeFeedback:
		return "Feedback sound failed"
	case domain.ErrorCodeDucking:
		return "Could not lower other audio"
	case domain.ErrorCodeRules:
		return "Rules processing failed"
	case domain.ErrorCodeTray:
		return "Tray update failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
