package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

var (
	ErrAlreadyRecording = errors.New("a recording session is already active")
	ErrNotRecording     = errors.New("no active recording session")
)

// Config controls the recording lifecycle.
type Config struct {
	Engine      ports.EngineSpec
	UnloadDelay time.Duration
	StartSound  domain.Sound
	FinishSound domain.Sound
}

// Dependencies are the collaborators driven by the controller. Ducker and
// Rules are optional.
type Dependencies struct {
	Capture  ports.AudioCapture
	Loader   ports.EngineLoader
	Tray     ports.Tray
	Feedback ports.FeedbackPlayer
	Injector ports.TextInjector
	Rules    ports.RulesEngine
	Ducker   ports.AudioDucker
	Events   ports.EventSink
}

// RecordingController owns the transcription engine and the press/release
// state machine. OnPress, OnRelease, Tick and Shutdown must be called from a
// single goroutine; Status may be called from anywhere.
type RecordingController struct {
	capture   ports.AudioCapture
	loader    ports.EngineLoader
	tray      ports.Tray
	feedback  ports.FeedbackPlayer
	ducker    ports.AudioDucker
	events    ports.EventSink
	finalizer transcriptFinalizer
	cfg       Config
	log       *logging.Logger
	now       func() time.Time

	mu          sync.Mutex
	state       domain.ControllerState
	engine      ports.Engine
	pendingLoad *task[ports.Engine]
	lastUse     time.Time

	cycleID   string
	stop      *atomic.Bool
	recording *task[[]float32]
	duck      *duckScope
}

func NewRecordingController(deps Dependencies, cfg Config, log *logging.Logger) *RecordingController {
	if log == nil {
		log = logging.Nop()
	}
	if deps.Events == nil {
		deps.Events = nopEventSink{}
	}
	return &RecordingController{
		capture:   deps.Capture,
		loader:    deps.Loader,
		tray:      deps.Tray,
		feedback:  deps.Feedback,
		ducker:    deps.Ducker,
		events:    deps.Events,
		finalizer: newTranscriptFinalizer(deps.Rules, deps.Injector, deps.Events),
		cfg:       cfg,
		log:       log.Named("controller"),
		now:       time.Now,
		state:     domain.ControllerStateIdle,
	}
}

// OnPress starts a recording session. It never blocks on capture or model
// loading.
func (c *RecordingController) OnPress(ctx context.Context) error {
	if c.currentState() != domain.ControllerStateIdle {
		return ErrAlreadyRecording
	}

	c.cycleID = uuid.NewString()
	log := c.log.WithCycle(c.cycleID)
	c.setState(domain.ControllerStateRecording)
	log.Info("hotkey pressed, starting recording")

	c.setTray(log, domain.TrayStateRecording)
	c.play(log, c.cfg.StartSound)

	c.mu.Lock()
	if c.engine == nil && c.pendingLoad == nil {
		c.pendingLoad = c.spawnLoad(ctx, log)
	}
	c.mu.Unlock()

	stop := &atomic.Bool{}
	c.stop = stop
	c.recording = spawn(func() ([]float32, error) {
		return c.capture.RecordUntilStopped(ctx, stop)
	})

	if c.ducker != nil {
		c.duck = startDuckScope(c.ducker, c.events, log.Named("ducking"))
	}

	c.events.CycleStateChanged(c.cycleID, domain.ControllerStateRecording, domain.CycleReasonRecordingStarted)
	return nil
}

// OnRelease stops capture, waits for the engine, transcribes and injects.
// Cycle failures are reported through the result reason, not the error.
func (c *RecordingController) OnRelease(ctx context.Context) (domain.CycleResult, error) {
	if c.currentState() != domain.ControllerStateRecording {
		return domain.CycleResult{}, ErrNotRecording
	}

	result := domain.CycleResult{ID: c.cycleID}
	log := c.log.WithCycle(c.cycleID)
	c.setState(domain.ControllerStateFinishing)
	log.Info("hotkey released, stopping recording")

	c.stop.Store(true)
	recording := c.recording
	c.recording = nil
	defer c.endCycle(log, &result)

	engine, err := c.awaitEngine(ctx, log)
	if err != nil {
		log.Error("transcription engine unavailable", logging.Error(err))
		c.events.CycleError(domain.ErrorCodeModelLoad, err.Error())
		c.setTray(log, domain.TrayStateIdle)
		if _, captureErr := recording.join(); captureErr != nil {
			log.Warn("discarded recording also failed", logging.Error(captureErr))
		}
		c.duck.end()
		result.Reason = domain.CycleReasonModelLoadFailed
		return result, nil
	}

	samples, err := recording.join()
	c.duck.end()
	if err != nil {
		log.Error("recording failed", logging.Error(err))
		c.events.CycleError(domain.ErrorCodeCapture, err.Error())
		c.setTray(log, domain.TrayStateIdle)
		c.stampLastUse()
		result.Reason = domain.CycleReasonCaptureFailed
		return result, nil
	}
	result.Samples = len(samples)

	c.play(log, c.cfg.FinishSound)
	c.setTray(log, domain.TrayStateIdle)
	c.events.CycleStateChanged(result.ID, domain.ControllerStateFinishing, domain.CycleReasonTranscribing)
	log.Info("recording stopped, transcribing", logging.Int("samples", len(samples)))

	text, err := engine.Transcribe(ctx, samples)
	switch {
	case err != nil:
		log.Error("transcription failed", logging.Error(err))
		c.events.CycleError(domain.ErrorCodeTranscription, err.Error())
		result.Reason = domain.CycleReasonTranscriptionFailed
	case text == "":
		log.Info("transcription complete (empty result)")
		result.Reason = domain.CycleReasonNoTranscript
	default:
		log.Debug("transcription complete", logging.String("text", text))
		result.RawText = text
		result.InjectedText, result.Reason = c.finalizer.Finalize(ctx, log, text)
		if result.Reason == domain.CycleReasonTextInjected {
			c.events.TranscriptReady(result.ID, result.RawText, result.InjectedText)
		}
		log.Info("transcription complete")
	}

	c.stampLastUse()
	return result, nil
}

// Tick evicts the engine once it has been idle for the unload delay.
func (c *RecordingController) Tick(now time.Time) {
	c.mu.Lock()
	if c.state != domain.ControllerStateIdle || c.engine == nil || c.lastUse.IsZero() {
		c.mu.Unlock()
		return
	}
	if now.Sub(c.lastUse) < c.cfg.UnloadDelay {
		c.mu.Unlock()
		return
	}
	engine := c.engine
	idle := now.Sub(c.lastUse)
	c.engine = nil
	c.lastUse = time.Time{}
	c.mu.Unlock()

	c.log.Info("unloading transcription engine after cooldown", logging.Duration("idle", idle))
	if err := engine.Close(); err != nil {
		c.log.Warn("failed to release transcription engine", logging.Error(err))
	}
}

// Shutdown discards an open recording without transcribing and releases the
// engine, waiting for any in-flight load.
func (c *RecordingController) Shutdown() {
	if c.currentState() == domain.ControllerStateRecording {
		log := c.log.WithCycle(c.cycleID)
		log.Info("discarding recording on shutdown")
		c.stop.Store(true)
		if _, err := c.recording.join(); err != nil {
			log.Warn("recording failed during shutdown", logging.Error(err))
		}
		c.recording = nil
		c.duck.end()
		c.duck = nil
		c.setTray(log, domain.TrayStateIdle)
		c.events.CycleStateChanged(c.cycleID, domain.ControllerStateIdle, domain.CycleReasonDiscarded)
		c.setState(domain.ControllerStateIdle)
	}

	c.mu.Lock()
	pending := c.pendingLoad
	c.pendingLoad = nil
	engine := c.engine
	c.engine = nil
	c.lastUse = time.Time{}
	c.mu.Unlock()

	if pending != nil {
		loaded, err := pending.join()
		switch {
		case err != nil:
			c.log.Warn("pending engine load failed during shutdown", logging.Error(err))
		case loaded != nil:
			if err := loaded.Close(); err != nil {
				c.log.Warn("failed to release transcription engine", logging.Error(err))
			}
		}
	}
	if engine != nil {
		if err := engine.Close(); err != nil {
			c.log.Warn("failed to release transcription engine", logging.Error(err))
		}
	}
}

// Status returns a snapshot of the controller.
func (c *RecordingController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Status{
		State:        c.state,
		Recording:    c.state != domain.ControllerStateIdle,
		EngineLoaded: c.engine != nil,
		LoadPending:  c.pendingLoad != nil,
		LastUse:      c.lastUse,
	}
}

func (c *RecordingController) spawnLoad(ctx context.Context, log *logging.Logger) *task[ports.Engine] {
	spec := c.cfg.Engine
	loader := c.loader
	log.Info("loading transcription engine", logging.String("model", spec.ModelPath))
	return spawn(func() (ports.Engine, error) {
		return loader.Load(ctx, spec)
	})
}

// awaitEngine returns the loaded engine, joining the pending load if needed.
// A failed load leaves the engine absent and does not stamp last use.
func (c *RecordingController) awaitEngine(ctx context.Context, log *logging.Logger) (ports.Engine, error) {
	c.mu.Lock()
	if c.engine != nil {
		engine := c.engine
		c.mu.Unlock()
		return engine, nil
	}
	pending := c.pendingLoad
	if pending == nil {
		pending = c.spawnLoad(ctx, log)
		c.pendingLoad = pending
	}
	c.mu.Unlock()

	engine, err := pending.join()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingLoad = nil
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, errors.New("engine loader returned no engine")
	}
	c.engine = engine
	c.lastUse = time.Time{}
	log.Info("transcription engine loaded")
	return engine, nil
}

func (c *RecordingController) endCycle(log *logging.Logger, result *domain.CycleResult) {
	c.duck.end()
	c.duck = nil
	c.stop = nil
	c.setState(domain.ControllerStateIdle)
	c.events.CycleStateChanged(result.ID, domain.ControllerStateIdle, result.Reason)
	log.Debug("cycle finished", logging.String("reason", string(result.Reason)))
}

func (c *RecordingController) stampLastUse() {
	c.mu.Lock()
	c.lastUse = c.now()
	c.mu.Unlock()
}

func (c *RecordingController) setTray(log *logging.Logger, state domain.TrayState) {
	if c.tray == nil {
		return
	}
	if err := c.tray.SetState(state); err != nil {
		log.Warn("failed to update tray state", logging.String("state", string(state)), logging.Error(err))
	}
}

func (c *RecordingController) play(log *logging.Logger, sound domain.Sound) {
	if c.feedback == nil {
		return
	}
	if err := c.feedback.Play(sound); err != nil {
		log.Warn("failed to play feedback sound", logging.String("sound", sound.Name), logging.Error(err))
	}
}

func (c *RecordingController) currentState() domain.ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *RecordingController) setState(state domain.ControllerState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

type nopEventSink struct{}

func (nopEventSink) CycleStateChanged(string, domain.ControllerState, domain.CycleReason) {}
func (nopEventSink) TranscriptReady(string, string, string)                               {}
func (nopEventSink) CycleError(domain.ErrorCode, string)                                  {}
