package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"speedystt/internal/domain"
	"speedystt/internal/ports"
)

type fakeCapture struct {
	samples   []float32
	err       error
	panicWith any

	calls     atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (f *fakeCapture) RecordUntilStopped(ctx context.Context, stop *atomic.Bool) ([]float32, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxActive.Load()
		if n <= m || f.maxActive.CompareAndSwap(m, n) {
			break
		}
	}

	if f.panicWith != nil {
		panic(f.panicWith)
	}
	for !stop.Load() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]float32(nil), f.samples...), nil
}

type fakeEngine struct {
	mu           sync.Mutex
	text         string
	err          error
	received     []int
	closed       int
	onTranscribe func()
}

func (f *fakeEngine) Transcribe(_ context.Context, samples []float32) (string, error) {
	if f.onTranscribe != nil {
		f.onTranscribe()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, len(samples))
	return f.text, f.err
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeEngine) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeLoader struct {
	engine *fakeEngine
	err    error
	delay  time.Duration

	calls atomic.Int32
	mu    sync.Mutex
	specs []ports.EngineSpec
}

func (f *fakeLoader) Load(_ context.Context, spec ports.EngineSpec) (ports.Engine, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.specs = append(f.specs, spec)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.engine, nil
}

type fakeTray struct {
	mu     sync.Mutex
	states []domain.TrayState
	err    error
	quit   atomic.Bool
}

func (f *fakeTray) SetState(state domain.TrayState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return f.err
}

func (f *fakeTray) ShouldQuit() bool { return f.quit.Load() }

func (f *fakeTray) snapshot() []domain.TrayState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.TrayState, len(f.states))
	copy(out, f.states)
	return out
}

type fakeFeedback struct {
	mu     sync.Mutex
	played []string
	err    error
}

func (f *fakeFeedback) Play(sound domain.Sound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, sound.Name)
	return f.err
}

type fakeInjector struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeInjector) Inject(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeInjector) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeRules struct {
	transform string
	err       error
}

func (f *fakeRules) Apply(text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.transform != "" {
		return f.transform, nil
	}
	return text, nil
}

type fakeDucker struct {
	err      error
	ducked   atomic.Int32
	restored atomic.Int32
	closed   atomic.Int32
}

func (f *fakeDucker) Duck() (ports.DuckScope, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ducked.Add(1)
	return &fakeDuckScope{parent: f}, nil
}

type fakeDuckScope struct {
	parent *fakeDucker
	once   sync.Once
}

func (s *fakeDuckScope) Restore() error {
	s.once.Do(func() { s.parent.restored.Add(1) })
	return nil
}

func (s *fakeDuckScope) Close() error {
	_ = s.Restore()
	s.parent.closed.Add(1)
	return nil
}

type fakeHotkeys struct {
	id     string
	mu     sync.Mutex
	events []domain.HotkeyEvent
}

func (f *fakeHotkeys) ID() string { return f.id }

func (f *fakeHotkeys) Poll() (domain.HotkeyEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return domain.HotkeyEvent{}, false
	}
	event := f.events[0]
	f.events = f.events[1:]
	return event, true
}

func (f *fakeHotkeys) push(events ...domain.HotkeyEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

type fakeEventSink struct {
	mu sync.Mutex

	states      []stateEvent
	transcripts []transcriptEvent
	errors      []errEvent
}

type stateEvent struct {
	cycleID string
	state   domain.ControllerState
	reason  domain.CycleReason
}

type transcriptEvent struct {
	raw      string
	injected string
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) CycleStateChanged(cycleID string, state domain.ControllerState, reason domain.CycleReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{cycleID: cycleID, state: state, reason: reason})
}

func (f *fakeEventSink) TranscriptReady(_ string, raw string, injected string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, transcriptEvent{raw: raw, injected: injected})
}

func (f *fakeEventSink) CycleError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) hasError(code domain.ErrorCode) bool {
	for _, e := range f.snapshotErrors() {
		if e.code == code {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")
