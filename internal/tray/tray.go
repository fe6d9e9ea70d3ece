// Package tray shows the recording indicator in the system tray.
package tray

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
)

// AppName is the title used for the icon and notifications.
const AppName = "Speedy STT"

// Backend is the subset of a tray library in use.
type Backend interface {
	// Start shows the icon and calls onReady once menus can be changed.
	Start(onReady func())
	SetTooltip(text string)
	QuitItem() <-chan struct{}
	Stop()
}

// Tray implements ports.Tray on top of the system tray.
type Tray struct {
	backend Backend
	notify  func(title, message string) error
	log     *logging.Logger

	quit    atomic.Bool
	ready   chan struct{}
	once    sync.Once
	stopped sync.Once
	done    chan struct{}

	mu    sync.Mutex
	state domain.TrayState
}

func New(b Backend, log *logging.Logger) *Tray {
	if log == nil {
		log = logging.Nop()
	}
	return &Tray{
		backend: b,
		notify:  desktopNotify,
		log:     log.Named("tray"),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		state:   domain.TrayStateIdle,
	}
}

func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Start shows the tray icon. Calling it again is a no-op.
func (t *Tray) Start() {
	t.once.Do(func() {
		t.backend.Start(func() {
			close(t.ready)
			t.apply(t.currentState())
			go t.watchQuit(t.backend.QuitItem())
		})
	})
}

func (t *Tray) watchQuit(clicked <-chan struct{}) {
	if clicked == nil {
		return
	}
	select {
	case <-clicked:
		t.log.Info("quit selected from tray")
		t.RequestQuit()
	case <-t.done:
	}
}

func (t *Tray) SetState(state domain.TrayState) error {
	switch state {
	case domain.TrayStateIdle, domain.TrayStateRecording:
	default:
		return errors.New("unknown tray state: " + string(state))
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	select {
	case <-t.ready:
		t.apply(state)
	default:
	}
	return nil
}

func (t *Tray) currentState() domain.TrayState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tray) apply(state domain.TrayState) {
	t.backend.SetTooltip(Tooltip(state))
}

// Tooltip is the hover text shown for a state.
func Tooltip(state domain.TrayState) string {
	if state == domain.TrayStateRecording {
		return AppName + " - Recording"
	}
	return AppName + " - Idle"
}

// RequestQuit makes ShouldQuit report true.
func (t *Tray) RequestQuit() { t.quit.Store(true) }

func (t *Tray) ShouldQuit() bool { return t.quit.Load() }

// Notify shows a desktop notification. Failures are logged only.
func (t *Tray) Notify(title, message string) {
	if err := t.notify(title, message); err != nil {
		t.log.Debug("notification failed", logging.Error(err))
	}
}

// Close removes the tray icon.
func (t *Tray) Close() {
	t.stopped.Do(func() {
		close(t.done)
		select {
		case <-t.ready:
			t.backend.Stop()
		default:
		}
	})
}
