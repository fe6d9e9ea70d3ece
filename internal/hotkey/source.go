package hotkey

import (
	"errors"
	"sync"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
)

const queueSize = 64

// Registration is a hotkey registered with the OS.
type Registration interface {
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
	Unregister() error
}

// Registrar registers a binding with the OS.
type Registrar func(Binding) (Registration, error)

// Source queues press/release events from a registered hotkey and from UI
// buttons. Poll never blocks.
type Source struct {
	id     string
	events chan domain.HotkeyEvent
	log    *logging.Logger

	mu   sync.Mutex
	reg  Registration
	done chan struct{}
	wg   sync.WaitGroup
}

func NewSource(id string, log *logging.Logger) *Source {
	if log == nil {
		log = logging.Nop()
	}
	return &Source{
		id:     id,
		events: make(chan domain.HotkeyEvent, queueSize),
		log:    log.Named("hotkey"),
	}
}

func (s *Source) ID() string { return s.id }

// Register binds the source to an OS hotkey. Only one registration is held.
func (s *Source) Register(binding Binding, register Registrar) error {
	if register == nil {
		return errors.New("hotkey registrar is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg != nil {
		return errors.New("hotkey already registered")
	}

	reg, err := register(binding)
	if err != nil {
		return err
	}
	s.reg = reg
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.forward(reg, s.done)

	s.log.Info("hotkey registered", logging.String("binding", binding.String()))
	return nil
}

func (s *Source) forward(reg Registration, done <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-done:
			return
		case _, ok := <-reg.Keydown():
			if !ok {
				return
			}
			s.Push(domain.HotkeyPressed)
		case _, ok := <-reg.Keyup():
			if !ok {
				return
			}
			s.Push(domain.HotkeyReleased)
		}
	}
}

// Push queues an event as if the hotkey fired. Events are dropped when the
// queue is full.
func (s *Source) Push(kind domain.HotkeyEventKind) {
	select {
	case s.events <- domain.HotkeyEvent{HotkeyID: s.id, Kind: kind}:
	default:
		s.log.Warn("hotkey queue full, dropping event", logging.String("kind", string(kind)))
	}
}

func (s *Source) Poll() (domain.HotkeyEvent, bool) {
	select {
	case event := <-s.events:
		return event, true
	default:
		return domain.HotkeyEvent{}, false
	}
}

// Close unregisters the OS hotkey. Queued events stay pollable.
func (s *Source) Close() error {
	s.mu.Lock()
	reg, done := s.reg, s.done
	s.reg, s.done = nil, nil
	s.mu.Unlock()

	if reg == nil {
		return nil
	}
	close(done)
	s.wg.Wait()
	return reg.Unregister()
}
