package usecase

import (
	"context"
	"errors"
	"time"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

// EventLoop polls hotkey events on a fixed interval and drives the
// controller. All controller calls happen on the goroutine running Run.
type EventLoop struct {
	controller *RecordingController
	hotkeys    ports.HotkeySource
	tray       ports.Tray
	interval   time.Duration
	now        func() time.Time
	log        *logging.Logger
}

func NewEventLoop(controller *RecordingController, hotkeys ports.HotkeySource, tray ports.Tray, interval time.Duration, log *logging.Logger) *EventLoop {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	if log == nil {
		log = logging.Nop()
	}
	return &EventLoop{
		controller: controller,
		hotkeys:    hotkeys,
		tray:       tray,
		interval:   interval,
		now:        time.Now,
		log:        log.Named("loop"),
	}
}

// Run blocks until the tray requests quit or ctx is cancelled, then shuts
// the controller down.
func (l *EventLoop) Run(ctx context.Context) error {
	defer l.controller.Shutdown()

	if l.tray != nil {
		if err := l.tray.SetState(domain.TrayStateIdle); err != nil {
			l.log.Warn("failed to set initial tray state", logging.Error(err))
		}
	}
	l.log.Info("event loop started", logging.Duration("interval", l.interval))

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if l.tray != nil && l.tray.ShouldQuit() {
			l.log.Info("quit requested")
			return nil
		}

		l.drain(ctx)
		l.controller.Tick(l.now())

		select {
		case <-ctx.Done():
			l.log.Info("event loop stopped", logging.Error(ctx.Err()))
			return nil
		case <-ticker.C:
		}
	}
}

func (l *EventLoop) drain(ctx context.Context) {
	for {
		event, ok := l.hotkeys.Poll()
		if !ok {
			return
		}
		if event.HotkeyID != l.hotkeys.ID() {
			continue
		}
		l.handle(ctx, event)
	}
}

func (l *EventLoop) handle(ctx context.Context, event domain.HotkeyEvent) {
	switch event.Kind {
	case domain.HotkeyPressed:
		if err := l.controller.OnPress(ctx); err != nil && !errors.Is(err, ErrAlreadyRecording) {
			l.log.Error("failed to start recording", logging.Error(err))
		}
	case domain.HotkeyReleased:
		result, err := l.controller.OnRelease(ctx)
		if err != nil {
			if !errors.Is(err, ErrNotRecording) {
				l.log.Error("failed to finish recording", logging.Error(err))
			}
			return
		}
		l.log.Debug("cycle complete",
			logging.String("cycle", result.ID),
			logging.String("reason", string(result.Reason)),
		)
	}
}
