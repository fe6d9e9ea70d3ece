package usecase

import (
	"runtime"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

// duckScope holds an engaged ducking interval on a goroutine pinned to one
// OS thread. Platform audio state is per thread, so duck, restore and
// teardown all happen there.
type duckScope struct {
	release chan struct{}
	done    chan struct{}
}

func startDuckScope(ducker ports.AudioDucker, events ports.EventSink, log *logging.Logger) *duckScope {
	s := &duckScope{
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer func() {
			if r := recover(); r != nil {
				log.Error("ducking scope panicked", logging.Any("panic", r))
				events.CycleError(domain.ErrorCodeDucking, "audio ducking failed unexpectedly")
			}
		}()

		handle, err := ducker.Duck()
		if err != nil {
			log.Warn("audio ducking unavailable", logging.Error(err))
			events.CycleError(domain.ErrorCodeDucking, err.Error())
			return
		}
		defer func() {
			if err := handle.Close(); err != nil {
				log.Warn("failed to release ducking session", logging.Error(err))
			}
		}()

		<-s.release
		if err := handle.Restore(); err != nil {
			log.Warn("failed to restore ducked sessions", logging.Error(err))
		}
	}()

	return s
}

// end restores ducked audio and waits for the scope to finish.
func (s *duckScope) end() {
	if s == nil {
		return
	}
	select {
	case <-s.release:
	default:
		close(s.release)
	}
	<-s.done
}
