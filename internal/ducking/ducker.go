package ducking

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/samber/lo"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/ports"
)

var ErrUnsupported = errors.New("audio ducking is not supported on this platform")

const (
	skipExpired      = "expired"
	skipOwnProcess   = "own process"
	skipSystemSounds = "system sounds"
	skipSilent       = "already silent"

	silentThreshold = 1e-4
)

// Config controls the fade shape.
type Config struct {
	FadeDuration time.Duration
	FadeStep     time.Duration
}

func DefaultConfig() Config {
	return Config{
		FadeDuration: 500 * time.Millisecond,
		FadeStep:     10 * time.Millisecond,
	}
}

func (c Config) steps() int {
	if c.FadeStep <= 0 {
		return 1
	}
	return max(int(c.FadeDuration/c.FadeStep), 1)
}

// Ducker fades every other application's render sessions to silence and
// back. Only one scope may be engaged at a time, and all calls on a scope
// must come from the goroutine that created it with its OS thread locked.
type Ducker struct {
	platform Platform
	cfg      Config
	sleep    func(time.Duration)
	log      *logging.Logger
}

// New returns a Ducker backed by the OS audio session API.
func New(cfg Config, log *logging.Logger) *Ducker {
	return NewWithPlatform(newPlatform(), cfg, log)
}

func NewWithPlatform(platform Platform, cfg Config, log *logging.Logger) *Ducker {
	if log == nil {
		log = logging.Nop()
	}
	return &Ducker{
		platform: platform,
		cfg:      cfg,
		sleep:    time.Sleep,
		log:      log.Named("ducker"),
	}
}

// Duck implements ports.AudioDucker.
func (d *Ducker) Duck() (ports.DuckScope, error) {
	scope, err := d.duck()
	if err != nil {
		return nil, err
	}
	return scope, nil
}

func (d *Ducker) duck() (scope *Scope, err error) {
	result, err := d.platform.Init()
	if err != nil {
		return nil, fmt.Errorf("initialize audio subsystem: %w", err)
	}
	d.log.Debug("audio subsystem acquired", logging.String("init", result.String()))

	scope = &Scope{ducker: d, owns: result.OwnsTeardown()}
	defer func() {
		if r := recover(); r != nil {
			_ = scope.Close()
			panic(r)
		}
		if err != nil {
			_ = scope.Close()
			scope = nil
		}
	}()

	err = d.enumerate(func(info domain.AudioSessionInfo, volume Volume) bool {
		if !info.Selected() {
			return false
		}
		scope.sessions = append(scope.sessions, duckedSession{info: info, volume: volume, original: info.Volume})
		return true
	})
	if err != nil {
		return nil, err
	}

	d.log.Info("ducking audio sessions", logging.Int("sessions", len(scope.sessions)))
	scope.fade(fadeOut)
	return scope, nil
}

// List reports every session the ducker would consider, including skipped
// ones and their skip reason.
func (d *Ducker) List() ([]domain.AudioSessionInfo, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	result, err := d.platform.Init()
	if err != nil {
		return nil, fmt.Errorf("initialize audio subsystem: %w", err)
	}
	if result.OwnsTeardown() {
		defer d.platform.Uninit()
	}

	var infos []domain.AudioSessionInfo
	err = d.enumerate(func(info domain.AudioSessionInfo, _ Volume) bool {
		infos = append(infos, info)
		return false
	})
	return infos, err
}

// enumerate walks every session on every active render endpoint. keep
// returns true to take ownership of the volume control; otherwise it is
// released. Per-device and per-session failures are logged and skipped.
func (d *Ducker) enumerate(keep func(domain.AudioSessionInfo, Volume) bool) error {
	enumerator, err := d.platform.OpenEnumerator()
	if err != nil {
		return fmt.Errorf("open device enumerator: %w", err)
	}
	defer enumerator.Release()

	devices, err := enumerator.DeviceCount()
	if err != nil {
		return fmt.Errorf("count render endpoints: %w", err)
	}
	d.log.Debug("active render endpoints", logging.Int("count", devices))

	ownPID := d.platform.ProcessID()
	for di := 0; di < devices; di++ {
		device, err := enumerator.Device(di)
		if err != nil {
			d.log.Warn("failed to open render endpoint", logging.Int("device", di), logging.Error(err))
			continue
		}
		d.enumerateDevice(di, device, ownPID, keep)
		device.Release()
	}
	return nil
}

func (d *Ducker) enumerateDevice(di int, device Device, ownPID uint32, keep func(domain.AudioSessionInfo, Volume) bool) {
	count, err := device.SessionCount()
	if err != nil {
		d.log.Warn("failed to count sessions", logging.Int("device", di), logging.Error(err))
		return
	}

	for si := 0; si < count; si++ {
		raw, err := device.Session(si)
		if err != nil {
			d.log.Warn("failed to open session", logging.Int("device", di), logging.Int("session", si), logging.Error(err))
			continue
		}
		info, volume, err := d.inspect(raw, di, si, ownPID)
		raw.Release()
		if err != nil {
			d.log.Warn("failed to inspect session", logging.Int("device", di), logging.Int("session", si), logging.Error(err))
			continue
		}

		log := d.log.With(
			logging.Int("device", di),
			logging.Int("session", si),
			logging.Uint32("pid", info.ProcessID),
		)
		if info.Selected() {
			log.Debug("session selected", logging.Float32("volume", info.Volume))
		} else {
			log.Debug("session skipped", logging.String("reason", info.SkipReason))
		}

		if !keep(info, volume) && volume != nil {
			volume.Release()
		}
	}
}

// inspect applies the selection filter. The volume control is returned only
// when it was opened; skipped sessions before that point return nil.
func (d *Ducker) inspect(raw RawSession, di, si int, ownPID uint32) (domain.AudioSessionInfo, Volume, error) {
	info := domain.AudioSessionInfo{Device: di, Index: si}

	state, err := raw.State()
	if err != nil {
		return info, nil, fmt.Errorf("session state: %w", err)
	}
	info.State = state
	if state == domain.AudioSessionExpired {
		info.SkipReason = skipExpired
		return info, nil, nil
	}

	pid, err := raw.ProcessID()
	if err != nil {
		return info, nil, fmt.Errorf("session process id: %w", err)
	}
	info.ProcessID = pid
	if pid == ownPID {
		info.SkipReason = skipOwnProcess
		return info, nil, nil
	}

	system, err := raw.IsSystemSounds()
	if err != nil {
		return info, nil, fmt.Errorf("system sounds query: %w", err)
	}
	info.SystemSounds = system
	if system {
		info.SkipReason = skipSystemSounds
		return info, nil, nil
	}

	volume, err := raw.Volume()
	if err != nil {
		return info, nil, fmt.Errorf("session volume control: %w", err)
	}
	level, err := volume.MasterVolume()
	if err != nil {
		volume.Release()
		return info, nil, fmt.Errorf("session master volume: %w", err)
	}
	info.Volume = level
	if level <= silentThreshold {
		info.SkipReason = skipSilent
	}
	return info, volume, nil
}

type fadeDirection int

const (
	fadeOut fadeDirection = iota
	fadeIn
)

func (f fadeDirection) String() string {
	if f == fadeOut {
		return "out"
	}
	return "in"
}

type duckedSession struct {
	info     domain.AudioSessionInfo
	volume   Volume
	original float32
}

// Scope is an engaged ducking interval.
type Scope struct {
	ducker   *Ducker
	sessions []duckedSession
	owns     bool

	restoreOnce sync.Once
	restoreErr  error
	closeOnce   sync.Once
}

// Sessions lists the ducked sessions with their original volumes.
func (s *Scope) Sessions() []domain.AudioSessionInfo {
	return lo.Map(s.sessions, func(ds duckedSession, _ int) domain.AudioSessionInfo {
		return ds.info
	})
}

// Restore fades every ducked session back to its original volume. Repeated
// calls are no-ops.
func (s *Scope) Restore() error {
	s.restoreOnce.Do(func() {
		s.restoreErr = s.fade(fadeIn)
	})
	return s.restoreErr
}

// Close restores if needed, releases the session controls and balances the
// audio subsystem acquisition when this scope owns it.
func (s *Scope) Close() error {
	err := s.Restore()
	s.closeOnce.Do(func() {
		for _, ds := range s.sessions {
			ds.volume.Release()
		}
		if s.owns {
			s.ducker.platform.Uninit()
		}
	})
	return err
}

// fade moves all sessions in lock-step. Failed writes are logged and the
// session is still written on every later step; only a session whose last
// write failed is reported.
func (s *Scope) fade(direction fadeDirection) error {
	steps := s.ducker.cfg.steps()
	failed := make([]error, len(s.sessions))

	for k := 1; k <= steps; k++ {
		t := float32(k) / float32(steps)
		for i, ds := range s.sessions {
			level := ds.original * t
			if direction == fadeOut {
				level = ds.original * (1 - t)
			}
			err := ds.volume.SetMasterVolume(lo.Clamp(level, 0, 1))
			failed[i] = nil
			if err != nil {
				failed[i] = fmt.Errorf("session %d/%d (pid %d): %w", ds.info.Device, ds.info.Index, ds.info.ProcessID, err)
				s.ducker.log.Warn("failed to set session volume",
					logging.String("fade", direction.String()),
					logging.Uint32("pid", ds.info.ProcessID),
					logging.Float32("level", level),
					logging.Error(err),
				)
			}
		}
		s.ducker.sleep(s.ducker.cfg.FadeStep)
	}

	return errors.Join(failed...)
}
