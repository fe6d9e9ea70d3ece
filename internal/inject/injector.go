// Package inject types transcripts into the focused window by pasting them
// through the clipboard.
package inject

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"

	"speedystt/internal/logging"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Config tunes the paste timing.
type Config struct {
	// SettleDelay lets the hotkey release reach the target window first.
	SettleDelay  time.Duration
	WriteDelay   time.Duration
	RestoreDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		SettleDelay:  100 * time.Millisecond,
		WriteDelay:   80 * time.Millisecond,
		RestoreDelay: 120 * time.Millisecond,
	}
}

// Injector pastes text and puts the previous clipboard contents back.
type Injector struct {
	cfg       Config
	clipboard Clipboard
	paste     func() error
	log       *logging.Logger
}

func New(cfg Config, log *logging.Logger) *Injector {
	if log == nil {
		log = logging.Nop()
	}
	k := &keyboard{}
	return &Injector{
		cfg:       cfg,
		clipboard: systemClipboard{},
		paste:     k.paste,
		log:       log.Named("inject"),
	}
}

func (i *Injector) Inject(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := sleep(ctx, i.cfg.SettleDelay); err != nil {
		return err
	}

	previous, readErr := i.clipboard.ReadAll()
	if readErr != nil {
		i.log.Debug("clipboard unreadable, it will not be restored", logging.Error(readErr))
	}
	if err := i.clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	if err := sleep(ctx, i.cfg.WriteDelay); err != nil {
		return err
	}

	pasteErr := i.paste()
	if pasteErr == nil {
		_ = sleep(ctx, i.cfg.RestoreDelay)
	}

	if readErr == nil {
		if err := i.clipboard.WriteAll(previous); err != nil {
			i.log.Warn("failed to restore clipboard", logging.Error(err))
		}
	}
	if pasteErr != nil {
		return fmt.Errorf("send paste shortcut: %w", pasteErr)
	}
	i.log.Debug("text injected", logging.Int("chars", len([]rune(text))))
	return nil
}

// keyboard creates the virtual key device on first use; on Linux that
// takes a couple of seconds.
type keyboard struct {
	once sync.Once
	kb   *keybd_event.KeyBonding
	err  error
}

func (k *keyboard) paste() error {
	k.once.Do(func() {
		kb, err := keybd_event.NewKeyBonding()
		if err != nil {
			k.err = err
			return
		}
		if runtime.GOOS == "darwin" {
			kb.HasSuper(true)
		} else {
			kb.HasCTRL(true)
		}
		kb.SetKeys(keybd_event.VK_V)
		k.kb = &kb
	})
	if k.err != nil {
		return k.err
	}
	if k.kb == nil {
		return errors.New("keyboard unavailable")
	}
	return k.kb.Launching()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
