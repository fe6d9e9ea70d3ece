//go:build windows || linux || darwin

// Package native registers hotkey bindings with the operating system.
package native

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	hk "speedystt/internal/hotkey"
)

// Register implements hk.Registrar.
func Register(binding hk.Binding) (hk.Registration, error) {
	mods := make([]hotkey.Modifier, 0, len(binding.Modifiers))
	for _, m := range binding.Modifiers {
		mod, ok := modifiers[m]
		if !ok {
			return nil, fmt.Errorf("modifier %s is not supported here", m)
		}
		mods = append(mods, mod)
	}
	key, err := keyCode(binding.Key)
	if err != nil {
		return nil, err
	}

	h := hotkey.New(mods, key)
	if err := h.Register(); err != nil {
		return nil, fmt.Errorf("register hotkey %s: %w", binding, err)
	}

	r := &registration{
		hk:   h,
		down: make(chan struct{}, 1),
		up:   make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.relay()
	return r, nil
}

func keyCode(k hk.Key) (hotkey.Key, error) {
	if code, ok := special[k]; ok {
		return code, nil
	}
	if c, ok := hk.Letter(k); ok {
		return letters[c-'A'], nil
	}
	if n, ok := hk.FunctionKey(k); ok && n <= len(functionKeys) {
		return functionKeys[n-1], nil
	}
	return 0, fmt.Errorf("key %s is not supported here", k)
}

var letters = [...]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var functionKeys = [...]hotkey.Key{
	hotkey.KeyF1, hotkey.KeyF2, hotkey.KeyF3, hotkey.KeyF4, hotkey.KeyF5, hotkey.KeyF6,
	hotkey.KeyF7, hotkey.KeyF8, hotkey.KeyF9, hotkey.KeyF10, hotkey.KeyF11, hotkey.KeyF12,
}

// registration relays the library's typed event channels.
type registration struct {
	hk   *hotkey.Hotkey
	down chan struct{}
	up   chan struct{}
	quit chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func (r *registration) relay() {
	defer r.wg.Done()
	for {
		select {
		case <-r.quit:
			return
		case <-r.hk.Keydown():
			r.send(r.down)
		case <-r.hk.Keyup():
			r.send(r.up)
		}
	}
}

func (r *registration) send(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	case <-r.quit:
	}
}

func (r *registration) Keydown() <-chan struct{} { return r.down }
func (r *registration) Keyup() <-chan struct{}   { return r.up }

func (r *registration) Unregister() error {
	var err error
	r.once.Do(func() {
		close(r.quit)
		r.wg.Wait()
		err = r.hk.Unregister()
	})
	return err
}
