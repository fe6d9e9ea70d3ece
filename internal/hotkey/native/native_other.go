//go:build !windows && !linux && !darwin

package native

import (
	"errors"

	hk "speedystt/internal/hotkey"
)

func Register(hk.Binding) (hk.Registration, error) {
	return nil, errors.New("global hotkeys are not supported on this platform")
}
