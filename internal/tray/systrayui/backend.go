// Package systrayui binds the tray to the native system tray.
package systrayui

import (
	"github.com/getlantern/systray"

	"speedystt/internal/tray"
)

type Backend struct {
	quit *systray.MenuItem
}

func New() *Backend { return &Backend{} }

// Start registers the tray without taking over the main loop, which is
// owned by the window runtime.
func (b *Backend) Start(onReady func()) {
	systray.Register(func() {
		systray.SetTitle(tray.AppName)
		systray.SetTooltip(tray.AppName)
		b.quit = systray.AddMenuItem("Quit", "Quit "+tray.AppName)
		onReady()
	}, func() {})
}

func (b *Backend) SetTooltip(text string) { systray.SetTooltip(text) }

func (b *Backend) QuitItem() <-chan struct{} {
	if b.quit == nil {
		return nil
	}
	return b.quit.ClickedCh
}

func (b *Backend) Stop() { systray.Quit() }
