package native

import (
	"golang.design/x/hotkey"

	hk "speedystt/internal/hotkey"
)

// Mod1 is Alt and Mod4 is Super on stock X11 keymaps.
var modifiers = map[hk.Modifier]hotkey.Modifier{
	hk.ModCtrl:  hotkey.ModCtrl,
	hk.ModAlt:   hotkey.Mod1,
	hk.ModShift: hotkey.ModShift,
	hk.ModSuper: hotkey.Mod4,
}

// X11 keysyms.
var special = map[hk.Key]hotkey.Key{
	hk.KeySpace:     hotkey.KeySpace,
	hk.KeyEnter:     hotkey.KeyReturn,
	hk.KeyTab:       hotkey.KeyTab,
	hk.KeyEscape:    hotkey.KeyEscape,
	hk.KeyBackspace: hotkey.Key(0xff08),
	hk.KeySuper:     hotkey.Key(0xffeb),
	hk.KeyAlt:       hotkey.Key(0xffe9),
	hk.KeyAltRight:  hotkey.Key(0xffea),
}
