package native

import (
	"golang.design/x/hotkey"

	hk "speedystt/internal/hotkey"
)

var modifiers = map[hk.Modifier]hotkey.Modifier{
	hk.ModCtrl:  hotkey.ModCtrl,
	hk.ModAlt:   hotkey.ModAlt,
	hk.ModShift: hotkey.ModShift,
	hk.ModSuper: hotkey.ModWin,
}

// Virtual-key codes.
var special = map[hk.Key]hotkey.Key{
	hk.KeySpace:     hotkey.KeySpace,
	hk.KeyEnter:     hotkey.KeyReturn,
	hk.KeyTab:       hotkey.KeyTab,
	hk.KeyEscape:    hotkey.KeyEscape,
	hk.KeyBackspace: hotkey.Key(0x08),
	hk.KeySuper:     hotkey.Key(0x5B),
	hk.KeyAlt:       hotkey.Key(0x12),
	hk.KeyAltRight:  hotkey.Key(0xA5),
}
