package native

import (
	"golang.design/x/hotkey"

	hk "speedystt/internal/hotkey"
)

var modifiers = map[hk.Modifier]hotkey.Modifier{
	hk.ModCtrl:  hotkey.ModCtrl,
	hk.ModAlt:   hotkey.ModOption,
	hk.ModShift: hotkey.ModShift,
	hk.ModSuper: hotkey.ModCmd,
}

// Carbon virtual key codes.
var special = map[hk.Key]hotkey.Key{
	hk.KeySpace:     hotkey.KeySpace,
	hk.KeyEnter:     hotkey.KeyReturn,
	hk.KeyTab:       hotkey.KeyTab,
	hk.KeyEscape:    hotkey.KeyEscape,
	hk.KeyBackspace: hotkey.Key(0x33),
	hk.KeySuper:     hotkey.Key(0x37),
	hk.KeyAlt:       hotkey.Key(0x3A),
	hk.KeyAltRight:  hotkey.Key(0x3D),
}
