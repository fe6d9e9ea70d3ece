// Package hotkey parses hotkey descriptors and buffers press/release events
// for the event loop.
package hotkey

import (
	"fmt"
	"strings"
)

type Modifier string

const (
	ModCtrl  Modifier = "CTRL"
	ModAlt   Modifier = "ALT"
	ModShift Modifier = "SHIFT"
	ModSuper Modifier = "SUPER"
)

// Key is a canonical key name such as SPACE, F5 or A.
type Key string

const (
	KeySpace     Key = "SPACE"
	KeyEnter     Key = "ENTER"
	KeyTab       Key = "TAB"
	KeyBackspace Key = "BACKSPACE"
	KeyEscape    Key = "ESC"
	KeySuper     Key = "SUPER"
	KeyAlt       Key = "ALT"
	KeyAltRight  Key = "ALTRIGHT"
)

// Binding is a parsed modifier set plus trigger key.
type Binding struct {
	Modifiers []Modifier
	Key       Key
}

func (b Binding) String() string {
	parts := make([]string, 0, len(b.Modifiers)+1)
	for _, m := range b.Modifiers {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, string(b.Key)), "+")
}

// Parse reads the HOTKEY_MODIFIER and HOTKEY_KEY values. An empty modifier
// or NONE means no modifier; several may be joined with "+".
func Parse(modifier, key string) (Binding, error) {
	mods, err := parseModifiers(modifier)
	if err != nil {
		return Binding{}, err
	}
	k, err := parseKey(key)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Modifiers: mods, Key: k}, nil
}

func parseModifiers(value string) ([]Modifier, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" || value == "NONE" {
		return nil, nil
	}

	var mods []Modifier
	seen := make(map[Modifier]bool)
	for _, part := range strings.Split(value, "+") {
		var mod Modifier
		switch strings.TrimSpace(part) {
		case "CTRL", "CONTROL":
			mod = ModCtrl
		case "ALT":
			mod = ModAlt
		case "SHIFT":
			mod = ModShift
		case "WIN", "SUPER":
			mod = ModSuper
		default:
			return nil, fmt.Errorf("invalid modifier: %s", value)
		}
		if !seen[mod] {
			seen[mod] = true
			mods = append(mods, mod)
		}
	}
	return mods, nil
}

func parseKey(value string) (Key, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch value {
	case "SPACE":
		return KeySpace, nil
	case "ENTER", "RETURN":
		return KeyEnter, nil
	case "TAB":
		return KeyTab, nil
	case "BACKSPACE":
		return KeyBackspace, nil
	case "ESC", "ESCAPE":
		return KeyEscape, nil
	case "WIN", "SUPER":
		return KeySuper, nil
	case "ALT":
		return KeyAlt, nil
	case "ALTRIGHT":
		return KeyAltRight, nil
	}

	if len(value) == 1 && value[0] >= 'A' && value[0] <= 'Z' {
		return Key(value), nil
	}
	if n, ok := FunctionKey(Key(value)); ok && n >= 1 && n <= 12 {
		return Key(value), nil
	}
	return "", fmt.Errorf("invalid key: %s", value)
}

// FunctionKey reports the number of an F-key name.
func FunctionKey(k Key) (int, bool) {
	s := string(k)
	if len(s) < 2 || len(s) > 3 || s[0] != 'F' {
		return 0, false
	}
	n := 0
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, n > 0
}

// Letter reports the letter of a single-letter key.
func Letter(k Key) (byte, bool) {
	if len(k) == 1 && k[0] >= 'A' && k[0] <= 'Z' {
		return k[0], true
	}
	return 0, false
}
