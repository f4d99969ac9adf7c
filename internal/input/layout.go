package input

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// keypadOrder lists the CHIP-8 keys in the physical 4x4 keypad layout,
// row by row:
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
var keypadOrder = [NumKeys]uint8{
	0x1, 0x2, 0x3, 0xC,
	0x4, 0x5, 0x6, 0xD,
	0x7, 0x8, 0x9, 0xE,
	0xA, 0x0, 0xB, 0xF,
}

// DefaultLayout is the conventional QWERTY mapping of the keypad
const DefaultLayout = "1234QWERASDFZXCV"

// KeyMap maps host keys (as lower case runes) to CHIP-8 keys
type KeyMap map[rune]uint8

// DefaultKeyMap returns the mapping for DefaultLayout
func DefaultKeyMap() KeyMap {
	m, _ := ParseLayout(DefaultLayout)
	return m
}

// ParseLayout builds a KeyMap from 16 host characters given in keypad
// order (see keypadOrder). Letters are case-insensitive.
func ParseLayout(layout string) (KeyMap, error) {
	if n := utf8.RuneCountInString(layout); n != NumKeys {
		return nil, fmt.Errorf("key layout must have %d characters, got %d", NumKeys, n)
	}

	m := make(KeyMap, NumKeys)
	i := 0
	for _, r := range layout {
		r = unicode.ToLower(r)
		if _, ok := m[r]; ok {
			return nil, fmt.Errorf("key layout: host key %q used twice", r)
		}
		m[r] = keypadOrder[i]
		i++
	}
	return m, nil
}

// Lookup returns the CHIP-8 key for a host key
func (m KeyMap) Lookup(r rune) (uint8, bool) {
	key, ok := m[unicode.ToLower(r)]
	return key, ok
}

// HostKey returns the host key bound to a CHIP-8 key
func (m KeyMap) HostKey(key uint8) (rune, bool) {
	for r, k := range m {
		if k == key {
			return r, true
		}
	}
	return 0, false
}

// Layout renders the mapping back into keypad order
func (m KeyMap) Layout() string {
	var sb strings.Builder
	for _, key := range keypadOrder {
		r, ok := m.HostKey(key)
		if !ok {
			r = '?'
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}
