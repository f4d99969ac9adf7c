// Package input implements the CHIP-8 hexadecimal keypad.
package input

import (
	"sync"

	"github.com/retroenv/retrogolib/log"
)

// NumKeys is the number of keys on the keypad
const NumKeys = 16

// Keypad holds the pressed state of the 16 keys 0x0..0xF. The host
// updates it from its event loop while the CPU polls it through
// IsPressed, so access is guarded.
type Keypad struct {
	mu   sync.RWMutex
	keys uint16 // bit n set while key n is down

	logger *log.Logger
}

// New creates a new Keypad with all keys released
func New() *Keypad {
	return &Keypad{}
}

// SetLogger enables debug logging of key state changes
func (k *Keypad) SetLogger(logger *log.Logger) {
	k.mu.Lock()
	k.logger = logger
	k.mu.Unlock()
}

// SetKey sets the state of a single key. Keys above 0xF are ignored.
func (k *Keypad) SetKey(key uint8, pressed bool) {
	if key >= NumKeys {
		return
	}

	k.mu.Lock()
	old := k.keys
	if pressed {
		k.keys |= 1 << key
	} else {
		k.keys &^= 1 << key
	}
	changed := old != k.keys
	logger := k.logger
	k.mu.Unlock()

	if changed && logger != nil {
		if pressed {
			logger.Debug("Key pressed", log.Hex("key", key))
		} else {
			logger.Debug("Key released", log.Hex("key", key))
		}
	}
}

// SetKeys replaces the state of all keys at once
func (k *Keypad) SetKeys(keys [NumKeys]bool) {
	var mask uint16
	for i, pressed := range keys {
		if pressed {
			mask |= 1 << i
		}
	}

	k.mu.Lock()
	k.keys = mask
	k.mu.Unlock()
}

// IsPressed returns true if the key is currently down
func (k *Keypad) IsPressed(key uint8) bool {
	if key >= NumKeys {
		return false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.keys&(1<<key) != 0
}

// State returns the pressed state of every key
func (k *Keypad) State() [NumKeys]bool {
	k.mu.RLock()
	mask := k.keys
	k.mu.RUnlock()

	var state [NumKeys]bool
	for i := range state {
		state[i] = mask&(1<<i) != 0
	}
	return state
}

// Reset releases all keys
func (k *Keypad) Reset() {
	k.mu.Lock()
	k.keys = 0
	k.mu.Unlock()
}
