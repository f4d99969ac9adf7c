package cpu

import (
	"fmt"
	"strings"
)

// Quirks selects between behaviors that differ across historical
// interpreters.
type Quirks struct {
	// LogicResetsVF clears VF after 8XY1, 8XY2 and 8XY3
	LogicResetsVF bool `json:"logic_resets_vf" toml:"logic_resets_vf"`
	// ShiftUsesVY shifts VY into VX for 8XY6 and 8XYE instead of shifting VX in place
	ShiftUsesVY bool `json:"shift_uses_vy" toml:"shift_uses_vy"`
	// JumpUsesVX makes BNNN add VX (X taken from the opcode) instead of V0
	JumpUsesVX bool `json:"jump_uses_vx" toml:"jump_uses_vx"`
	// LoadStoreIncrementsI advances I by X+1 after FX55 and FX65
	LoadStoreIncrementsI bool `json:"load_store_increments_i" toml:"load_store_increments_i"`
	// WrapSprites wraps sprite pixels around both screen edges instead of clipping
	WrapSprites bool `json:"wrap_sprites" toml:"wrap_sprites"`
}

// Quirk profile names
const (
	ProfileCOSMAC = "cosmac"
	ProfileCHIP48 = "chip48"
)

// DefaultQuirks returns the original COSMAC VIP behavior.
func DefaultQuirks() Quirks {
	return Quirks{
		LogicResetsVF:        true,
		ShiftUsesVY:          true,
		JumpUsesVX:           false,
		LoadStoreIncrementsI: true,
		WrapSprites:          false,
	}
}

// CHIP48Quirks returns the behavior of CHIP-48 and most later interpreters.
func CHIP48Quirks() Quirks {
	return Quirks{
		JumpUsesVX: true,
	}
}

// QuirksForProfile returns the quirk set for a named profile.
func QuirksForProfile(name string) (Quirks, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProfileCOSMAC, "vip":
		return DefaultQuirks(), nil
	case ProfileCHIP48, "modern":
		return CHIP48Quirks(), nil
	default:
		return Quirks{}, fmt.Errorf("unknown quirk profile %q", name)
	}
}
