package config

import "fmt"

// Mode selects which simulation variant the engine runs.
// The numeric value is written into the parameter block.
type Mode uint32

const (
	ModeFree Mode = iota
	ModeFireball
	ModeWater
	ModeCloth
	ModeChain
)

var modeNames = [...]string{
	ModeFree:     "free",
	ModeFireball: "fireball",
	ModeWater:    "water",
	ModeCloth:    "cloth",
	ModeChain:    "chain",
}

// String returns the config name of the mode.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// HasMasses reports whether the mode simulates connected masses rather than
// a spawned particle pool.
func (m Mode) HasMasses() bool {
	return m == ModeCloth || m == ModeChain
}

// ParseMode converts a config name to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalid, s)
}
