package types

import (
	"fmt"
	"strings"
)

// Mode is the CHP operating strategy.
type Mode int

const (
	// ModeELF follows the electrical load.
	ModeELF Mode = iota
	// ModeTLF follows the thermal load.
	ModeTLF
	// ModePeak runs at fixed capacity and sells the surplus (power purchase).
	ModePeak
)

// AllModes lists every supported mode in reporting order.
var AllModes = []Mode{ModeELF, ModeTLF, ModePeak}

func (m Mode) String() string {
	switch m {
	case ModeELF:
		return "ELF"
	case ModeTLF:
		return "TLF"
	case ModePeak:
		return "Peak"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. "PP" is accepted as an alias of Peak.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ELF":
		return ModeELF, nil
	case "TLF":
		return ModeTLF, nil
	case "PEAK", "PP":
		return ModePeak, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// ParseModes parses a comma separated list of modes. An empty string
// returns AllModes.
func ParseModes(s string) ([]Mode, error) {
	if strings.TrimSpace(s) == "" {
		return AllModes, nil
	}
	var modes []Mode
	seen := map[Mode]bool{}
	for _, part := range strings.Split(s, ",") {
		m, err := ParseMode(part)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		modes = append(modes, m)
	}
	return modes, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	switch m {
	case ModeELF, ModeTLF, ModePeak:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("invalid mode %d", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
