package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Kind is the scalar type stored in a field.
type Kind uint8

const (
	KindFloat Kind = iota
	KindBool
)

// Owner identifies the only execution context allowed to write a field.
type Owner uint8

const (
	ControlCore Owner = iota
	CompanionCore
)

func (o Owner) String() string {
	switch o {
	case ControlCore:
		return "control"
	case CompanionCore:
		return "companion"
	default:
		return fmt.Sprintf("owner(%d)", uint8(o))
	}
}

// Field names a register inside an inverter bank or the board section.
type Field uint8

// Bank fields. Every inverter bank carries one of each.
const (
	Frequency       Field = iota // Current output frequency (Hz)
	ModulationIndex              // Current modulation index
	Direction                    // Current direction, true = reverse
	State                        // Activation result mirrored by the gate

	RequestedFrequency     // Target output frequency (Hz)
	RequestedDirection     // Target direction, true = reverse
	Acceleration           // Ramp limit (Hz/s)
	NominalFrequency       // Frequency at which the V/F law saturates (Hz)
	NominalModulationIndex // Modulation index at nominal frequency

	bankFieldCount
)

// Board fields, present once per store.
const (
	DCLinkVoltage   Field = bankFieldCount + iota // Measured DC link (V)
	SamplingControl                               // True while the ADC runs in control mode

	fieldCount
)

const boardFieldCount = int(fieldCount - bankFieldCount)

type fieldInfo struct {
	name  string
	kind  Kind
	owner Owner
}

var fields = [fieldCount]fieldInfo{
	Frequency:              {"freq", KindFloat, ControlCore},
	ModulationIndex:        {"m", KindFloat, ControlCore},
	Direction:              {"dir", KindBool, ControlCore},
	State:                  {"state", KindBool, ControlCore},
	RequestedFrequency:     {"freq_req", KindFloat, CompanionCore},
	RequestedDirection:     {"dir_req", KindBool, CompanionCore},
	Acceleration:           {"accel", KindFloat, CompanionCore},
	NominalFrequency:       {"nom_freq", KindFloat, CompanionCore},
	NominalModulationIndex: {"nom_m", KindFloat, CompanionCore},
	DCLinkVoltage:          {"vdc", KindFloat, ControlCore},
	SamplingControl:        {"adc_ctrl", KindBool, ControlCore},
}

// Kind returns the scalar type of the field.
func (f Field) Kind() Kind { return fields[f].kind }

// Owner returns the context that writes the field.
func (f Field) Owner() Owner { return fields[f].owner }

// IsBoard reports whether the field lives in the board section.
func (f Field) IsBoard() bool { return f >= bankFieldCount && f < fieldCount }

// Accepts reports whether v is a usable setting for the field. Ramp inputs
// must be finite; acceleration and nominal frequency positive, the nominal
// modulation index within (0, 1].
func (f Field) Accepts(v float32) bool {
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return f.Kind() != KindFloat
	}
	switch f {
	case Acceleration, NominalFrequency:
		return v > 0
	case NominalModulationIndex:
		return v > 0 && v <= 1
	}
	return true
}

func (f Field) valid() bool { return f < fieldCount }

func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("field(%d)", uint8(f))
	}
	return fields[f].name
}

// MaxBanks is the number of banks an id can address.
const MaxBanks = 0xff

// ID is a symbolic parameter id: the high byte holds the bank number plus one,
// zero selects the board section; the low byte holds the field.
type ID uint16

const boardPrefix = "board"

// NewID returns the id of a bank field. Banks are numbered from zero.
func NewID(bank int, f Field) ID {
	return ID(uint16(bank+1)<<8 | uint16(f))
}

// BoardID returns the id of a board field.
func BoardID(f Field) ID {
	return ID(f)
}

// Field returns the field part of the id.
func (id ID) Field() Field { return Field(id & 0xff) }

// Bank returns the bank number and false for board ids.
func (id ID) Bank() (int, bool) {
	b := int(id >> 8)
	if b == 0 {
		return 0, false
	}
	return b - 1, true
}

// String returns the symbolic name, e.g. "inv1.freq_req" or "board.vdc".
func (id ID) String() string {
	if bank, ok := id.Bank(); ok {
		return fmt.Sprintf("inv%d.%s", bank+1, id.Field())
	}
	return boardPrefix + "." + id.Field().String()
}

// ParseID resolves a symbolic name produced by ID.String.
func ParseID(name string) (ID, error) {
	prefix, fieldName, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownID, name)
	}

	f, ok := fieldByName(fieldName)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownID, name)
	}

	if prefix == boardPrefix {
		if !f.IsBoard() {
			return 0, fmt.Errorf("%w: %q", ErrUnknownID, name)
		}
		return BoardID(f), nil
	}

	num, found := strings.CutPrefix(prefix, "inv")
	if !found || f.IsBoard() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownID, name)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || n > 255 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownID, name)
	}
	return NewID(n-1, f), nil
}

func fieldByName(name string) (Field, bool) {
	for f := Field(0); f < fieldCount; f++ {
		if fields[f].name == name {
			return f, true
		}
	}
	return 0, false
}
