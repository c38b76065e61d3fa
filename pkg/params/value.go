package params

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Value is a typed scalar held by the store.
type Value struct {
	kind Kind
	bits uint32
}

// Float wraps a floating point value.
func Float(f float32) Value {
	return Value{kind: KindFloat, bits: math32.Float32bits(f)}
}

// Bool wraps a boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

// Kind returns the scalar type.
func (v Value) Kind() Kind { return v.kind }

// Float returns the value as float32. Booleans read as 0 or 1.
func (v Value) Float() float32 {
	if v.kind == KindBool {
		return float32(v.bits)
	}
	return math32.Float32frombits(v.bits)
}

// Bool returns the value as bool. Floats read as true when non-zero.
func (v Value) Bool() bool {
	if v.kind == KindBool {
		return v.bits != 0
	}
	return math32.Float32frombits(v.bits) != 0
}

func (v Value) String() string {
	if v.kind == KindBool {
		if v.bits != 0 {
			return "1"
		}
		return "0"
	}
	return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
}

// ParseValue parses text into a value of the given kind.
// Booleans accept 0/1, true/false, on/off and fwd/rev.
func ParseValue(kind Kind, text string) (Value, error) {
	text = strings.TrimSpace(text)
	if kind == KindBool {
		switch strings.ToLower(text) {
		case "1", "true", "on", "rev":
			return Bool(true), nil
		case "0", "false", "off", "fwd":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("invalid boolean %q", text)
	}

	f, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return Float(float32(f)), nil
}
