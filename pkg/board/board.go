// Package board abstracts the power board's digital pins, PWM output stage
// and duty registers.
package board

import (
	"errors"

	"github.com/itohio/govfd/pkg/inverter"
)

// AllPins selects every output pin of the board.
const AllPins uint32 = 1<<inverter.MaxPin - 1

// ErrPin is returned for pins the board does not have.
var ErrPin = errors.New("invalid pin")

// OutputStage enables and disables physical switching. It is used at
// initialization and on demand, never from the control tick.
type OutputStage interface {
	Start(mask uint32, flag bool) error
	Stop(mask uint32, flag bool) error
}

// Pins configures pin directions and alternate functions at initialization.
type Pins interface {
	Init() error
	SetInputPortGPIO() error
	SetOutputPortGPIO(value uint32) error
	SetAsIOPin(pin int, high bool) error
	SetAsPWMPin(pin int) error
}

// DutySink receives leg duty cycles from the control tick. Implementations
// must not block or allocate.
type DutySink interface {
	SetDuty(pin int, duty float32)
}

// ValidPin reports whether pin is a board output pin.
func ValidPin(pin int) bool {
	return pin >= 1 && pin <= inverter.MaxPin
}
