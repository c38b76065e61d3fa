package board

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/itohio/govfd/pkg/inverter"
)

// PinMode is the function a simulated pin is configured for.
type PinMode uint8

const (
	Unconfigured PinMode = iota
	IO
	PWM
)

func (m PinMode) String() string {
	switch m {
	case IO:
		return "io"
	case PWM:
		return "pwm"
	default:
		return "unconfigured"
	}
}

// Sim is an in-memory board implementing Pins, OutputStage and DutySink.
type Sim struct {
	mu          sync.Mutex
	initialized bool
	inputGPIO   bool
	outputLatch uint32
	modes       [inverter.MaxPin + 1]PinMode
	levels      uint32

	enabled atomic.Uint32
	flag    atomic.Bool
	duties  [inverter.MaxPin + 1]atomic.Uint32
}

var (
	_ Pins        = (*Sim)(nil)
	_ OutputStage = (*Sim)(nil)
	_ DutySink    = (*Sim)(nil)
)

// NewSim creates an unconfigured simulated board.
func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	for i := range s.modes {
		s.modes[i] = Unconfigured
	}
	s.levels = 0
	return nil
}

func (s *Sim) SetInputPortGPIO() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("input port: pins not initialized")
	}
	s.inputGPIO = true
	return nil
}

func (s *Sim) SetOutputPortGPIO(value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("output port: pins not initialized")
	}
	s.outputLatch = value & AllPins
	return nil
}

func (s *Sim) SetAsIOPin(pin int, high bool) error {
	if !ValidPin(pin) {
		return fmt.Errorf("%w: %d", ErrPin, pin)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.modes[pin] = IO
	if high {
		s.levels |= 1 << (pin - 1)
	} else {
		s.levels &^= 1 << (pin - 1)
	}
	return nil
}

func (s *Sim) SetAsPWMPin(pin int) error {
	if !ValidPin(pin) {
		return fmt.Errorf("%w: %d", ErrPin, pin)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.modes[pin] = PWM
	return nil
}

// Mode returns the configured function of pin.
func (s *Sim) Mode(pin int) PinMode {
	if !ValidPin(pin) {
		return Unconfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modes[pin]
}

// Level returns the level of an IO pin.
func (s *Sim) Level(pin int) bool {
	if !ValidPin(pin) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels&(1<<(pin-1)) != 0
}

// OutputLatch returns the output port value.
func (s *Sim) OutputLatch() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputLatch
}

func (s *Sim) Start(mask uint32, flag bool) error {
	mask &= AllPins
	for {
		old := s.enabled.Load()
		if s.enabled.CompareAndSwap(old, old|mask) {
			break
		}
	}
	s.flag.Store(flag)
	return nil
}

func (s *Sim) Stop(mask uint32, flag bool) error {
	mask &= AllPins
	for {
		old := s.enabled.Load()
		if s.enabled.CompareAndSwap(old, old&^mask) {
			break
		}
	}
	s.flag.Store(flag)
	return nil
}

// Enabled returns the mask of switching outputs.
func (s *Sim) Enabled() uint32 {
	return s.enabled.Load()
}

// SetDuty stores the duty of a PWM pin. Unknown pins are ignored.
func (s *Sim) SetDuty(pin int, duty float32) {
	if !ValidPin(pin) {
		return
	}
	s.duties[pin].Store(math32.Float32bits(duty))
}

// Duty returns the last duty written to pin.
func (s *Sim) Duty(pin int) float32 {
	if !ValidPin(pin) {
		return 0
	}
	return math32.Float32frombits(s.duties[pin].Load())
}
