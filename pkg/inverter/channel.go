// Package inverter describes the inverter channels driven by the control loop.
package inverter

import (
	"errors"
	"fmt"

	"github.com/itohio/govfd/pkg/config"
)

const (
	// LegCount is the number of phase legs of a channel.
	LegCount = 3
	// MaxPin is the highest digital output pin of the board.
	MaxPin = 16
)

// ErrPinMapping is returned for leg pin mappings the board cannot provide.
var ErrPinMapping = errors.New("invalid leg pin mapping")

// PowerState is the state of a channel's power module.
type PowerState uint8

const (
	Inactive PowerState = iota
	Active
)

func (s PowerState) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Direction is the phase sequence of the output.
type Direction uint8

const (
	Forward Direction = iota
	Reverse
)

// DirectionOf converts the stored boolean representation, true meaning reverse.
func DirectionOf(reverse bool) Direction {
	if reverse {
		return Reverse
	}
	return Forward
}

// IsReverse returns the stored boolean representation.
func (d Direction) IsReverse() bool { return d == Reverse }

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Legs maps the channel's legs onto board pins. Each entry is the pin of the
// leg's first switch; the leg occupies Stride consecutive pins from there.
type Legs struct {
	Pins      [LegCount]int
	Duplicate int // Zero when the board has no duplicate leg
	Stride    int
}

// Switches returns every pin used by the channel.
func (l Legs) Switches() []int {
	pins := make([]int, 0, (LegCount+1)*l.Stride)
	add := func(first int) {
		for i := range l.Stride {
			pins = append(pins, first+i)
		}
	}
	for _, p := range l.Pins {
		add(p)
	}
	if l.Duplicate != 0 {
		add(l.Duplicate)
	}
	return pins
}

// Mask returns the bit mask of the channel's pins, bit 0 being pin 1.
func (l Legs) Mask() uint32 {
	var mask uint32
	for _, p := range l.Switches() {
		mask |= 1 << (p - 1)
	}
	return mask
}

// Channel is one inverter leg group and its ramp state. It is owned by the
// control context and mutated once per tick.
type Channel struct {
	Name string
	Bank int
	Legs Legs

	NominalFrequency       float32 // Hz
	NominalModulationIndex float32
	Acceleration           float32 // Hz/s
	RequestedFrequency     float32 // Hz
	RequestedDirection     Direction

	Frequency       float64 // Current output frequency (Hz), published as float32
	ModulationIndex float32 // Current modulation index
	Direction       Direction

	State          PowerState
	RequestedState PowerState

	Phase  float32            // Output angle (rad), [0, 2π)
	Duties [LegCount]float32 // Leg duty cycles, 0..1
}

// New creates a channel for the given bank from static configuration.
func New(bank int, cfg config.ChannelConfig) (*Channel, error) {
	legs, err := mapLegs(cfg)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", cfg.Name, err)
	}

	dir := DirectionOf(cfg.Reverse)
	return &Channel{
		Name:                   cfg.Name,
		Bank:                   bank,
		Legs:                   legs,
		NominalFrequency:       float32(cfg.NominalFrequency),
		NominalModulationIndex: float32(cfg.NominalModulationIndex),
		Acceleration:           float32(cfg.Acceleration),
		RequestedFrequency:     float32(cfg.RequestedFrequency),
		RequestedDirection:     dir,
		Direction:              dir,
		State:                  Inactive,
		RequestedState:         Inactive,
	}, nil
}

// NewSet creates one channel per configuration entry, bank numbers following
// the configuration order. Channels may not share pins.
func NewSet(cfgs []config.ChannelConfig) ([]*Channel, error) {
	channels := make([]*Channel, 0, len(cfgs))
	owner := make(map[int]string)

	for i, cfg := range cfgs {
		ch, err := New(i, cfg)
		if err != nil {
			return nil, err
		}
		for _, p := range ch.Legs.Switches() {
			if other, used := owner[p]; used {
				return nil, fmt.Errorf("channel %s: %w: pin %d already used by %s", ch.Name, ErrPinMapping, p, other)
			}
			owner[p] = ch.Name
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

func mapLegs(cfg config.ChannelConfig) (Legs, error) {
	if cfg.LegSwitchCount < 1 {
		return Legs{}, fmt.Errorf("%w: leg switch count %d", ErrPinMapping, cfg.LegSwitchCount)
	}

	legs := Legs{Stride: cfg.LegSwitchCount}
	legs.Pins[0] = cfg.FirstPin
	for i := 1; i < LegCount; i++ {
		legs.Pins[i] = legs.Pins[i-1] + cfg.LegSwitchCount
	}
	last := legs.Pins[LegCount-1]
	if cfg.DuplicateLeg {
		legs.Duplicate = last + cfg.LegSwitchCount
		last = legs.Duplicate
	}

	if cfg.FirstPin < 1 || last+cfg.LegSwitchCount-1 > MaxPin {
		return Legs{}, fmt.Errorf("%w: pins %d..%d outside 1..%d", ErrPinMapping, cfg.FirstPin, last+cfg.LegSwitchCount-1, MaxPin)
	}

	return legs, nil
}

// Transitioning reports whether a power-module transition is still in flight.
func (c *Channel) Transitioning() bool {
	return c.RequestedState != c.State
}

// Stop clears the output of an inactive channel.
func (c *Channel) Stop() {
	c.Frequency = 0
	c.ModulationIndex = 0
	c.Phase = 0
	for i := range c.Duties {
		c.Duties[i] = 0
	}
}
