// Package adc provides board ADC samples, their conversion to physical
// values and a simulated sampler.
package adc

import (
	"time"

	"github.com/itohio/govfd/pkg/adcmode"
	"github.com/itohio/govfd/pkg/config"
)

// Conversion slots of one sample.
const (
	DCLink = iota
	CurrentU
	CurrentV
	CurrentW
	Channels
)

// Sample is one conversion sequence.
type Sample struct {
	Timestamp  time.Time
	Generation uint32 // Sampler generation the sample was taken in
	Trigger    adcmode.Trigger
	Counts     [Channels]uint16
}

// Converter turns raw counts into volts.
type Converter struct {
	fullScale float32
	vref      float32
	gain      float32
}

// NewConverter creates a converter for the configured ADC.
func NewConverter(cfg config.ADCConfig) Converter {
	bits := cfg.Resolution
	if bits <= 0 || bits > 16 {
		bits = 16
	}
	gain := cfg.DCLinkGain
	if gain <= 0 {
		gain = 1
	}
	return Converter{
		fullScale: float32(uint32(1)<<bits - 1),
		vref:      float32(cfg.VRef),
		gain:      float32(gain),
	}
}

// Volts converts a count to the voltage at the ADC pin.
func (c Converter) Volts(count uint16) float32 {
	return float32(count) / c.fullScale * c.vref
}

// Counts converts a pin voltage to a count, clamped to the ADC range.
func (c Converter) Counts(volts float32) uint16 {
	v := volts / c.vref * c.fullScale
	switch {
	case !(v > 0):
		return 0
	case v > c.fullScale:
		return uint16(c.fullScale)
	}
	return uint16(v + 0.5)
}

// DCLink returns the DC link voltage measured by s.
func (c Converter) DCLink(s Sample) float32 {
	return c.Volts(s.Counts[DCLink]) * c.gain
}

// DCLinkCounts returns the count the DC link slot reads for volts.
func (c Converter) DCLinkCounts(volts float32) uint16 {
	return c.Counts(volts / c.gain)
}
