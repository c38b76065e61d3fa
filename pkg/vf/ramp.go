// Package vf generates the open-loop volts-per-hertz output of a channel.
package vf

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/itohio/govfd/pkg/inverter"
)

const (
	twoPi      = 2 * math32.Pi
	legSpacing = twoPi / inverter.LegCount

	// snapSlack absorbs the float64 rounding a ramp accumulates, so that a
	// whole number of steps lands on the target. It is far below the float32
	// resolution of the published frequency.
	snapSlack = 1e-9
)

// Advance moves the channel one tick of dt seconds along its ramp.
//
// The output frequency moves toward the requested frequency by at most
// Acceleration*dt. While a direction reversal or a deactivation is pending the
// target is zero, and the new direction is committed only at standstill.
func Advance(ch *inverter.Channel, dt float64) {
	ch.Frequency = step(ch.Frequency, target(ch), float64(ch.Acceleration)*dt)

	if ch.Frequency == 0 && ch.Direction != ch.RequestedDirection {
		ch.Direction = ch.RequestedDirection
	}

	f := float32(ch.Frequency)
	ch.ModulationIndex = ModulationIndex(f, ch.NominalFrequency, ch.NominalModulationIndex)
	ch.Phase = advancePhase(ch.Phase, f, float32(dt))
	Duties(&ch.Duties, ch.Phase, ch.ModulationIndex, ch.Direction)
}

// ModulationIndex returns the modulation index for output frequency f. It
// rises linearly up to the nominal frequency and saturates above it. Without
// a usable nominal frequency there is no V/F law and the output stays at zero.
func ModulationIndex(f, nominalFrequency, nominalIndex float32) float32 {
	if !(nominalFrequency > 0) {
		return 0
	}
	if f >= nominalFrequency {
		return nominalIndex
	}
	return nominalIndex * (f / nominalFrequency)
}

// Duties fills the leg duty cycles for output angle theta. Reverse rotation
// swaps the second and third legs.
func Duties(duties *[inverter.LegCount]float32, theta, m float32, dir inverter.Direction) {
	for k := range inverter.LegCount {
		leg := k
		if dir == inverter.Reverse && k != 0 {
			leg = inverter.LegCount - k
		}
		duties[leg] = 0.5 + 0.5*m*math32.Sin(theta-float32(k)*legSpacing)
	}
}

func target(ch *inverter.Channel) float64 {
	if ch.RequestedState == inverter.Inactive || ch.Direction != ch.RequestedDirection {
		return 0
	}
	f := ch.RequestedFrequency
	if math32.IsNaN(f) {
		return ch.Frequency
	}
	return float64(math32.Abs(f))
}

func step(f, target, delta float64) float64 {
	if !(delta > 0) {
		return f
	}
	diff := target - f
	if math.Abs(diff) <= delta+delta*snapSlack {
		return target
	}
	if diff > 0 {
		return f + delta
	}
	return f - delta
}

func advancePhase(theta, f, dt float32) float32 {
	theta += twoPi * f * dt
	if theta >= twoPi || theta < 0 {
		theta = math32.Mod(theta, twoPi)
		if theta < 0 {
			theta += twoPi
		}
	}
	return theta
}
