package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSim_PinConfiguration(t *testing.T) {
	sim := NewSim()

	assert.Error(t, sim.SetInputPortGPIO(), "ports need initialized pins")
	assert.Error(t, sim.SetOutputPortGPIO(0))

	require.NoError(t, sim.Init())
	require.NoError(t, sim.SetInputPortGPIO())
	require.NoError(t, sim.SetOutputPortGPIO(0xffffff))
	assert.Equal(t, AllPins, sim.OutputLatch())

	require.NoError(t, sim.SetAsIOPin(15, true))
	require.NoError(t, sim.SetAsPWMPin(1))
	assert.Equal(t, IO, sim.Mode(15))
	assert.True(t, sim.Level(15))
	assert.Equal(t, PWM, sim.Mode(1))
	assert.Equal(t, Unconfigured, sim.Mode(2))

	require.NoError(t, sim.SetAsIOPin(15, false))
	assert.False(t, sim.Level(15))
}

func TestSim_InvalidPins(t *testing.T) {
	sim := NewSim()
	require.NoError(t, sim.Init())

	for _, pin := range []int{0, -1, 17} {
		assert.ErrorIs(t, sim.SetAsIOPin(pin, true), ErrPin)
		assert.ErrorIs(t, sim.SetAsPWMPin(pin), ErrPin)
		sim.SetDuty(pin, 0.5)
		assert.Equal(t, float32(0), sim.Duty(pin))
	}
}

func TestSim_OutputStage(t *testing.T) {
	sim := NewSim()

	require.NoError(t, sim.Start(0x3f, false))
	require.NoError(t, sim.Start(0xfc0, false))
	assert.Equal(t, uint32(0xfff), sim.Enabled())

	require.NoError(t, sim.Stop(0x3f, false))
	assert.Equal(t, uint32(0xfc0), sim.Enabled())

	require.NoError(t, sim.Start(0xffffffff, false))
	assert.Equal(t, AllPins, sim.Enabled())
	require.NoError(t, sim.Stop(AllPins, false))
	assert.Zero(t, sim.Enabled())
}

func TestSim_Duty(t *testing.T) {
	sim := NewSim()
	sim.SetDuty(3, 0.25)
	assert.Equal(t, float32(0.25), sim.Duty(3))
	assert.Equal(t, "pwm", PWM.String())
}
