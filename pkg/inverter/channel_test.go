package inverter

import (
	"testing"

	"github.com/itohio/govfd/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func channelConfig(first int, duplicate bool) config.ChannelConfig {
	return config.ChannelConfig{
		Name:                   "inv",
		FirstPin:               first,
		LegSwitchCount:         2,
		DuplicateLeg:           duplicate,
		NominalFrequency:       50,
		NominalModulationIndex: 0.9,
		Acceleration:           10,
		RequestedFrequency:     20,
		Reverse:                true,
	}
}

func TestNew_LegMapping(t *testing.T) {
	tests := []struct {
		name      string
		first     int
		duplicate bool
		wantPins  [LegCount]int
		wantDup   int
		wantMask  uint32
	}{
		{
			name:     "first channel",
			first:    1,
			wantPins: [LegCount]int{1, 3, 5},
			wantMask: 0x003f,
		},
		{
			name:     "second channel",
			first:    7,
			wantPins: [LegCount]int{7, 9, 11},
			wantMask: 0x0fc0,
		},
		{
			name:      "with duplicate leg",
			first:     1,
			duplicate: true,
			wantPins:  [LegCount]int{1, 3, 5},
			wantDup:   7,
			wantMask:  0x00ff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := New(0, channelConfig(tt.first, tt.duplicate))
			require.NoError(t, err)
			assert.Equal(t, tt.wantPins, ch.Legs.Pins)
			assert.Equal(t, tt.wantDup, ch.Legs.Duplicate)
			assert.Equal(t, tt.wantMask, ch.Legs.Mask())
		})
	}
}

func TestNew_InitialState(t *testing.T) {
	ch, err := New(1, channelConfig(1, false))
	require.NoError(t, err)

	assert.Equal(t, 1, ch.Bank)
	assert.Equal(t, Inactive, ch.State)
	assert.Equal(t, Inactive, ch.RequestedState)
	assert.Equal(t, Reverse, ch.Direction)
	assert.Equal(t, Reverse, ch.RequestedDirection)
	assert.Equal(t, float32(20), ch.RequestedFrequency)
	assert.Zero(t, ch.Frequency)
	assert.False(t, ch.Transitioning())
}

func TestNew_PinOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ChannelConfig
	}{
		{name: "zero first pin", cfg: channelConfig(0, false)},
		{name: "past last pin", cfg: channelConfig(13, false)},
		{name: "duplicate past last pin", cfg: channelConfig(11, true)},
		{
			name: "zero stride",
			cfg: func() config.ChannelConfig {
				c := channelConfig(1, false)
				c.LegSwitchCount = 0
				return c
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(0, tt.cfg)
			assert.ErrorIs(t, err, ErrPinMapping)
		})
	}
}

func TestNewSet(t *testing.T) {
	channels, err := NewSet(config.Default().Channels)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, 0, channels[0].Bank)
	assert.Equal(t, 1, channels[1].Bank)
	assert.Equal(t, "inv2", channels[1].Name)
}

func TestNewSet_Overlap(t *testing.T) {
	a := channelConfig(1, true) // uses pins 1..8
	b := channelConfig(7, false)
	b.Name = "other"

	_, err := NewSet([]config.ChannelConfig{a, b})
	assert.ErrorIs(t, err, ErrPinMapping)
}

func TestChannel_Stop(t *testing.T) {
	ch, err := New(0, channelConfig(1, false))
	require.NoError(t, err)

	ch.Frequency = 3
	ch.ModulationIndex = 0.1
	ch.Phase = 1
	ch.Duties = [LegCount]float32{0.5, 0.6, 0.4}
	ch.Stop()

	assert.Zero(t, ch.Frequency)
	assert.Zero(t, ch.ModulationIndex)
	assert.Zero(t, ch.Phase)
	assert.Equal(t, [LegCount]float32{}, ch.Duties)
}
