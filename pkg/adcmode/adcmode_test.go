package adcmode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

//go:generate mockgen -destination mock_sampler_test.go -package adcmode -write_package_comment=false github.com/itohio/govfd/pkg/adcmode Sampler

const (
	controlRate    = 20000
	monitoringRate = 1000
)

func TestEvaluate_EntersControlMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	sampler := NewMockSampler(ctrl)

	gomock.InOrder(
		sampler.EXPECT().Stop().Return(nil),
		sampler.EXPECT().SetTrigger(External, float64(controlRate)).Return(nil),
		sampler.EXPECT().Run().Return(nil),
	)

	c := New(sampler, controlRate, monitoringRate)
	changed, err := c.Evaluate(true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Control, c.Mode())
	assert.Equal(t, uint64(1), c.Transitions())
}

func TestEvaluate_ReturnsToMonitoringMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	sampler := NewMockSampler(ctrl)

	gomock.InOrder(
		sampler.EXPECT().Stop().Return(nil),
		sampler.EXPECT().SetTrigger(External, float64(controlRate)).Return(nil),
		sampler.EXPECT().Run().Return(nil),
		sampler.EXPECT().Stop().Return(nil),
		sampler.EXPECT().SetTrigger(FreeRunning, float64(monitoringRate)).Return(nil),
		sampler.EXPECT().Run().Return(nil),
	)

	c := New(sampler, controlRate, monitoringRate)
	_, err := c.Evaluate(true)
	require.NoError(t, err)
	changed, err := c.Evaluate(false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Monitoring, c.Mode())
	assert.Equal(t, uint64(2), c.Transitions())
}

// A run of ticks with unchanged activity reconfigures the sampler at most once.
func TestEvaluate_NoRedundantReconfiguration(t *testing.T) {
	ctrl := gomock.NewController(t)
	sampler := NewMockSampler(ctrl)

	sampler.EXPECT().Stop().Return(nil).Times(3)
	sampler.EXPECT().SetTrigger(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	sampler.EXPECT().Run().Return(nil).Times(3)

	activity := []bool{
		false, false, false, // monitoring already, nothing to do
		true, true, true, true, // one transition
		false, false, // one transition
		true, // one transition
	}

	c := New(sampler, controlRate, monitoringRate)
	changes := 0
	for _, active := range activity {
		changed, err := c.Evaluate(active)
		require.NoError(t, err)
		if changed {
			changes++
		}
	}
	assert.Equal(t, 3, changes)
	assert.Equal(t, Control, c.Mode())
}

func TestEvaluate_StopFailureKeepsMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	sampler := NewMockSampler(ctrl)

	boom := errors.New("adc busy")
	gomock.InOrder(
		sampler.EXPECT().Stop().Return(boom),
		sampler.EXPECT().Stop().Return(nil),
		sampler.EXPECT().SetTrigger(External, float64(controlRate)).Return(nil),
		sampler.EXPECT().Run().Return(nil),
	)

	c := New(sampler, controlRate, monitoringRate)
	changed, err := c.Evaluate(true)
	assert.ErrorIs(t, err, boom)
	assert.False(t, changed)
	assert.Equal(t, Monitoring, c.Mode())

	// retried on the next tick
	changed, err = c.Evaluate(true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Control, c.Mode())
}

func TestEvaluate_TriggerFailureResumesSampling(t *testing.T) {
	ctrl := gomock.NewController(t)
	sampler := NewMockSampler(ctrl)

	boom := errors.New("no timer")
	gomock.InOrder(
		sampler.EXPECT().Stop().Return(nil),
		sampler.EXPECT().SetTrigger(External, float64(controlRate)).Return(boom),
		sampler.EXPECT().Run().Return(nil),
	)

	c := New(sampler, controlRate, monitoringRate)
	changed, err := c.Evaluate(true)
	assert.ErrorIs(t, err, boom)
	assert.False(t, changed)
	assert.Equal(t, Monitoring, c.Mode())
	assert.Equal(t, uint64(0), c.Transitions())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "monitoring", Monitoring.String())
	assert.Equal(t, "control", Control.String())
	assert.Equal(t, "external", External.String())
	assert.Equal(t, "free-running", FreeRunning.String())
}
