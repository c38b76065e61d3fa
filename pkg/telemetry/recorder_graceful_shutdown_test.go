package telemetry

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/govfd/pkg/params"
)

// TestRecorder_GracefulShutdown tests that Run flushes the sink and stops
// invoking callbacks once its context is cancelled.
func TestRecorder_GracefulShutdown(t *testing.T) {
	sink := &memorySink{}
	r := New(params.New(2), recordingConfig(), sink)

	var updates atomic.Int64
	r.OnUpdate(func([]Snapshot) { updates.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return updates.Load() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return within timeout")
	}

	_, flushes := sink.counts()
	assert.Equal(t, 1, flushes)

	before := updates.Load()
	r.Capture(time.Now())
	assert.Equal(t, before, updates.Load(), "no callbacks after shutdown")
}
