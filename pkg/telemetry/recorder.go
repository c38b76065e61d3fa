// Package telemetry records periodic snapshots of the parameter table.
package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/itohio/govfd/pkg/config"
	"github.com/itohio/govfd/pkg/params"
)

// Snapshot is the parameter table at one instant.
type Snapshot struct {
	Timestamp time.Time
	Entries   []params.Entry
}

// Sink persists snapshots.
type Sink interface {
	Record(s Snapshot) error
	Flush() error
	Close() error
}

var _ Sink = (*SQLite)(nil)

// Recorder samples the parameter table on an interval. It keeps the snapshots
// of the last window in memory, ordered oldest first, and forwards each
// snapshot to an optional sink.
type Recorder struct {
	store    *params.Store
	sink     Sink
	interval time.Duration
	window   time.Duration

	mu       sync.RWMutex
	history  []Snapshot
	shutdown bool

	callbacks []func(history []Snapshot)
	cbMu      sync.RWMutex
}

// New creates a recorder. sink may be nil.
func New(store *params.Store, cfg config.RecordingConfig, sink Sink) *Recorder {
	return &Recorder{
		store:    store,
		sink:     sink,
		interval: cfg.Interval,
		window:   cfg.Window,
	}
}

// OnUpdate registers a callback invoked after every captured snapshot.
func (r *Recorder) OnUpdate(cb func(history []Snapshot)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// History returns a copy of the in-memory snapshots.
func (r *Recorder) History() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Snapshot(nil), r.history...)
}

// Latest returns the newest snapshot.
func (r *Recorder) Latest() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.history) == 0 {
		return Snapshot{}, false
	}
	return r.history[len(r.history)-1], true
}

// Capture takes a snapshot stamped now.
func (r *Recorder) Capture(now time.Time) Snapshot {
	s := Snapshot{Timestamp: now, Entries: r.store.Snapshot(nil)}

	r.mu.Lock()
	r.history = append(r.history, s)

	// Drop snapshots outside the window.
	cutoff := now.Add(-r.window)
	drop := 0
	for r.window > 0 && drop < len(r.history) && !r.history[drop].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		r.history = append(r.history[:0], r.history[drop:]...)
	}

	shouldNotify := !r.shutdown
	var history []Snapshot
	if shouldNotify {
		history = append([]Snapshot(nil), r.history...)
	}
	r.mu.Unlock()

	if r.sink != nil {
		if err := r.sink.Record(s); err != nil {
			log.Printf("telemetry: record: %v", err)
		}
	}

	if shouldNotify {
		r.notify(history)
	}
	return s
}

func (r *Recorder) notify(history []Snapshot) {
	r.cbMu.RLock()
	defer r.cbMu.RUnlock()
	for _, cb := range r.callbacks {
		cb(history)
	}
}

// Run captures snapshots until ctx is done, then flushes the sink. Callbacks
// are not invoked after Run returns.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.shutdown = true
			r.mu.Unlock()

			if r.sink != nil {
				return r.sink.Flush()
			}
			return nil
		case now := <-ticker.C:
			r.Capture(now)
		}
	}
}
