package adc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/govfd/pkg/adcmode"
	"github.com/itohio/govfd/pkg/config"
)

// DefaultBufferSize is the default size of the samples channel.
const DefaultBufferSize = 64

var (
	// ErrRunning is returned when the trigger is changed without stopping sampling first.
	ErrRunning = errors.New("sampling is running")
	// ErrInvalidRate is returned for non-positive sample rates.
	ErrInvalidRate = errors.New("invalid sample rate")
	// ErrOpen is returned by Open on a sampler that is already open.
	ErrOpen = errors.New("sampler already open")
	// ErrClosed is returned by Open on a sampler that has been closed.
	ErrClosed = errors.New("sampler closed")
)

// Sim simulates the board ADC. Samples are produced on a ticker at the
// configured trigger rate while sampling runs.
//
// Stop invalidates every sample taken before it by bumping the generation, so
// no sample produced across a reconfiguration is delivered as current.
type Sim struct {
	cfg  config.SimConfig
	conv Converter

	samples chan Sample
	reconf  chan struct{}
	done    chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	open   bool
	start  time.Time

	running atomic.Bool
	gen     atomic.Uint32
	trigger atomic.Uint32
	rate    atomic.Uint64
}

// NewSim creates a stopped simulated sampler, free running at rate.
func NewSim(cfg config.SimConfig, conv Converter, rate float64) *Sim {
	s := &Sim{
		cfg:     cfg,
		conv:    conv,
		samples: make(chan Sample, DefaultBufferSize),
		reconf:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.trigger.Store(uint32(adcmode.FreeRunning))
	s.rate.Store(math.Float64bits(rate))
	return s
}

// Open starts the conversion timer.
func (s *Sim) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return ErrOpen
	}
	if s.cancel != nil {
		return ErrClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.open = true
	s.start = time.Now()

	go s.produce(ctx)

	return nil
}

// Close stops the conversion timer and closes the samples channel.
func (s *Sim) Close() error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = false
	s.cancel()
	s.mu.Unlock()

	s.running.Store(false)
	<-s.done
	return nil
}

// Samples returns the channel for reading samples.
func (s *Sim) Samples() <-chan Sample {
	return s.samples
}

// Generation returns the current sampling generation.
func (s *Sim) Generation() uint32 {
	return s.gen.Load()
}

// Running reports whether sampling runs.
func (s *Sim) Running() bool {
	return s.running.Load()
}

// Trigger returns the configured trigger and rate.
func (s *Sim) Trigger() (adcmode.Trigger, float64) {
	return adcmode.Trigger(s.trigger.Load()), math.Float64frombits(s.rate.Load())
}

// Stop suspends sampling. Samples already queued become stale.
func (s *Sim) Stop() error {
	s.running.Store(false)
	s.gen.Add(1)
	return nil
}

// SetTrigger changes the trigger source and rate. Sampling must be stopped.
func (s *Sim) SetTrigger(trigger adcmode.Trigger, rate float64) error {
	if s.running.Load() {
		return ErrRunning
	}
	if !(rate > 0) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	s.trigger.Store(uint32(trigger))
	s.rate.Store(math.Float64bits(rate))

	select {
	case s.reconf <- struct{}{}:
	default:
	}
	return nil
}

// Run resumes sampling.
func (s *Sim) Run() error {
	s.running.Store(true)
	return nil
}

func (s *Sim) period() time.Duration {
	rate := math.Float64frombits(s.rate.Load())
	p := time.Duration(float64(time.Second) / rate)
	if p < time.Microsecond {
		p = time.Microsecond
	}
	return p
}

func (s *Sim) produce(ctx context.Context) {
	defer close(s.done)
	defer close(s.samples)

	ticker := time.NewTicker(s.period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.reconf:
			ticker.Reset(s.period())
		case now := <-ticker.C:
			gen := s.gen.Load()
			if !s.running.Load() {
				continue
			}
			sample := s.generate(now, gen)
			if s.gen.Load() != gen {
				continue
			}
			select {
			case s.samples <- sample:
			default:
				// Channel full, skip
			}
		}
	}
}

func (s *Sim) generate(now time.Time, gen uint32) Sample {
	t := now.Sub(s.start).Seconds()

	noise := (math.Sin(t*1013) + math.Cos(t*1297)) * s.cfg.NoiseLevel * 0.5
	sample := Sample{
		Timestamp:  now,
		Generation: gen,
		Trigger:    adcmode.Trigger(s.trigger.Load()),
	}
	sample.Counts[DCLink] = s.conv.DCLinkCounts(float32(s.cfg.DCLinkVoltage + noise))

	// Phase currents idle at mid scale.
	mid := s.conv.vref / 2
	for i := CurrentU; i <= CurrentW; i++ {
		sample.Counts[i] = s.conv.Counts(mid + float32(noise)*0.001)
	}

	return sample
}
