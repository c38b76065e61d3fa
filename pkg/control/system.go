package control

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/itohio/govfd/pkg/activation"
	"github.com/itohio/govfd/pkg/adc"
	"github.com/itohio/govfd/pkg/adcmode"
	"github.com/itohio/govfd/pkg/board"
	"github.com/itohio/govfd/pkg/config"
	"github.com/itohio/govfd/pkg/inverter"
	"github.com/itohio/govfd/pkg/params"
)

// ErrSamplerClosed is returned by Run when the sample stream ends.
var ErrSamplerClosed = errors.New("sampler closed")

// Source is the sampling subsystem feeding the control loop.
type Source interface {
	adcmode.Sampler
	Samples() <-chan adc.Sample
	// Generation is bumped by Stop; samples of older generations are stale.
	Generation() uint32
}

// Hardware bundles the board interfaces the control loop drives.
type Hardware struct {
	Pins    board.Pins
	Output  board.OutputStage
	Sampler Source
	Duties  board.DutySink
}

// System is an initialized control loop and the parameter table it shares
// with the companion.
type System struct {
	cfg      *config.Config
	hw       Hardware
	store    *params.Store
	channels []*inverter.Channel
	tick     *Tick
	stale    atomic.Uint64
	ticks    atomic.Uint64
}

// Init validates cfg, brings up the board and starts sampling in monitoring
// mode. Any configuration or pin mapping fault is returned and the loop must
// not be started.
func Init(cfg *config.Config, hw Hardware) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	channels, err := inverter.NewSet(cfg.Channels)
	if err != nil {
		return nil, err
	}
	if err := checkRelays(cfg.Relays, channels); err != nil {
		return nil, err
	}

	store := params.New(cfg.Params.Banks)
	seed(store, channels)

	if err := initPins(hw.Pins, cfg.Relays, channels); err != nil {
		return nil, err
	}
	if err := hw.Output.Start(board.AllPins, false); err != nil {
		return nil, fmt.Errorf("start output stage: %w", err)
	}

	if err := hw.Sampler.Stop(); err != nil {
		return nil, fmt.Errorf("stop sampling: %w", err)
	}
	if err := hw.Sampler.SetTrigger(adcmode.FreeRunning, cfg.Sampling.MonitoringFrequency); err != nil {
		return nil, fmt.Errorf("set monitoring trigger: %w", err)
	}
	if err := hw.Sampler.Run(); err != nil {
		return nil, fmt.Errorf("start sampling: %w", err)
	}

	mode := adcmode.New(hw.Sampler, cfg.Sampling.ControlFrequency, cfg.Sampling.MonitoringFrequency)
	dt := cfg.ControlPeriod().Seconds()

	return &System{
		cfg:      cfg,
		hw:       hw,
		store:    store,
		channels: channels,
		tick:     NewTick(store, channels, mode, hw.Duties, adc.NewConverter(cfg.ADC), dt),
	}, nil
}

func checkRelays(relays []int, channels []*inverter.Channel) error {
	used := make(map[int]string)
	for _, ch := range channels {
		for _, p := range ch.Legs.Switches() {
			used[p] = ch.Name
		}
	}
	for _, r := range relays {
		if !board.ValidPin(r) {
			return fmt.Errorf("relay: %w: pin %d", inverter.ErrPinMapping, r)
		}
		if owner, ok := used[r]; ok {
			return fmt.Errorf("relay: %w: pin %d already used by %s", inverter.ErrPinMapping, r, owner)
		}
		used[r] = "relay"
	}
	return nil
}

// seed publishes the configured channel values before either context runs.
func seed(store *params.Store, channels []*inverter.Channel) {
	control := store.Control()
	companion := store.Companion()

	for _, ch := range channels {
		b := ch.Bank
		companion.SetNominalFrequency(b, ch.NominalFrequency)
		companion.SetNominalModulationIndex(b, ch.NominalModulationIndex)
		companion.SetAcceleration(b, ch.Acceleration)
		companion.SetRequestedFrequency(b, ch.RequestedFrequency)
		companion.SetRequestedDirection(b, ch.RequestedDirection.IsReverse())

		control.PublishDirection(b, ch.Direction.IsReverse())
		control.PublishState(b, false)
	}
}

func initPins(pins board.Pins, relays []int, channels []*inverter.Channel) error {
	if err := pins.Init(); err != nil {
		return fmt.Errorf("init pins: %w", err)
	}
	if err := pins.SetInputPortGPIO(); err != nil {
		return fmt.Errorf("init input port: %w", err)
	}
	if err := pins.SetOutputPortGPIO(0); err != nil {
		return fmt.Errorf("init output port: %w", err)
	}
	for _, r := range relays {
		if err := pins.SetAsIOPin(r, true); err != nil {
			return fmt.Errorf("relay %d: %w", r, err)
		}
	}
	for _, ch := range channels {
		for _, p := range ch.Legs.Switches() {
			if err := pins.SetAsPWMPin(p); err != nil {
				return fmt.Errorf("channel %s: %w", ch.Name, err)
			}
		}
	}
	return nil
}

// Store returns the shared parameter table.
func (s *System) Store() *params.Store { return s.store }

// Channels returns the physical channels. They belong to the control context.
func (s *System) Channels() []*inverter.Channel { return s.channels }

// Request returns the activation request slot of bank.
func (s *System) Request(bank int) *activation.Request { return s.tick.Request(bank) }

// Stats returns the number of processed and dropped stale samples.
func (s *System) Stats() (ticks, stale uint64) {
	return s.ticks.Load(), s.stale.Load()
}

// Run executes the control loop until ctx is done or the sampler closes.
// Samples taken before the latest sampler reconfiguration are dropped.
func (s *System) Run(ctx context.Context) error {
	samples := s.hw.Sampler.Samples()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-samples:
			if !ok {
				return ErrSamplerClosed
			}
			if sample.Generation != s.hw.Sampler.Generation() {
				s.stale.Add(1)
				continue
			}
			if err := s.tick.Step(sample); err != nil {
				log.Printf("control: %v", err)
			}
			s.ticks.Add(1)
		}
	}
}

// Shutdown stops switching and sampling.
func (s *System) Shutdown() error {
	var errs []error
	if err := s.hw.Output.Stop(board.AllPins, false); err != nil {
		errs = append(errs, fmt.Errorf("stop output stage: %w", err))
	}
	if err := s.hw.Sampler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop sampling: %w", err))
	}
	return errors.Join(errs...)
}
