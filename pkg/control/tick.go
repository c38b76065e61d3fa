// Package control runs the per-sample control loop of the inverter channels.
package control

import (
	"fmt"

	"github.com/itohio/govfd/pkg/activation"
	"github.com/itohio/govfd/pkg/adc"
	"github.com/itohio/govfd/pkg/adcmode"
	"github.com/itohio/govfd/pkg/board"
	"github.com/itohio/govfd/pkg/inverter"
	"github.com/itohio/govfd/pkg/params"
	"github.com/itohio/govfd/pkg/vf"
)

// Tick is the control loop body, invoked once per ADC sample. It holds the
// control context's state and must not block or allocate.
type Tick struct {
	store    *params.Store
	port     *params.ControlPort
	gate     *activation.Gate
	mode     *adcmode.Controller
	conv     adc.Converter
	duties   board.DutySink
	dt       float64
	banks    []*inverter.Channel // Indexed by bank, nil for store-only banks
	channels []*inverter.Channel
	requests []activation.Request
	ticks    uint64
}

// NewTick creates the loop body for channels. Banks of the store without a
// channel get store-only activation requests.
func NewTick(store *params.Store, channels []*inverter.Channel, mode *adcmode.Controller, duties board.DutySink, conv adc.Converter, dt float64) *Tick {
	banks := make([]*inverter.Channel, store.Banks())
	for _, ch := range channels {
		banks[ch.Bank] = ch
	}

	return &Tick{
		store:    store,
		port:     store.Control(),
		gate:     activation.NewGate(store.Control()),
		mode:     mode,
		conv:     conv,
		duties:   duties,
		dt:       dt,
		banks:    banks,
		channels: channels,
		requests: make([]activation.Request, store.Banks()),
	}
}

// Request returns the activation request slot of bank, nil if there is none.
func (t *Tick) Request(bank int) *activation.Request {
	if bank < 0 || bank >= len(t.requests) {
		return nil
	}
	return &t.requests[bank]
}

// Mode returns the sampling mode controller.
func (t *Tick) Mode() *adcmode.Controller { return t.mode }

// Ticks returns the number of processed samples.
func (t *Tick) Ticks() uint64 { return t.ticks }

// Step processes one sample. Activation requests are handled first so that
// the sampling mode and the ramps see this tick's activity. A sampler
// reconfiguration failure is returned after the tick has completed; the mode
// machine retries it on the next sample.
func (t *Tick) Step(s adc.Sample) error {
	t.ticks++

	anyActive := false
	for bank, ch := range t.banks {
		t.gate.ProcessRequest(&t.requests[bank], bank, ch)
		if ch == nil {
			continue
		}
		t.gate.Settle(ch)
		if ch.State == inverter.Active {
			anyActive = true
		}
	}

	_, modeErr := t.mode.Evaluate(anyActive)

	for _, ch := range t.channels {
		if ch.State == inverter.Active {
			t.loadTargets(ch)
			vf.Advance(ch, t.dt)
		}
		t.writeDuties(ch)
	}

	t.publish(s)

	if modeErr != nil {
		return fmt.Errorf("tick %d: %w", t.ticks, modeErr)
	}
	return nil
}

// loadTargets reads the companion-owned ramp inputs. A setting the channel
// cannot run with keeps the last accepted value, so a ramp to standstill
// always completes.
func (t *Tick) loadTargets(ch *inverter.Channel) {
	b := ch.Bank
	ch.RequestedFrequency = t.store.ReadFloat(b, params.RequestedFrequency)
	ch.RequestedDirection = inverter.DirectionOf(t.store.ReadBool(b, params.RequestedDirection))
	t.loadSetting(&ch.Acceleration, b, params.Acceleration)
	t.loadSetting(&ch.NominalFrequency, b, params.NominalFrequency)
	t.loadSetting(&ch.NominalModulationIndex, b, params.NominalModulationIndex)
}

func (t *Tick) loadSetting(dst *float32, bank int, f params.Field) {
	if v := t.store.ReadFloat(bank, f); f.Accepts(v) {
		*dst = v
	}
}

func (t *Tick) writeDuties(ch *inverter.Channel) {
	for k, pin := range ch.Legs.Pins {
		t.duties.SetDuty(pin, ch.Duties[k])
	}
	if ch.Legs.Duplicate != 0 {
		t.duties.SetDuty(ch.Legs.Duplicate, ch.Duties[0])
	}
}

func (t *Tick) publish(s adc.Sample) {
	for _, ch := range t.channels {
		t.port.PublishFrequency(ch.Bank, float32(ch.Frequency))
		t.port.PublishModulationIndex(ch.Bank, ch.ModulationIndex)
		t.port.PublishDirection(ch.Bank, ch.Direction.IsReverse())
	}
	t.port.PublishDCLink(t.conv.DCLink(s))
	t.port.PublishSamplingControl(t.mode.Mode() == adcmode.Control)
}
