// Package activation implements the gate through which inverter channels are
// enabled and disabled.
//
// A channel's power-module state changes only here, and only once the channel's
// previous transition has completed. Deactivation is not immediate: the channel
// stays active while the ramp brings its output down to standstill.
package activation

import (
	"github.com/itohio/govfd/pkg/inverter"
	"github.com/itohio/govfd/pkg/params"
)

// Gate processes activation requests on the control context.
type Gate struct {
	port *params.ControlPort
}

// NewGate creates a gate mirroring results through port.
func NewGate(port *params.ControlPort) *Gate {
	return &Gate{port: port}
}

// ProcessRequest handles one pending request for the given bank. ch is nil for
// banks without a physical power module; their state is a plain store boolean.
// The pending flag is cleared whatever the outcome.
func (g *Gate) ProcessRequest(req *Request, bank int, ch *inverter.Channel) {
	on, ok := req.take()
	if !ok {
		return
	}

	switch {
	case ch == nil:
		g.port.PublishState(bank, on)
		req.complete(Ok)
	case ch.Transitioning():
		req.complete(ShutdownInProgress)
	default:
		if on {
			ch.RequestedState = inverter.Active
		} else {
			ch.RequestedState = inverter.Inactive
		}
		g.port.PublishState(bank, on)
		req.complete(Ok)
	}
}

// Settle completes the channel's pending transition when possible. Activation
// commits at once; deactivation commits when the output has ramped to zero.
func (g *Gate) Settle(ch *inverter.Channel) {
	if !ch.Transitioning() {
		return
	}

	switch ch.RequestedState {
	case inverter.Active:
		ch.Stop()
		ch.State = inverter.Active
	case inverter.Inactive:
		if ch.Frequency == 0 {
			ch.Stop()
			ch.State = inverter.Inactive
		}
	}
}
