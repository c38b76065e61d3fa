// Package adcmode switches the ADC between monitoring and control sampling.
//
// While no channel is active the ADC runs free at the monitoring rate. As soon
// as any channel becomes active it is retriggered from the PWM timer at the
// control rate. Reconfiguration stops sampling, so it runs only on an edge of
// the aggregate channel activity.
package adcmode

import (
	"fmt"
)

// Mode is the sampling mode.
type Mode uint8

const (
	Monitoring Mode = iota
	Control
)

func (m Mode) String() string {
	if m == Control {
		return "control"
	}
	return "monitoring"
}

// Trigger selects the conversion trigger source.
type Trigger uint8

const (
	// FreeRunning converts on the ADC's own timer.
	FreeRunning Trigger = iota
	// External converts on the PWM timer's trigger output.
	External
)

func (t Trigger) String() string {
	if t == External {
		return "external"
	}
	return "free-running"
}

// Sampler is the sampling subsystem.
type Sampler interface {
	Stop() error
	SetTrigger(trigger Trigger, rate float64) error
	Run() error
}

// Controller is the Monitoring/Control state machine. It is used from the
// control context only.
type Controller struct {
	sampler        Sampler
	mode           Mode
	controlRate    float64
	monitoringRate float64
	transitions    uint64
}

// New creates a controller starting in Monitoring mode. The sampler is
// expected to already run at the monitoring rate.
func New(sampler Sampler, controlRate, monitoringRate float64) *Controller {
	return &Controller{
		sampler:        sampler,
		mode:           Monitoring,
		controlRate:    controlRate,
		monitoringRate: monitoringRate,
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// Transitions returns the number of completed mode changes.
func (c *Controller) Transitions() uint64 { return c.transitions }

// Evaluate applies the aggregate channel activity. It reconfigures the sampler
// only when the activity disagrees with the current mode and reports whether
// the mode changed. On failure the mode is kept so the next call retries.
func (c *Controller) Evaluate(anyActive bool) (bool, error) {
	switch {
	case anyActive && c.mode == Monitoring:
		if err := c.reconfigure(External, c.controlRate); err != nil {
			return false, fmt.Errorf("enter control mode: %w", err)
		}
		c.mode = Control
	case !anyActive && c.mode == Control:
		if err := c.reconfigure(FreeRunning, c.monitoringRate); err != nil {
			return false, fmt.Errorf("enter monitoring mode: %w", err)
		}
		c.mode = Monitoring
	default:
		return false, nil
	}

	c.transitions++
	return true, nil
}

// reconfigure runs the stop, retrigger, resume sequence. A failed retrigger
// still resumes sampling with the previous trigger so the loop keeps ticking.
func (c *Controller) reconfigure(trigger Trigger, rate float64) error {
	if err := c.sampler.Stop(); err != nil {
		return fmt.Errorf("stop sampling: %w", err)
	}
	if err := c.sampler.SetTrigger(trigger, rate); err != nil {
		if runErr := c.sampler.Run(); runErr != nil {
			return fmt.Errorf("set %s trigger: %w (resume: %v)", trigger, err, runErr)
		}
		return fmt.Errorf("set %s trigger: %w", trigger, err)
	}
	if err := c.sampler.Run(); err != nil {
		return fmt.Errorf("resume sampling: %w", err)
	}
	return nil
}
