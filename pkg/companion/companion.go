// Package companion is the asynchronous side of the controller: it writes the
// companion-owned parameters, issues activation requests and exposes the
// parameter table over a serial console and an HTTP API.
package companion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/govfd/pkg/activation"
	"github.com/itohio/govfd/pkg/params"
)

// DefaultTimeout bounds how long Enable waits for the control loop.
const DefaultTimeout = time.Second

var (
	// ErrUnknownBank is returned for banks without an activation request slot.
	ErrUnknownBank = errors.New("unknown bank")
	// ErrRejected is returned by Enable when the control loop refused the request.
	ErrRejected = errors.New("activation rejected")
)

// Requests resolves the activation request slot of a bank.
type Requests interface {
	Request(bank int) *activation.Request
}

// Companion accesses the parameter table from the companion context.
type Companion struct {
	store    *params.Store
	port     *params.CompanionPort
	requests Requests
	busy     []chan struct{} // One slot per bank, held from Issue until the result
	poll     time.Duration
	timeout  time.Duration
}

// New creates a companion on store. requests may be nil when no control loop
// runs; Enable then fails with ErrUnknownBank.
func New(store *params.Store, requests Requests) *Companion {
	busy := make([]chan struct{}, store.Banks())
	for i := range busy {
		busy[i] = make(chan struct{}, 1)
	}
	return &Companion{
		store:    store,
		port:     store.Companion(),
		requests: requests,
		busy:     busy,
		poll:     time.Millisecond,
		timeout:  DefaultTimeout,
	}
}

// Store returns the parameter table.
func (c *Companion) Store() *params.Store { return c.store }

// Get returns the value of id.
func (c *Companion) Get(id params.ID) (params.Value, error) {
	if !c.store.Valid(id) {
		return params.Value{}, fmt.Errorf("%w: %s", params.ErrUnknownID, id)
	}
	return c.store.Read(id), nil
}

// Set writes a companion-owned parameter.
func (c *Companion) Set(id params.ID, v params.Value) error {
	return c.port.Write(id, v)
}

// SetText parses text according to the kind of id and writes it.
func (c *Companion) SetText(id params.ID, text string) error {
	v, err := params.ParseValue(id.Field().Kind(), text)
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return c.Set(id, v)
}

// Snapshot returns every parameter.
func (c *Companion) Snapshot() []params.Entry {
	return c.store.Snapshot(nil)
}

func (c *Companion) request(bank int) (*activation.Request, error) {
	if c.requests == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBank, bank+1)
	}
	req := c.requests.Request(bank)
	if req == nil || bank >= len(c.busy) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBank, bank+1)
	}
	return req, nil
}

// Enable asks the control loop to switch the power module of bank and waits
// for the outcome. A ShutdownInProgress result is returned along with
// ErrRejected; the caller decides whether to retry.
//
// Callers of the same bank are served one at a time, so each one receives
// the outcome of its own request.
func (c *Companion) Enable(ctx context.Context, bank int, on bool) (activation.Result, error) {
	req, err := c.request(bank)
	if err != nil {
		return activation.Ok, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case c.busy[bank] <- struct{}{}:
		defer func() { <-c.busy[bank] }()
	case <-ctx.Done():
		return activation.Ok, fmt.Errorf("bank %d busy: %w", bank+1, ctx.Err())
	}

	req.Issue(on)
	res, err := req.Await(ctx, c.poll)
	if err != nil {
		return res, fmt.Errorf("bank %d: %w", bank+1, err)
	}
	if res != activation.Ok {
		return res, fmt.Errorf("bank %d: %w: %s", bank+1, ErrRejected, res)
	}
	return res, nil
}

// Status returns whether a request of bank is pending and the last result.
func (c *Companion) Status(bank int) (pending bool, res activation.Result, err error) {
	req, err := c.request(bank)
	if err != nil {
		return false, activation.Ok, err
	}
	return req.Pending(), req.Result(), nil
}
