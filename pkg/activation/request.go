package activation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Result is the outcome of the last processed activation request.
type Result uint32

const (
	Ok Result = iota
	// ShutdownInProgress means a previous transition of the channel has not completed.
	ShutdownInProgress
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case ShutdownInProgress:
		return "shutdown in progress"
	default:
		return fmt.Sprintf("result(%d)", uint32(r))
	}
}

// Request carries an enable/disable command from the companion context to the
// control context. The companion issues it, the gate consumes it exactly once
// and reports the outcome through Result.
type Request struct {
	pending atomic.Bool
	state   atomic.Bool
	result  atomic.Uint32
}

// Issue posts a new request. A request issued while another one is still
// pending replaces its target state.
func (r *Request) Issue(on bool) {
	r.state.Store(on)
	r.pending.Store(true)
}

// Pending reports whether the request still awaits processing.
func (r *Request) Pending() bool { return r.pending.Load() }

// State returns the requested state.
func (r *Request) State() bool { return r.state.Load() }

// Result returns the outcome of the last processed request.
func (r *Request) Result() Result { return Result(r.result.Load()) }

// Await polls until the request has been processed and returns its result.
func (r *Request) Await(ctx context.Context, poll time.Duration) (Result, error) {
	if poll <= 0 {
		poll = time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for r.Pending() {
		select {
		case <-ctx.Done():
			return r.Result(), ctx.Err()
		case <-ticker.C:
		}
	}
	return r.Result(), nil
}

// take returns the requested state if a request is pending.
func (r *Request) take() (bool, bool) {
	if !r.pending.Load() {
		return false, false
	}
	return r.state.Load(), true
}

// complete reports the outcome and clears the pending flag.
func (r *Request) complete(res Result) {
	r.result.Store(uint32(res))
	r.pending.Store(false)
}
