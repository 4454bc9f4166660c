// Package arranger runs the layout engine off the caller's goroutine.
//
// An [Arranger] is an explicit handle owning at most one in-flight
// arrangement. [Arranger.Arrange] starts the computation on a background
// goroutine and returns a channel of transport frames: zero or more
// progress messages followed by exactly one complete or error message,
// after which the channel is closed. A second request while one is in
// flight fails fast with a BUSY error instead of queuing.
//
// The same engine can be run on the calling goroutine with
// [Arranger.ArrangeSync]; callers typically fall back to it when the
// background path reports an error. The handle guarantees the busy slot
// is released on every exit path, so a retry is always possible.
//
// There is no cancellation primitive: once started, an arrangement runs
// to its terminal message. [Arranger.Terminate] releases the handle's
// resources and unblocks any producer still writing, but a frame already
// in the channel buffer may still be delivered; discarding late frames is
// the consumer's responsibility.
package arranger

import (
	"fmt"
	"sync"

	oerrors "github.com/orbweave/orbweave/pkg/errors"
	"github.com/orbweave/orbweave/pkg/layout"
)

// messageBuffer sizes the outbound channel so progress frames rarely
// block the worker on a slow consumer.
const messageBuffer = 64

// Arranger owns a single arrangement slot and the lifecycle of its
// background execution. The zero value is not usable; use New.
type Arranger struct {
	mu   sync.Mutex
	busy bool
	gen  uint64        // bumped on every start and on Terminate
	quit chan struct{} // created lazily, closed by Terminate
}

// New creates an idle arranger. The background context is created lazily
// on the first call to Arrange.
func New() *Arranger {
	return &Arranger{}
}

// Busy reports whether an arrangement is currently in flight.
func (a *Arranger) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Arrange starts a background arrangement and returns the frame stream.
// Progress values on the stream are monotonically non-decreasing and the
// stream always ends with exactly one complete or error frame.
//
// Returns a BUSY error if an arrangement is already in flight.
func (a *Arranger) Arrange(req Request) (<-chan Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return nil, oerrors.New(oerrors.ErrCodeBusy, "arrangement already in flight")
	}
	if a.quit == nil || closed(a.quit) {
		a.quit = make(chan struct{})
	}
	a.busy = true
	a.gen++

	out := make(chan Message, messageBuffer)
	go a.run(req, out, a.quit, a.gen)
	return out, nil
}

// ArrangeSync runs the arrangement on the calling goroutine. It shares
// the busy slot with Arrange and recovers engine panics into WORKER
// errors, so it is safe to use as the fallback path after a background
// failure.
func (a *Arranger) ArrangeSync(req Request, progress layout.ProgressFunc) (result *layout.Result, err error) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return nil, oerrors.New(oerrors.ErrCodeBusy, "arrangement already in flight")
	}
	a.busy = true
	a.gen++
	gen := a.gen
	a.mu.Unlock()
	defer a.release(gen)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = oerrors.New(oerrors.ErrCodeWorker, "arrangement panicked: %v", r)
		}
	}()
	return layout.Arrange(req.RootEntry, req.Entries, req.Connections, progress)
}

// Terminate frees the handle's resources, unblocks any in-flight
// producer, and resets the busy slot. It is safe to call at any time,
// including when no arrangement is running, and the handle remains
// usable afterwards.
func (a *Arranger) Terminate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit != nil && !closed(a.quit) {
		close(a.quit)
	}
	a.busy = false
	a.gen++
}

func (a *Arranger) run(req Request, out chan<- Message, quit <-chan struct{}, gen uint64) {
	defer close(out)
	defer a.release(gen)
	defer func() {
		// A panic anywhere in the engine becomes an error frame; the host
		// process never crashes because of a malformed graph.
		if r := recover(); r != nil {
			send(out, quit, Message{Type: MessageError, Error: fmt.Sprint(r)})
		}
	}()

	res, err := layout.Arrange(req.RootEntry, req.Entries, req.Connections, func(f float64) {
		send(out, quit, Message{Type: MessageProgress, Progress: f})
	})
	if err != nil {
		send(out, quit, Message{Type: MessageError, Error: err.Error()})
		return
	}
	send(out, quit, Message{Type: MessageComplete, Result: res})
}

// release frees the busy slot, but only for the run that owns it. A
// worker abandoned by Terminate still finishes and releases; without the
// generation check that stale release would free the slot of whichever
// arrangement started after the termination.
func (a *Arranger) release(gen uint64) {
	a.mu.Lock()
	if a.gen == gen {
		a.busy = false
	}
	a.mu.Unlock()
}

// send delivers a frame unless the handle has been terminated.
func send(out chan<- Message, quit <-chan struct{}, msg Message) {
	select {
	case out <- msg:
	case <-quit:
	}
}

// closed reports whether ch has been closed without blocking.
// Only valid for channels that never carry values.
func closed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
