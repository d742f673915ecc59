// Package shutdown provides the cancellation signal shared by the receive and
// send loops of a chat session.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// State is the lifecycle position of a Coordinator.
type State int32

const (
	Active State = iota
	ShuttingDown
	Stopped
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case ShuttingDown:
		return "shutting-down"
	case Stopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// Reason records what first raised the coordinator.
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonEndOfInput
	ReasonSignal
	ReasonDisconnect
	ReasonTransport
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonEndOfInput:
		return "end-of-input"
	case ReasonSignal:
		return "signal"
	case ReasonDisconnect:
		return "disconnect"
	case ReasonTransport:
		return "transport"
	case ReasonCanceled:
		return "canceled"
	default:
		return "invalid"
	}
}

// Coordinator is a one-shot cancellation flag. It moves Active -> ShuttingDown
// on the first Raise and ShuttingDown -> Stopped on Stop; it never goes back.
type Coordinator struct {
	state  atomic.Int32
	reason atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc

	raiseOnce sync.Once
	stopOnce  sync.Once

	mu    sync.Mutex
	hooks []func()

	sigs chan os.Signal
}

// New returns an active coordinator. Canceling parent raises it with
// ReasonCanceled.
func New(parent context.Context) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{ctx: ctx, cancel: cancel}
	if parent != nil && parent.Done() != nil {
		stop := context.AfterFunc(parent, func() { c.Raise(ReasonCanceled) })
		c.OnRaise(func() { stop() })
	}
	return c
}

// Raise moves the coordinator out of Active and runs the registered hooks.
// Only the first call has an effect; it reports whether this call did it.
func (c *Coordinator) Raise(r Reason) bool {
	raised := false
	c.raiseOnce.Do(func() {
		raised = true
		c.reason.Store(int32(r))
		c.state.CompareAndSwap(int32(Active), int32(ShuttingDown))
		c.cancel()

		c.mu.Lock()
		hooks := c.hooks
		c.hooks = nil
		c.mu.Unlock()
		for _, h := range hooks {
			h()
		}
	})
	return raised
}

// OnRaise registers fn to run once when the coordinator is raised. If it has
// already been raised fn runs immediately.
func (c *Coordinator) OnRaise(fn func()) {
	c.mu.Lock()
	if c.ctx.Err() == nil {
		c.hooks = append(c.hooks, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	fn()
}

// Active reports whether the session is still running.
func (c *Coordinator) Active() bool {
	return State(c.state.Load()) == Active
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Reason returns what raised the coordinator, or ReasonNone.
func (c *Coordinator) Reason() Reason {
	return Reason(c.reason.Load())
}

// Done is closed once the coordinator is raised.
func (c *Coordinator) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Context is canceled once the coordinator is raised.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Notify raises the coordinator with ReasonSignal when any of sigs arrives.
// The watcher is released by Stop.
func (c *Coordinator) Notify(sigs ...os.Signal) {
	if len(sigs) == 0 {
		return
	}
	c.mu.Lock()
	if c.sigs != nil {
		c.mu.Unlock()
		return
	}
	c.sigs = make(chan os.Signal, 1)
	ch := c.sigs
	c.mu.Unlock()

	signal.Notify(ch, sigs...)
	go func() {
		select {
		case <-ch:
			c.Raise(ReasonSignal)
		case <-c.ctx.Done():
		}
	}()
}

// Stop marks the session as fully stopped. It raises the coordinator first if
// nobody has yet.
func (c *Coordinator) Stop() {
	c.Raise(ReasonCanceled)
	c.stopOnce.Do(func() {
		c.state.Store(int32(Stopped))
		c.mu.Lock()
		if c.sigs != nil {
			signal.Stop(c.sigs)
		}
		c.mu.Unlock()
	})
}
