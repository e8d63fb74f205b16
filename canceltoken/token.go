// Package canceltoken implements the cooperative cancellation primitive
// shared between a caller and a long-running handler. Nothing preempts a
// handler; it must poll Token.Err or subscribe via OnCancel.
package canceltoken

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// CancelledError is returned by Token.Err once the token is cancelled.
type CancelledError struct {
	Reason string
	Token  *Token
}

func (e *CancelledError) Error() string {
	if e.Reason == "" {
		return "operation cancelled"
	}
	return fmt.Sprintf("operation cancelled: %s", e.Reason)
}

// FaultHandler receives failures raised by cancellation callbacks. Faults
// are isolated: one subscriber's panic never aborts delivery to the rest
// and never propagates to the canceller.
type FaultHandler func(err error)

// Callback observes cancellation. It runs synchronously on the goroutine
// calling Cancel, in registration order.
type Callback func(reason string)

// Token is a one-shot cancel signal. It has exactly two states, pending and
// cancelled, and the transition is terminal: Cancel is idempotent and the
// first call wins the reason and timestamp.
//
// Tokens are owned by a single in-flight invocation and require no
// cross-invocation synchronization, but are nonetheless safe for concurrent
// use between the invocation and its canceller.
type Token struct {
	mu          sync.Mutex
	cancelled   bool
	reason      string
	cancelledAt time.Time
	callbacks   []Callback

	fault FaultHandler
}

// Option configures a Token at construction.
type Option func(*Token)

// WithFaultHandler injects the sink that receives isolated callback
// failures. The default logs through slog.Default.
func WithFaultHandler(fn FaultHandler) Option {
	return func(t *Token) { t.fault = fn }
}

// NewToken returns a pending token.
func NewToken(opts ...Option) *Token {
	t := &Token{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewCancelledToken returns a token that is already cancelled with the
// given reason. Callbacks subscribed later run immediately.
func NewCancelledToken(reason string, opts ...Option) *Token {
	t := NewToken(opts...)
	t.Cancel(reason)
	return t
}

// NewTokenWithTimeout returns a pending token that cancels itself after d,
// plus a stop function that disarms the timer (reporting whether it did so
// before the timer fired). The scheduler is a required dependency; pass
// SystemScheduler for wall-clock behavior or a fake in tests. A nil
// scheduler panics rather than silently never arming the timer.
func NewTokenWithTimeout(d time.Duration, sched Scheduler, opts ...Option) (*Token, func() bool) {
	if sched == nil {
		panic("canceltoken: nil Scheduler")
	}
	t := NewToken(opts...)
	stop := sched.AfterFunc(d, func() {
		t.Cancel(fmt.Sprintf("timed out after %s", d))
	})
	return t, stop
}

// Cancel transitions the token to cancelled, recording reason and
// timestamp, then invokes every subscribed callback in registration order.
// Calling Cancel on a cancelled token is a no-op: the original reason and
// timestamp are kept and no callback runs twice.
func (t *Token) Cancel(reason string) {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	t.reason = reason
	t.cancelledAt = time.Now()
	cbs := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	for _, cb := range cbs {
		t.invoke(cb, reason)
	}
}

// OnCancel subscribes a callback. If the token is already cancelled the
// callback runs immediately, exactly once, under the same fault isolation
// as cancellation-time delivery.
func (t *Token) OnCancel(cb Callback) {
	if cb == nil {
		return
	}
	t.mu.Lock()
	if !t.cancelled {
		t.callbacks = append(t.callbacks, cb)
		t.mu.Unlock()
		return
	}
	reason := t.reason
	t.mu.Unlock()
	t.invoke(cb, reason)
}

// Err returns a *CancelledError iff the token is cancelled, else nil.
// Handlers poll it between units of work:
//
//	if err := tok.Err(); err != nil {
//	    return err
//	}
func (t *Token) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.cancelled {
		return nil
	}
	return &CancelledError{Reason: t.reason, Token: t}
}

// Cancelled reports whether the token has been cancelled.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Reason returns the recorded cancellation reason; ok is false while the
// token is pending.
func (t *Token) Reason() (reason string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason, t.cancelled
}

// CancelledAt returns the cancellation timestamp; ok is false while the
// token is pending.
func (t *Token) CancelledAt() (at time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelledAt, t.cancelled
}

// invoke runs a callback behind its own fault boundary.
func (t *Token) invoke(cb Callback, reason string) {
	defer func() {
		if r := recover(); r != nil {
			t.reportFault(fmt.Errorf("cancellation callback panicked: %v", r))
		}
	}()
	cb(reason)
}

func (t *Token) reportFault(err error) {
	if t.fault != nil {
		t.fault(err)
		return
	}
	slog.Default().Error("cancellation callback fault", slog.String("err", err.Error()))
}
