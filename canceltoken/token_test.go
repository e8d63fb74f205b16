package canceltoken

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// manualScheduler arms at most one deferred call and fires it on demand.
type manualScheduler struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (m *manualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	m.d = d
	m.fn = fn
	return func() bool {
		if m.fired || m.stopped {
			return false
		}
		m.stopped = true
		return true
	}
}

func (m *manualScheduler) fire() {
	if m.stopped || m.fired {
		return
	}
	m.fired = true
	m.fn()
}

func TestCancelIsIdempotent(t *testing.T) {
	tok := NewToken()
	tok.Cancel("first")
	firstAt, _ := tok.CancelledAt()

	tok.Cancel("second")

	reason, ok := tok.Reason()
	if !ok || reason != "first" {
		t.Fatalf("reason = %q (ok=%v), want first call to win", reason, ok)
	}
	if at, _ := tok.CancelledAt(); !at.Equal(firstAt) {
		t.Fatalf("timestamp changed on second cancel: %v vs %v", at, firstAt)
	}
}

func TestCallbacksRunInRegistrationOrder(t *testing.T) {
	tok := NewToken()
	var order []string
	tok.OnCancel(func(reason string) { order = append(order, "a:"+reason) })
	tok.OnCancel(func(reason string) { order = append(order, "b:"+reason) })
	tok.OnCancel(func(reason string) { order = append(order, "c:"+reason) })

	tok.Cancel("done")

	want := []string{"a:done", "b:done", "c:done"}
	if len(order) != len(want) {
		t.Fatalf("ran %d callbacks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestLateSubscriberRunsImmediatelyOnce(t *testing.T) {
	tok := NewCancelledToken("closed")
	calls := 0
	tok.OnCancel(func(reason string) {
		calls++
		if reason != "closed" {
			t.Fatalf("reason = %q", reason)
		}
	})
	tok.Cancel("again")
	if calls != 1 {
		t.Fatalf("late subscriber ran %d times, want exactly once", calls)
	}
}

func TestCallbackPanicIsIsolated(t *testing.T) {
	var faults []error
	tok := NewToken(WithFaultHandler(func(err error) { faults = append(faults, err) }))

	ran := false
	tok.OnCancel(func(string) { panic("boom") })
	tok.OnCancel(func(string) { ran = true })

	tok.Cancel("shutdown")

	if !ran {
		t.Fatal("panic in an earlier callback must not stop delivery")
	}
	if len(faults) != 1 || !strings.Contains(faults[0].Error(), "boom") {
		t.Fatalf("faults = %v, want one fault wrapping the panic value", faults)
	}
}

func TestErr(t *testing.T) {
	tok := NewToken()
	if err := tok.Err(); err != nil {
		t.Fatalf("pending token Err = %v, want nil", err)
	}
	tok.Cancel("client disconnected")

	err := tok.Err()
	var ce *CancelledError
	if !errors.As(err, &ce) {
		t.Fatalf("Err = %T, want *CancelledError", err)
	}
	if ce.Reason != "client disconnected" || ce.Token != tok {
		t.Fatalf("CancelledError = %+v", ce)
	}
}

func TestTimeoutTokenFires(t *testing.T) {
	sched := &manualScheduler{}
	tok, _ := NewTokenWithTimeout(5*time.Second, sched)

	if tok.Cancelled() {
		t.Fatal("token cancelled before the timer fired")
	}
	if sched.d != 5*time.Second {
		t.Fatalf("armed duration = %v", sched.d)
	}

	sched.fire()

	reason, ok := tok.Reason()
	if !ok || !strings.Contains(reason, "timed out after") {
		t.Fatalf("reason = %q (ok=%v)", reason, ok)
	}
}

func TestTimeoutTokenStopDisarms(t *testing.T) {
	sched := &manualScheduler{}
	tok, stop := NewTokenWithTimeout(time.Second, sched)

	if !stop() {
		t.Fatal("stop before fire should report true")
	}
	sched.fire()
	if tok.Cancelled() {
		t.Fatal("stopped timer must not cancel the token")
	}
	if stop() {
		t.Fatal("second stop should report false")
	}
}

func TestTimeoutTokenNilSchedulerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("nil scheduler should panic")
		}
	}()
	NewTokenWithTimeout(time.Second, nil)
}
