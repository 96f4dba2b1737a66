package countdown

import (
	"context"
	"sync"
	"time"
)

// Ticker is the subset of time.Ticker the countdown needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// State is a point-in-time copy of the countdown.
type State struct {
	Remaining int
	Active    bool
}

type Options struct {
	// NewTicker overrides the one-second ticker (tests).
	NewTicker func(d time.Duration) Ticker
	// Now overrides the clock used to timestamp server writes.
	Now func() time.Time
	// OnChange is called outside the lock after every change of state.
	OnChange func(State)
}

// Timer is a local one-second countdown that the evaluator may overwrite at
// any time. The two clocks are reconciled last-write-wins: a local tick
// stamped before the latest server write is dropped, because the server
// value already accounts for that second.
type Timer struct {
	mu          sync.Mutex
	remaining   int
	active      bool
	serverWrite time.Time
	cancel      context.CancelFunc
	runID       uint64

	newTicker func(d time.Duration) Ticker
	now       func() time.Time
	onChange  func(State)
}

func New(opts Options) *Timer {
	t := &Timer{
		newTicker: opts.NewTicker,
		now:       opts.Now,
		onChange:  opts.OnChange,
	}
	if t.newTicker == nil {
		t.newTicker = newRealTicker
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Start sets remaining to seconds and begins decrementing once per second,
// replacing any loop already running.
func (t *Timer) Start(seconds int) {
	t.mu.Lock()
	t.stopLocked()
	t.remaining = clamp(seconds)
	t.active = true
	t.serverWrite = time.Time{}
	t.runID++
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	ticker := t.newTicker(time.Second)
	go t.loop(ctx, ticker, t.runID)
	st := t.stateLocked()
	t.mu.Unlock()
	t.notify(st)
}

// Stop cancels the decrement. Remaining is left as-is for display.
func (t *Timer) Stop() {
	t.mu.Lock()
	wasActive := t.active
	t.stopLocked()
	st := t.stateLocked()
	t.mu.Unlock()
	if wasActive {
		t.notify(st)
	}
}

// Close is Stop for teardown; it is safe to call more than once.
func (t *Timer) Close() {
	t.Stop()
}

// SetRemaining is the authoritative overwrite from the evaluator. It does not
// start or stop the loop.
func (t *Timer) SetRemaining(seconds int) {
	t.mu.Lock()
	t.remaining = clamp(seconds)
	t.serverWrite = t.now()
	st := t.stateLocked()
	t.mu.Unlock()
	t.notify(st)
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *Timer) loop(ctx context.Context, ticker Ticker, runID uint64) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C():
			if !t.tick(runID, at) {
				return
			}
		}
	}
}

// tick applies one local decrement. It returns false when the loop that
// produced the tick has been replaced or stopped.
func (t *Timer) tick(runID uint64, at time.Time) bool {
	t.mu.Lock()
	if runID != t.runID || !t.active {
		t.mu.Unlock()
		return false
	}
	if !t.serverWrite.IsZero() && at.Before(t.serverWrite) {
		t.mu.Unlock()
		return true
	}
	if t.remaining == 0 {
		t.mu.Unlock()
		return true
	}
	t.remaining--
	st := t.stateLocked()
	t.mu.Unlock()
	t.notify(st)
	return true
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.active = false
}

func (t *Timer) stateLocked() State {
	return State{Remaining: t.remaining, Active: t.active}
}

func (t *Timer) notify(st State) {
	if t.onChange != nil {
		t.onChange(st)
	}
}

func clamp(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}
