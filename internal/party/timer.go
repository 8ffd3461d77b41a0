package party

import (
	"fmt"
	"sync"
	"time"
)

type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
	TimerPaused
	TimerExpired
)

func (s TimerState) String() string {
	switch s {
	case TimerIdle:
		return "idle"
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerExpired:
		return "expired"
	}
	return fmt.Sprintf("TimerState(%d)", int(s))
}

func (s TimerState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TimerState) UnmarshalText(b []byte) error {
	for v := TimerIdle; v <= TimerExpired; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown timer state %q", b)
}

// DefaultTickInterval is the wall-clock length of one countdown second.
const DefaultTickInterval = time.Second

// Timer is a countdown that removes one second from the remaining time on
// every tick while running.
//
// Each start or resume launches a goroutine tagged with a run number. Pause,
// reset and restart bump the number, so a tick from an older goroutine that
// races with them is discarded instead of touching the new countdown.
//
// A goroutine holds emit from its run check until its callbacks return.
// Start, Pause and Reset wait on emit before returning, so no callback of a
// stopped countdown fires after they return.
type Timer struct {
	interval time.Duration
	onTick   func(remaining time.Duration)
	onExpire func()

	emit sync.Mutex

	mu        sync.Mutex
	state     TimerState
	duration  time.Duration
	remaining time.Duration
	run       uint64
	cancel    chan struct{}
}

// NewTimer returns an idle timer. onTick and onExpire are called from the
// timer goroutine without mu held; either may be nil. They must not call
// Start, Pause or Reset.
func NewTimer(interval time.Duration, onTick func(time.Duration), onExpire func()) *Timer {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Timer{
		interval: interval,
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// Start begins a countdown of d, replacing any countdown in progress.
// A zero duration is ignored and Start reports false.
func (t *Timer) Start(d time.Duration) bool {
	ok := t.start(d)
	t.settle()
	return ok
}

// Pause stops ticking and keeps the remaining time. It reports whether the
// timer was running.
func (t *Timer) Pause() bool {
	ok := t.pause()
	t.settle()
	return ok
}

// Reset cancels any countdown and returns to idle.
func (t *Timer) Reset() {
	t.reset()
	t.settle()
}

// settle waits for a callback already past its run check. Callers must not
// hold a lock that a callback may take.
func (t *Timer) settle() {
	t.emit.Lock()
	t.emit.Unlock()
}

func (t *Timer) start(d time.Duration) bool {
	if d <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.duration = d
	t.remaining = d
	t.state = TimerRunning
	t.spawnLocked()
	return true
}

func (t *Timer) pause() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerRunning {
		return false
	}
	t.stopLocked()
	t.state = TimerPaused
	return true
}

// Resume continues a paused countdown from its remaining time.
func (t *Timer) Resume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerPaused {
		return false
	}
	t.state = TimerRunning
	t.spawnLocked()
	return true
}

func (t *Timer) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.state = TimerIdle
	t.duration = 0
	t.remaining = 0
}

func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Duration returns the length of the current or last countdown.
func (t *Timer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		close(t.cancel)
		t.cancel = nil
	}
	t.run++
}

func (t *Timer) spawnLocked() {
	t.run++
	cancel := make(chan struct{})
	t.cancel = cancel
	go t.loop(t.run, cancel)
}

func (t *Timer) loop(run uint64, cancel <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}

		if done := t.emitTick(run); done {
			return
		}
	}
}

// emitTick applies one tick of run and fires its callbacks under emit. It
// reports whether the goroutine should stop.
func (t *Timer) emitTick(run uint64) bool {
	t.emit.Lock()
	defer t.emit.Unlock()

	remaining, expired, ok := t.tick(run)
	if !ok {
		return true
	}
	if t.onTick != nil {
		t.onTick(remaining)
	}
	if expired && t.onExpire != nil {
		t.onExpire()
	}
	return expired
}

func (t *Timer) tick(run uint64) (remaining time.Duration, expired, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run != run || t.state != TimerRunning {
		return 0, false, false
	}

	t.remaining -= time.Second
	if t.remaining <= 0 {
		t.remaining = 0
		t.state = TimerExpired
		t.cancel = nil
		return 0, true, true
	}
	return t.remaining, false, true
}
