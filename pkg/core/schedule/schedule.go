// Package schedule coalesces recompute triggers into one pass per frame.
//
// A [Scheduler] keeps a single pending flag. The first [Scheduler.Request]
// after a pass asks the [Clock] for one frame callback; every further
// request before that frame fires is absorbed. When the frame fires the pass
// function runs once and reads whatever inputs are current at that moment,
// not the inputs that were current when the triggers arrived.
//
// Requests made while a pass is running are deferred to the next frame, so
// a pass that causes a new trigger (for example a track height change that
// re-clamps the scroll offset) cannot loop within the same frame.
//
// # Clocks
//
// [TickerClock] schedules frames on a real timer and is what long-lived
// views use. [ManualClock] only advances when [ManualClock.Tick] is called;
// it serves hosts that own their frame loop (the terminal viewer) and tests.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval approximates one display frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// Clock schedules a callback for the next frame.
type Clock interface {
	// AfterFrame arranges for fn to run once at the next frame. It must not
	// call fn before returning. The returned function cancels the callback
	// if it has not run yet.
	AfterFrame(fn func()) (cancel func())
}

// =============================================================================
// TickerClock
// =============================================================================

// TickerClock runs frame callbacks on a timer goroutine after Interval.
// The zero value uses [DefaultFrameInterval].
type TickerClock struct {
	Interval time.Duration
}

// AfterFrame implements [Clock].
func (c TickerClock) AfterFrame(fn func()) func() {
	d := c.Interval
	if d <= 0 {
		d = DefaultFrameInterval
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// =============================================================================
// ManualClock
// =============================================================================

// ManualClock runs frame callbacks only when Tick is called.
type ManualClock struct {
	mu     sync.Mutex
	frames []*frame
	ticks  int
}

type frame struct {
	fn        func()
	cancelled bool
}

// NewManualClock creates a clock with no pending frames.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// AfterFrame implements [Clock].
func (c *ManualClock) AfterFrame(fn func()) func() {
	f := &frame{fn: fn}
	c.mu.Lock()
	c.frames = append(c.frames, f)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		f.cancelled = true
		c.mu.Unlock()
	}
}

// Tick runs every callback registered before the call and returns how many
// ran. Callbacks registered while ticking wait for the next Tick.
func (c *ManualClock) Tick() int {
	c.mu.Lock()
	due := c.frames
	c.frames = nil
	c.ticks++
	c.mu.Unlock()

	n := 0
	for _, f := range due {
		c.mu.Lock()
		cancelled := f.cancelled
		c.mu.Unlock()
		if cancelled {
			continue
		}
		f.fn()
		n++
	}
	return n
}

// Pending returns the number of callbacks waiting for the next Tick.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		if !f.cancelled {
			n++
		}
	}
	return n
}

// Ticks returns how many times Tick has been called.
func (c *ManualClock) Ticks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// =============================================================================
// Scheduler
// =============================================================================

// Scheduler runs a pass function at most once per frame.
type Scheduler struct {
	clock Clock
	run   func()

	mu      sync.Mutex
	pending bool
	stopped bool
	gen     uint64
	cancel  func()

	passes    atomic.Uint64
	requests  atomic.Uint64
	coalesced atomic.Uint64
}

// New creates a scheduler that calls run on frames from clock. A nil clock
// uses a [TickerClock] with the default interval.
func New(clock Clock, run func()) *Scheduler {
	if clock == nil {
		clock = TickerClock{}
	}
	return &Scheduler{clock: clock, run: run}
}

// Request marks a pass as pending. It reports whether this call scheduled a
// new frame; false means the request was absorbed into an already pending
// pass or the scheduler is stopped.
func (s *Scheduler) Request() bool {
	s.requests.Add(1)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if s.pending {
		s.mu.Unlock()
		s.coalesced.Add(1)
		return false
	}
	s.pending = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	cancel := s.clock.AfterFrame(func() { s.fire(gen) })

	s.mu.Lock()
	if s.gen == gen && s.pending && !s.stopped {
		s.cancel = cancel
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()
	// Flushed or stopped while the frame was being scheduled.
	cancel()
	return true
}

// Flush runs a pending pass immediately instead of waiting for its frame.
// It reports whether a pass ran.
func (s *Scheduler) Flush() bool {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.fire(gen)
}

func (s *Scheduler) fire(gen uint64) bool {
	s.mu.Lock()
	if s.stopped || !s.pending || s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.pending = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.run()
	s.passes.Add(1)
	return true
}

// Pending reports whether a pass is waiting for its frame.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Stop cancels any pending frame. Later requests and frames that still fire
// are no-ops. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.pending = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Requests  uint64 // calls to Request
	Coalesced uint64 // requests absorbed into an already pending pass
	Passes    uint64 // passes that ran
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Requests:  s.requests.Load(),
		Coalesced: s.coalesced.Load(),
		Passes:    s.passes.Load(),
	}
}
