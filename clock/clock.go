// Package clock implements the global clock protocol (spec component
// G): the process-wide coordination that lets every registered,
// non-blocked thread agree on when a "global phase" has completed and
// global_time should advance.
//
// Global is the only state in the whole library genuinely shared
// across descriptor roots. Per the spec's design notes it is guarded
// by a dedicated lock (global_time_lock) — the terminated-root
// free-list lock lives with the root registry, one layer up, and the
// two are never held at once.
package clock

import (
	"sync"
	"sync/atomic"
)

// Global tracks the process-wide clock phase: the monotonic time
// itself, how many threads are currently registered, and how many of
// them still owe a tick before the current phase can complete.
type Global struct {
	mu              sync.Mutex
	time            uint64
	numberOfThreads int64
	countdown       int64 // hot-path atomic; also read/written under mu
}

// New creates a Global clock with no threads registered.
func New() *Global {
	return &Global{}
}

// Time returns the current global_time.
func (g *Global) Time() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.time
}

// NumberOfThreads returns the number of currently registered threads.
func (g *Global) NumberOfThreads() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.numberOfThreads
}

// Resume registers a new thread into the phase protocol (spec:
// resume_thread) and returns its initial global_phase: the current
// time if it is the only thread (it must tick to make progress), or
// time+1 (wait for the next phase) otherwise.
func (g *Global) Resume() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	var phase uint64

	if g.numberOfThreads == 0 {
		phase = g.time
		atomic.StoreInt64(&g.countdown, 1)
	} else {
		phase = g.time + 1
	}

	g.numberOfThreads++

	return phase
}

// Block unregisters a thread (spec: block_thread). phase is that
// thread's global_phase at the time it stops participating; if it
// equals the current global_time the thread had not yet ticked this
// phase, and unregistering it may be what completes the phase.
func (g *Global) Block(phase uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.numberOfThreads--

	if phase != g.time {
		return
	}

	if atomic.AddInt64(&g.countdown, -1) == 0 {
		g.advanceLocked()
	}
}

// Tick performs one thread's global_tick (spec section 4.2). phase is
// the caller's current global_phase. If phase already equals
// global_time this is the thread's first tick of the phase: the
// result's newPhase is phase+1 and participated is true, meaning the
// caller must also advance/expire its own globally clocked buffers.
// Otherwise the thread has already done its part for this phase (or
// is ahead of it) and participated is false: phase is unchanged and no
// buffer work should happen.
func (g *Global) Tick(phase uint64) (newPhase uint64, participated bool) {
	if phase != g.Time() {
		return phase, false
	}

	if atomic.AddInt64(&g.countdown, -1) == 0 {
		g.mu.Lock()
		g.advanceLocked()
		g.mu.Unlock()
	}

	return phase + 1, true
}

// advanceLocked advances global_time by one and resets the countdown
// to the number of threads that must tick in the new phase. Must be
// called with g.mu held.
func (g *Global) advanceLocked() {
	n := g.numberOfThreads
	if n < 1 {
		n = 1
	}

	atomic.StoreInt64(&g.countdown, n)
	g.time++
}
