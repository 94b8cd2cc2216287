package clock

import "testing"

func TestSingleThreadAlwaysParticipates(t *testing.T) {
	g := New()
	phase := g.Resume()

	if phase != 0 {
		t.Fatalf("first thread's initial phase = %d, want 0", phase)
	}

	newPhase, participated := g.Tick(phase)
	if !participated {
		t.Fatalf("lone registered thread must participate in every tick")
	}

	if newPhase != 1 {
		t.Fatalf("newPhase = %d, want 1", newPhase)
	}

	if g.Time() != 1 {
		t.Fatalf("global time = %d, want 1 after the only thread ticks", g.Time())
	}
}

func TestPhaseAdvancesOnlyAfterEveryThreadTicks(t *testing.T) {
	g := New()

	p1 := g.Resume() // only thread so far: phase 0
	p2 := g.Resume() // joins mid-phase: must wait for phase 1

	if p1 != 0 {
		t.Fatalf("p1 = %d, want 0", p1)
	}

	if p2 != 1 {
		t.Fatalf("p2 = %d, want 1 (new thread waits for the next phase)", p2)
	}

	// T1 alone completes phase 0 (it was the only participant).
	p1, participated := g.Tick(p1)
	if !participated || g.Time() != 1 {
		t.Fatalf("phase 0 should complete once T1 ticks: time=%d participated=%v", g.Time(), participated)
	}

	// Now both threads are in phase 1. Neither alone should complete it.
	if p1 != 1 || p2 != 1 {
		t.Fatalf("both threads should now be at phase 1: p1=%d p2=%d", p1, p2)
	}

	p1, participated = g.Tick(p1)
	if !participated {
		t.Fatalf("T1's tick in phase 1 should participate")
	}

	if g.Time() != 1 {
		t.Fatalf("time advanced to %d after only one of two threads ticked phase 1", g.Time())
	}

	p2, participated = g.Tick(p2)
	if !participated {
		t.Fatalf("T2's tick in phase 1 should participate")
	}

	if g.Time() != 2 {
		t.Fatalf("time = %d, want 2 once both threads ticked phase 1", g.Time())
	}

	_ = p1
}

func TestBlockCompletesPhaseWhenLastThreadLeaves(t *testing.T) {
	g := New()

	p1 := g.Resume()
	p2 := g.Resume() // waiting for phase 1

	// T2 joined mid-phase, so it wasn't counted in phase 0's countdown:
	// T1 alone completes phase 0.
	p1, participated := g.Tick(p1)
	if !participated || g.Time() != 1 {
		t.Fatalf("time=%d participated=%v, want time=1", g.Time(), participated)
	}

	if g.NumberOfThreads() != 2 {
		t.Fatalf("NumberOfThreads = %d, want 2", g.NumberOfThreads())
	}

	// Phase 1 counts both threads. T1 ticks; T2 then blocks without
	// ticking, and its leaving is what completes phase 1.
	g.Tick(p1)
	if g.Time() != 1 {
		t.Fatalf("time = %d, want 1 while T2 still owes its phase-1 tick", g.Time())
	}

	g.Block(p2)

	if g.Time() != 2 {
		t.Fatalf("time = %d, want 2 once the last thread still owing a tick blocked", g.Time())
	}

	if g.NumberOfThreads() != 1 {
		t.Fatalf("NumberOfThreads after Block = %d, want 1", g.NumberOfThreads())
	}
}
