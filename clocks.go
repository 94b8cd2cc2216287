package scm

import "github.com/scmalloc/scm/descbuf"

// RegisterClock hands out an unused or zombie local clock slot (spec:
// register_clock). It scans round-robin starting from the slot after
// the last one handed out, so repeated registration spreads load
// across slots rather than always returning to slot 1. It returns
// ErrClocksExhausted-via-Fatal if every non-base slot is still the
// active clock of the root's current life: MaxClocks is sized too
// small for how many concurrent local clocks this thread wants.
func (r *Root) RegisterClock() int {
	n := len(r.localObjBuf)
	if n < 2 {
		r.lib.cfg.Fatal("scm: RegisterClock: MaxClocks=%d leaves no non-base clock slots", n)
		return -1
	}

	for i := 0; i < n-1; i++ {
		k := r.nextClockIndex
		r.nextClockIndex++
		if r.nextClockIndex >= n {
			r.nextClockIndex = 1
		}

		if r.localObjBuf[k].Age != r.currentTime {
			length := r.lib.cfg.MaxExpirationExtension + 1
			r.localObjBuf[k].Reset(length, r.currentTime)
			r.localRegBuf[k].Reset(length, r.currentTime)

			return k
		}
	}

	r.lib.cfg.Fatal("scm: RegisterClock: no zombie or unused slot among %d local clocks", n-1)

	return -1
}

// UnregisterClock marks the local clock slot k as belonging to a past
// life: it stops being eligible for Refresh/RefreshWithClock(k) and
// becomes a candidate for round-robin cleanup and eventual reuse by
// RegisterClock. Any descriptors already queued in it are drained
// incrementally by the zombie scan Tick/TickClock/GlobalTick perform,
// not synchronously here.
//
// k must be at least 2: slots 0 (the base clock) and 1 can never be
// unregistered, matching the source's register/unregister asymmetry
// around the first non-base slot.
func (r *Root) UnregisterClock(k int) error {
	if k < 2 || k >= len(r.localObjBuf) {
		return &Error{Op: "UnregisterClock", Code: ErrInvalidClock}
	}

	r.localObjBuf[k].Age = r.currentTime - 1
	r.localRegBuf[k].Age = r.currentTime - 1

	return nil
}

// Tick advances the base local clock (slot 0) by one step: spec
// tick_clock(0), with TickClock's shared implementation.
func (r *Root) Tick() { r.TickClock(0) }

// TickClock advances local clock k by one step (spec: tick_clock): the
// page-list that just rolled past its slot is spliced onto the
// expired list, one round-robin zombie-cleanup step runs if the root
// has more than one clock slot, and the collection policy (lazy or
// eager, per Config.Eager) drains the expired lists.
func (r *Root) TickClock(k int) {
	if k < 0 || k >= len(r.localObjBuf) {
		return
	}

	descbuf.Advance(&r.localObjBuf[k], &r.expiredObjs)
	descbuf.Advance(&r.localRegBuf[k], &r.expiredRegs)

	r.zombieCleanupStep()
	r.collect()
	r.lib.cfg.Stats.RecordTick()
}

// GlobalTick performs this thread's part of the global clock protocol
// (spec: global_tick). If this is the thread's first global tick of the
// current phase (participated==true), its global buffers advance; if
// every other registered, non-blocked thread has also already ticked
// the phase, this call is additionally what rolls global_time forward.
// A repeat tick within the same phase leaves the global buffers alone.
// A round-robin zombie-cleanup step and a collection pass always run,
// exactly as with TickClock.
func (r *Root) GlobalTick() {
	newPhase, participated := r.lib.clock.Tick(r.globalPhase)
	r.globalPhase = newPhase

	if participated {
		descbuf.Advance(&r.globalObjBuf, &r.expiredObjs)
		descbuf.Advance(&r.globalRegBuf, &r.expiredRegs)
	}

	r.zombieCleanupStep()
	r.collect()
	r.lib.cfg.Stats.RecordTick()
}

// zombieCleanupStep examines the local clock slot at the current
// round-robin position; if it belongs to a past life of the thread and
// still holds live descriptors, it is advanced exactly like a tick of
// that clock, draining it one step closer to empty so a future
// RegisterClock can safely reuse the slot. round_robin then moves to
// the next non-base slot (spec section 4.2 step 3).
func (r *Root) zombieCleanupStep() {
	n := len(r.localObjBuf)
	if n < 2 {
		return
	}

	k := r.roundRobin
	if r.localObjBuf[k].Zombie(r.currentTime) {
		descbuf.Advance(&r.localObjBuf[k], &r.expiredObjs)
	}

	if r.localRegBuf[k].Zombie(r.currentTime) {
		descbuf.Advance(&r.localRegBuf[k], &r.expiredRegs)
	}

	r.roundRobin++
	if r.roundRobin >= n {
		r.roundRobin = 1
	}
}

// collect runs the configured collection policy over both expired
// lists: DrainEager exhausts them immediately, the default lazy policy
// expires at most one descriptor of each kind per call (spec section 4.5).
func (r *Root) collect() {
	if r.lib.cfg.Eager {
		descbuf.DrainEager(&r.expiredObjs, r.objPagePool, r.finalizeAndFreeObject)
		descbuf.DrainEager(&r.expiredRegs, r.regPagePool, r.releaseRegion)

		return
	}

	descbuf.ExpireOne(&r.expiredObjs, r.objPagePool, r.finalizeAndFreeObject)
	descbuf.ExpireOne(&r.expiredRegs, r.regPagePool, r.releaseRegion)
}
