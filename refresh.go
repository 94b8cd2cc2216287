package scm

import (
	"unsafe"

	"github.com/scmalloc/scm/descbuf"
	"github.com/scmalloc/scm/header"
)

// clampExt bounds a requested extension to [0, max] (spec section 4.4:
// refresh silently clamps rather than rejecting an out-of-range ext).
func clampExt(ext, max int) int {
	if ext < 0 {
		return 0
	}

	if ext > max {
		return max
	}

	return ext
}

// Refresh declares ptr alive for ext more ticks of the root's base
// local clock (slot 0), clamped to [0, MaxExpirationExtension] (spec:
// refresh). Calling it on a region-tagged pointer refreshes the whole
// owning region instead, matching the spec's object/region refresh
// symmetry.
func (r *Root) Refresh(ptr unsafe.Pointer, ext int) error {
	return r.RefreshWithClock(ptr, ext, 0)
}

// RefreshWithClock is Refresh against local clock k instead of the
// base clock (spec: refresh_with_clock). k must have been returned by
// a RegisterClock call on this root that has not since been
// UnregisterClock'd.
func (r *Root) RefreshWithClock(ptr unsafe.Pointer, ext, k int) error {
	h := headerOf(ptr)
	if h.Tag() == header.TagRegion {
		return r.RefreshRegionWithClock(int(h.RegionIndex()), ext, k)
	}

	if k < 0 || k >= len(r.localObjBuf) {
		return &Error{Op: "RefreshWithClock", Code: ErrInvalidClock}
	}

	ext = clampExt(ext, r.lib.cfg.MaxExpirationExtension)

	if r.lib.cfg.Debug {
		if !r.localObjBuf[k].Active() || r.localObjBuf[k].Age != r.currentTime {
			return &Error{Op: "RefreshWithClock", Code: ErrPreconditionBreach}
		}
	}

	if !h.IncrementDC() {
		return &Error{Op: "RefreshWithClock", Code: ErrCounterSaturated}
	}

	descbuf.Insert(&r.localObjBuf[k], r.objPagePool, r.descPerPage, h, ext)
	r.lib.cfg.Stats.RecordRefresh()

	return nil
}

// GlobalRefresh declares ptr alive for ext more global ticks, tracked
// in the process-wide global buffer rather than a per-thread local one
// (spec: global_refresh). The object survives until every registered
// thread has called GlobalTick enough times to roll global_time past
// its slot, not just the calling thread.
func (r *Root) GlobalRefresh(ptr unsafe.Pointer, ext int) error {
	h := headerOf(ptr)
	if h.Tag() == header.TagRegion {
		return r.GlobalRefreshRegion(int(h.RegionIndex()), ext)
	}

	ext = clampExt(ext, r.lib.cfg.MaxExpirationExtension)

	if r.lib.cfg.Debug {
		if !r.globalObjBuf.Active() || r.globalObjBuf.Age != r.currentTime {
			return &Error{Op: "GlobalRefresh", Code: ErrPreconditionBreach}
		}
	}

	if !h.IncrementDC() {
		return &Error{Op: "GlobalRefresh", Code: ErrCounterSaturated}
	}

	// Global buffers carry two extra slots (L_global = EXT+2) to give
	// every other registered thread time to participate in the phase
	// that would otherwise expire this entry too early; the extra
	// offset is added here rather than at buffer-size time (spec
	// section 4.2, "Buffer index semantics").
	descbuf.Insert(&r.globalObjBuf, r.objPagePool, r.descPerPage, h, ext+2)
	r.lib.cfg.Stats.RecordRefresh()

	return nil
}

// RefreshRegion declares region idx (and every object inside it) alive
// for ext more ticks of the root's base local clock (spec:
// refresh_region).
func (r *Root) RefreshRegion(idx, ext int) error {
	return r.RefreshRegionWithClock(idx, ext, 0)
}

// RefreshRegionWithClock is RefreshRegion against local clock k (spec:
// refresh_region_with_clock).
func (r *Root) RefreshRegionWithClock(idx, ext, k int) error {
	if idx < 0 || idx >= len(r.regions) {
		return &Error{Op: "RefreshRegionWithClock", Code: ErrInvalidRegion}
	}

	if k < 0 || k >= len(r.localRegBuf) {
		return &Error{Op: "RefreshRegionWithClock", Code: ErrInvalidClock}
	}

	ext = clampExt(ext, r.lib.cfg.MaxExpirationExtension)

	if r.lib.cfg.Debug {
		if !r.localRegBuf[k].Active() || r.localRegBuf[k].Age != r.currentTime {
			return &Error{Op: "RefreshRegionWithClock", Code: ErrPreconditionBreach}
		}
	}

	reg := &r.regions[idx]
	if !reg.IncrementDC() {
		return &Error{Op: "RefreshRegionWithClock", Code: ErrCounterSaturated}
	}

	descbuf.Insert(&r.localRegBuf[k], r.regPagePool, r.descPerPage, reg, ext)
	r.lib.cfg.Stats.RecordRefresh()

	return nil
}

// GlobalRefreshRegion declares region idx alive for ext more global
// ticks (spec: global_refresh_region).
func (r *Root) GlobalRefreshRegion(idx, ext int) error {
	if idx < 0 || idx >= len(r.regions) {
		return &Error{Op: "GlobalRefreshRegion", Code: ErrInvalidRegion}
	}

	ext = clampExt(ext, r.lib.cfg.MaxExpirationExtension)

	if r.lib.cfg.Debug {
		if !r.globalRegBuf.Active() || r.globalRegBuf.Age != r.currentTime {
			return &Error{Op: "GlobalRefreshRegion", Code: ErrPreconditionBreach}
		}
	}

	reg := &r.regions[idx]
	if !reg.IncrementDC() {
		return &Error{Op: "GlobalRefreshRegion", Code: ErrCounterSaturated}
	}

	descbuf.Insert(&r.globalRegBuf, r.regPagePool, r.descPerPage, reg, ext+2)
	r.lib.cfg.Stats.RecordRefresh()

	return nil
}
