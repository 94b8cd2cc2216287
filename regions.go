package scm

import (
	"unsafe"

	"github.com/scmalloc/scm/region"
)

// CreateRegion finds a region slot to reuse — one belonging to a past
// life of the thread with no pending descriptors, or one never used —
// and initializes its first page (spec: create_region). It returns
// the region's index, stable for the region's lifetime, or -1 if no
// slot was reusable or memory ran out initializing the first page.
func (r *Root) CreateRegion() int {
	n := len(r.regions)
	if n == 0 {
		return -1
	}

	for i := 0; i < n; i++ {
		idx := (r.nextRegIndex + i) % n
		reg := &r.regions[idx]

		if reg.FirstPage != nil && !reg.Reclaimable(r.currentTime) {
			continue
		}

		if reg.FirstPage != nil {
			r.releaseRegion(reg)
		}

		reg.Reset(r.currentTime)

		if !r.regionAlloc.InitPage(reg) {
			return -1
		}

		r.nextRegIndex = (idx + 1) % n
		r.lib.cfg.Stats.RecordRegionCreated()

		return idx
	}

	return -1
}

// UnregisterRegion marks region idx as belonging to a past life: no
// further AllocInRegion calls should target it, and it becomes
// eligible for CreateRegion reuse once its descriptor counter reaches
// zero (spec: symmetric to unregister_clock, but at region scope).
func (r *Root) UnregisterRegion(idx int) error {
	if idx < 0 || idx >= len(r.regions) {
		return &Error{Op: "UnregisterRegion", Code: ErrInvalidRegion}
	}

	r.regions[idx].Age = r.currentTime - 1

	return nil
}

// AllocInRegion bump-allocates size bytes inside region idx (spec:
// alloc_in_region), tagging the returned object's header so Free and
// Realloc refuse to touch it individually: its memory is only ever
// reclaimed when the whole region expires.
func (r *Root) AllocInRegion(idx int, size uintptr) (unsafe.Pointer, error) {
	if idx < 0 || idx >= len(r.regions) {
		return nil, &Error{Op: "AllocInRegion", Code: ErrInvalidRegion}
	}

	reg := &r.regions[idx]

	ptr := r.regionAlloc.Alloc(reg, int32(idx), size)
	if ptr == nil {
		if size+uintptr(headerSize) > uintptr(r.regionAlloc.PayloadSize()) {
			return nil, &Error{Op: "AllocInRegion", Code: ErrOversizeForRegion}
		}

		return nil, &Error{Op: "AllocInRegion", Code: ErrOutOfMemory}
	}

	r.lib.cfg.Stats.RecordAlloc(size)

	return ptr, nil
}

// releaseRegion returns every page reg owned to the region page pool
// (or frees it back to the backing allocator if the pool is full) and
// accounts for the region's objects going away as a batch. It is the
// onZero callback descbuf.ExpireOne/DrainEager invoke once a region's
// collective descriptor counter reaches zero (spec:
// expire_reg_descriptor_if_exists's region-page walk), and is also
// called directly by CreateRegion when it reclaims a Reclaimable slot
// ahead of the expired-list walk reaching it.
func (r *Root) releaseRegion(reg *region.Region) {
	objects := int64(reg.ObjectCount)

	r.regionAlloc.Release(reg)
	r.lib.cfg.Stats.RecordRegionReleased()
	r.lib.cfg.Stats.RecordRegionObjectsFreed(objects)
}
