// Package header implements the per-allocation metadata word prepended
// to every object handed out by the allocator (spec component A).
//
// A Header discriminates two kinds of allocation by the sign of a single
// word: a non-negative value is a pending-descriptor counter for a
// heap-style object; a negative value (high bit set) tags the object as
// belonging to a region, with the region index packed into the low
// bits. The sign-encoded word is kept for layout parity with the
// original C header, but callers should prefer the typed accessors
// below over touching Raw directly.
package header

import (
	"math"
	"sync/atomic"
)

// HBMask is the sentinel high bit used to tag a region-allocated object.
// Equivalent to the original's HB_MASK = UINT_MAX - INT_MAX.
const HBMask int32 = math.MinInt32

// Tag distinguishes the two allocation kinds an Header can describe.
type Tag int

const (
	// TagHeap marks a conventional heap object tracked by a descriptor counter.
	TagHeap Tag = iota
	// TagRegion marks an object bump-allocated inside a region.
	TagRegion
)

// Header is the fixed-size metadata block preceding a payload.
//
// Raw is accessed exclusively through atomic operations: the application
// may refresh() an object from any thread, and the expirer may decrement
// its counter from another, so every touch must be a single-word atomic
// RMW.
type Header struct {
	Raw            int32 // descriptor counter (TagHeap) or region id | HBMask (TagRegion)
	FinalizerIndex int32 // index into the finalizer registry, or -1
}

// Init resets h to a freshly allocated heap object with no pending
// descriptors and no finalizer registered.
func (h *Header) Init() {
	atomic.StoreInt32(&h.Raw, 0)
	atomic.StoreInt32(&h.FinalizerIndex, -1)
}

// Tag reports whether h is a heap object or a region-tagged object.
func (h *Header) Tag() Tag {
	if atomic.LoadInt32(&h.Raw) < 0 {
		return TagRegion
	}

	return TagHeap
}

// DC returns the current descriptor counter. Valid only for TagHeap headers.
func (h *Header) DC() int32 {
	return atomic.LoadInt32(&h.Raw)
}

// RegionIndex returns the region index packed into h. Valid only for
// TagRegion headers.
func (h *Header) RegionIndex() int32 {
	return atomic.LoadInt32(&h.Raw) &^ HBMask
}

// FinalizerIdx atomically reads the registry slot assigned to h, or -1
// if none was ever registered.
func (h *Header) FinalizerIdx() int32 {
	return atomic.LoadInt32(&h.FinalizerIndex)
}

// SetFinalizerIndex records which registry slot run_finalizer should use
// for h. Safe to call concurrently with Init/DecrementDC elsewhere, but
// must not race with another SetFinalizerIndex on the same header.
func (h *Header) SetFinalizerIndex(idx int32) {
	atomic.StoreInt32(&h.FinalizerIndex, idx)
}

// TagRegionWith permanently tags h as belonging to region index idx. Per
// the data model invariant, a region-allocated object's Raw field never
// changes again after this call.
func (h *Header) TagRegionWith(idx int32) {
	atomic.StoreInt32(&h.Raw, idx|HBMask)
}

// IncrementDC atomically increments the descriptor counter, refusing the
// increment (and reporting false) if the counter has saturated at
// math.MaxInt32. Only meaningful for TagHeap headers.
func (h *Header) IncrementDC() bool {
	for {
		cur := atomic.LoadInt32(&h.Raw)
		if cur == math.MaxInt32 {
			return false
		}

		if atomic.CompareAndSwapInt32(&h.Raw, cur, cur+1) {
			return true
		}
	}
}

// DecrementDC atomically decrements the descriptor counter and reports
// whether it reached zero, i.e. whether the object has no further
// pending references and may be finalized/freed.
func (h *Header) DecrementDC() bool {
	return atomic.AddInt32(&h.Raw, -1) == 0
}
