package header

import (
	"math"
	"sync/atomic"
	"testing"
)

func TestHeapLifecycle(t *testing.T) {
	var h Header
	h.Init()

	if tag := h.Tag(); tag != TagHeap {
		t.Fatalf("fresh header tag = %v, want TagHeap", tag)
	}

	if h.DC() != 0 {
		t.Fatalf("fresh header DC = %d, want 0", h.DC())
	}

	if !h.IncrementDC() {
		t.Fatalf("IncrementDC failed unexpectedly")
	}

	if h.DC() != 1 {
		t.Fatalf("DC after increment = %d, want 1", h.DC())
	}

	if zero := h.DecrementDC(); !zero {
		t.Fatalf("DecrementDC() = false, want true at zero")
	}

	if h.DC() != 0 {
		t.Fatalf("DC after decrement = %d, want 0", h.DC())
	}
}

func TestCounterSaturation(t *testing.T) {
	var h Header
	h.Init()
	atomicStoreRaw(&h, math.MaxInt32)

	if h.IncrementDC() {
		t.Fatalf("IncrementDC at MaxInt32 should fail")
	}
}

func TestRegionTagging(t *testing.T) {
	var h Header
	h.Init()
	h.TagRegionWith(7)

	if tag := h.Tag(); tag != TagRegion {
		t.Fatalf("tag = %v, want TagRegion", tag)
	}

	if idx := h.RegionIndex(); idx != 7 {
		t.Fatalf("RegionIndex = %d, want 7", idx)
	}
}

func atomicStoreRaw(h *Header, v int32) {
	atomic.StoreInt32(&h.Raw, v)
}
