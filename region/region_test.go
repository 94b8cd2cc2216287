package region

import (
	"math"
	"testing"
	"unsafe"

	"github.com/scmalloc/scm/header"
	"github.com/scmalloc/scm/numa"
	"github.com/scmalloc/scm/rawmem"
)

func newTestAllocator(t *testing.T, pageSize int) *Allocator {
	t.Helper()
	return NewAllocator(rawmem.NewDefault(), pageSize, 4, numa.NullHinter{})
}

func TestAllocBumpsWithinOnePage(t *testing.T) {
	a := newTestAllocator(t, 4096)

	var r Region
	r.Reset(1)

	p1 := a.Alloc(&r, 0, 16)
	p2 := a.Alloc(&r, 0, 16)

	if p1 == nil || p2 == nil {
		t.Fatal("Alloc returned nil within page budget")
	}

	if uintptr(p2) <= uintptr(p1) {
		t.Fatalf("second allocation did not bump forward: p1=%v p2=%v", p1, p2)
	}

	if r.NumberOfRegionPages != 1 {
		t.Fatalf("NumberOfRegionPages = %d, want 1", r.NumberOfRegionPages)
	}
}

func TestAllocSwitchesPageWhenFull(t *testing.T) {
	a := newTestAllocator(t, 256)

	var r Region
	r.Reset(1)

	for i := 0; i < 20; i++ {
		if a.Alloc(&r, 0, 32) == nil {
			break
		}
	}

	if r.NumberOfRegionPages < 2 {
		t.Fatalf("NumberOfRegionPages = %d, want at least 2 after exceeding one page", r.NumberOfRegionPages)
	}
}

func TestAllocRefusesOversizeObject(t *testing.T) {
	a := newTestAllocator(t, 256)

	var r Region
	r.Reset(1)

	if p := a.Alloc(&r, 0, 10000); p != nil {
		t.Fatal("Alloc should refuse an object that can never fit in one page")
	}
}

func TestAllocTagsHeaderAsRegion(t *testing.T) {
	a := newTestAllocator(t, 4096)

	var r Region
	r.Reset(1)

	payload := a.Alloc(&r, 3, 8)
	if payload == nil {
		t.Fatal("Alloc returned nil")
	}

	h := (*header.Header)(unsafe.Pointer(uintptr(payload) - HeaderSize))
	if h.Tag() != header.TagRegion {
		t.Fatal("region object header not tagged as region")
	}
	if h.RegionIndex() != 3 {
		t.Fatalf("RegionIndex = %d, want 3", h.RegionIndex())
	}
}

func TestReleaseRecyclesPagesAndResetsBumpState(t *testing.T) {
	a := newTestAllocator(t, 4096)

	var r Region
	r.Reset(1)

	if a.Alloc(&r, 0, 16) == nil {
		t.Fatal("Alloc failed")
	}

	a.Release(&r)

	if r.FirstPage != nil || r.LastPage != nil || r.NumberOfRegionPages != 0 {
		t.Fatal("Release did not reset the region's bump state")
	}

	if a.pool.Len() == 0 {
		t.Fatal("Release did not return any page to the pool")
	}
}

func TestReleaseFreesOverflowPagesPastPoolCapacity(t *testing.T) {
	mem := rawmem.NewDefault()
	a := NewAllocator(mem, 256, 1, numa.NullHinter{})

	var r Region
	r.Reset(1)

	// Each allocation is sized past half the page, so only one fits per
	// page: three allocations force three separate pages. The pool
	// holds only one, so Release must raw_free the other two instead
	// of dropping them.
	for i := 0; i < 3; i++ {
		if a.Alloc(&r, 0, 150) == nil {
			t.Fatalf("Alloc %d failed", i)
		}
	}

	if r.NumberOfRegionPages != 3 {
		t.Fatalf("NumberOfRegionPages = %d, want 3", r.NumberOfRegionPages)
	}

	if mem.Live() != 3 {
		t.Fatalf("Live() before Release = %d, want 3", mem.Live())
	}

	a.Release(&r)

	if a.pool.Len() != 1 {
		t.Fatalf("pool.Len() after Release = %d, want 1 (capacity)", a.pool.Len())
	}

	if mem.Live() != 1 {
		t.Fatalf("Live() after Release = %d, want 1 (two overflow pages freed)", mem.Live())
	}
}

func TestDescriptorCounterSaturationRefusesIncrement(t *testing.T) {
	var r Region
	r.Reset(1)

	for i := 0; i < 3; i++ {
		if !r.IncrementDC() {
			t.Fatalf("IncrementDC refused at count %d, want success", i)
		}
	}

	if got := r.DC(); got != 3 {
		t.Fatalf("DC = %d, want 3", got)
	}

	r.dc = math.MaxInt32
	if r.IncrementDC() {
		t.Fatal("IncrementDC at MaxInt32 should be refused")
	}

	if got := r.DC(); got != math.MaxInt32 {
		t.Fatalf("DC after refused increment = %d, want MaxInt32", got)
	}
}

func TestReclaimableRequiresPastLifeAndZeroDC(t *testing.T) {
	var r Region
	r.Reset(5)

	if r.Reclaimable(5) {
		t.Fatal("an unused region (no pages) should never be Reclaimable")
	}

	a := newTestAllocator(t, 4096)
	if !a.InitPage(&r) {
		t.Fatal("InitPage failed")
	}

	if r.Reclaimable(5) {
		t.Fatal("a region from the current life should not be Reclaimable")
	}

	if !r.Reclaimable(6) {
		t.Fatal("a region from a past life with dc==0 should be Reclaimable")
	}

	r.IncrementDC()
	if r.Reclaimable(6) {
		t.Fatal("a region with a pending descriptor should not be Reclaimable")
	}
}
