// Package region implements region-scoped bump allocation into chained
// pages with a collective lifetime (spec component E): a Region owns a
// singly linked chain of byte-backed Pages and hands out objects by
// advancing a bump pointer, never individually freeing them.
package region

import (
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/scmalloc/scm/header"
	"github.com/scmalloc/scm/numa"
	"github.com/scmalloc/scm/pagepool"
	"github.com/scmalloc/scm/rawmem"
)

// Page is one chained chunk of raw bytes backing a region's
// bump-allocated objects. Its alignment is whatever the Allocator's
// rawmem.Allocator returns: page-aligned under rawmem.Mmap, not
// guaranteed to be page-aligned under rawmem.Default.
type Page struct {
	Next    *Page
	Payload []byte
}

// Region is a named arena of bump-allocated objects sharing one
// collective descriptor counter (spec section 3, Region).
type Region struct {
	dc                  int32 // atomic descriptor counter, region-scoped
	Age                 uint64
	NumberOfRegionPages int
	ObjectCount         int // objects bump-allocated since the last Reset
	FirstPage           *Page
	LastPage            *Page
	nextFreeOffset      int // bump offset into LastPage.Payload
}

// DC returns the region's current descriptor counter.
func (r *Region) DC() int32 { return atomic.LoadInt32(&r.dc) }

// IncrementDC atomically increments the region's descriptor counter,
// refusing the increment on saturation exactly like header.Header.
func (r *Region) IncrementDC() bool {
	for {
		cur := atomic.LoadInt32(&r.dc)
		if cur == math.MaxInt32 {
			return false
		}

		if atomic.CompareAndSwapInt32(&r.dc, cur, cur+1) {
			return true
		}
	}
}

// DecrementDC atomically decrements the region's descriptor counter and
// reports whether it reached zero, satisfying descbuf.Descriptor.
func (r *Region) DecrementDC() bool {
	return atomic.AddInt32(&r.dc, -1) == 0
}

// Reset clears r back to an uninitialized, empty region at the given age.
func (r *Region) Reset(age uint64) {
	atomic.StoreInt32(&r.dc, 0)
	r.Age = age
	r.NumberOfRegionPages = 0
	r.ObjectCount = 0
	r.FirstPage = nil
	r.LastPage = nil
	r.nextFreeOffset = 0
}

// Reclaimable reports whether r is idle and safe for create_region to
// reuse: it belongs to a past "life" of the thread (Age != currentTime)
// and has no pending descriptors.
func (r *Region) Reclaimable(currentTime uint64) bool {
	return r.FirstPage != nil && r.Age != currentTime && r.DC() == 0
}

// wordAlign rounds size up to the next multiple of the machine word size.
func wordAlign(size uintptr) uintptr {
	const word = unsafe.Sizeof(uintptr(0))

	return (size + word - 1) &^ (word - 1)
}

// HeaderSize is the number of bytes an object header occupies at the
// front of every region-allocated object, mirroring the heap-side
// header layout.
const HeaderSize = unsafe.Sizeof(header.Header{})

// Allocator provides the page-pooling and bump-allocation mechanics
// shared by every region belonging to one descriptor root (spec
// section 4.6: region page pool, init_region_page, alloc_in_region).
type Allocator struct {
	mem         rawmem.Allocator
	pool        *pagepool.Pool[*Page]
	payloadSize int
	hinter      numa.Hinter
	lastNode    int
}

// NewAllocator creates a region page allocator backed by mem, where
// each page requests regionPageSize bytes total (REGION_PAGE_SIZE) and
// up to poolCapacity freed pages are retained for reuse. hinter is
// consulted (best-effort, never blocking) on every fresh page request
// purely for diagnostics via LastNode; pass numa.NullHinter{} to
// disable it.
func NewAllocator(mem rawmem.Allocator, regionPageSize, poolCapacity int, hinter numa.Hinter) *Allocator {
	const bookkeepingWord = 8

	return &Allocator{
		mem:         mem,
		pool:        pagepool.New[*Page](poolCapacity),
		payloadSize: regionPageSize - bookkeepingWord,
		hinter:      hinter,
	}
}

// PayloadSize returns REGION_PAGE_PAYLOAD_SIZE, the usable bytes per page.
func (a *Allocator) PayloadSize() int { return a.payloadSize }

// LastNode reports the NUMA node the hinter associated with the most
// recent fresh page request, or 0 if the hinter never reported one.
// Diagnostic only: it never influences where a page is actually placed.
func (a *Allocator) LastNode() int { return a.lastNode }

// InitPage appends a fresh page to r, taking one from the pool if
// available or requesting new backing bytes from mem otherwise (spec:
// init_region_page). It returns false if no memory is available.
func (a *Allocator) InitPage(r *Region) bool {
	pg, ok := a.pool.Get()
	if ok {
		for i := range pg.Payload {
			pg.Payload[i] = 0
		}

		pg.Next = nil
	} else {
		if node, ok := a.hinter.Hint(); ok {
			a.lastNode = node
		}

		ptr := a.mem.Alloc(uintptr(a.payloadSize))
		if ptr == nil {
			return false
		}

		pg = &Page{Payload: unsafe.Slice((*byte)(ptr), a.payloadSize)}
	}

	if r.LastPage == nil {
		r.FirstPage = pg
	} else {
		r.LastPage.Next = pg
	}

	r.LastPage = pg
	r.NumberOfRegionPages++
	r.nextFreeOffset = 0

	return true
}

// Alloc bump-allocates size bytes within r, tagging the new object's
// header with regionIdx so it is recognized as region-owned (spec:
// alloc_in_region). It returns nil if size cannot fit in any single
// region page.
func (a *Allocator) Alloc(r *Region, regionIdx int32, size uintptr) unsafe.Pointer {
	need := wordAlign(size + HeaderSize)
	if int(need) > a.payloadSize {
		return nil
	}

	if r.LastPage == nil || r.nextFreeOffset+int(need) > len(r.LastPage.Payload) {
		if !a.InitPage(r) {
			return nil
		}
	}

	pg := r.LastPage
	base := r.nextFreeOffset
	r.nextFreeOffset += int(need)

	h := (*header.Header)(unsafe.Pointer(&pg.Payload[base]))
	h.SetFinalizerIndex(-1)
	h.TagRegionWith(regionIdx)

	r.ObjectCount++

	return unsafe.Pointer(&pg.Payload[base+int(HeaderSize)])
}

// Release returns every page of r to the pool, or raw_frees it back to
// mem if the pool is already at capacity, clearing r's bump state.
// Called once a region's descriptor counter reaches zero (spec:
// expire_reg_descriptor_if_exists's region-page walk).
func (a *Allocator) Release(r *Region) {
	for pg := r.FirstPage; pg != nil; {
		next := pg.Next
		pg.Next = nil

		if !a.pool.Put(pg) {
			a.mem.Free(unsafe.Pointer(&pg.Payload[0]))
		}

		pg = next
	}

	r.FirstPage = nil
	r.LastPage = nil
	r.NumberOfRegionPages = 0
	r.nextFreeOffset = 0
}
