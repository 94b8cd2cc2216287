package scm

import (
	"unsafe"

	"github.com/scmalloc/scm/header"
)

// headerSize is the fixed number of bytes every allocation reserves
// ahead of the payload pointer it returns to the caller.
const headerSize = unsafe.Sizeof(header.Header{})

// headerOf recovers the header immediately preceding a payload
// pointer previously returned by Alloc/Calloc/Realloc/AllocInRegion.
func headerOf(payload unsafe.Pointer) *header.Header {
	return (*header.Header)(unsafe.Pointer(uintptr(payload) - headerSize))
}

// Alloc requests size bytes from the byte-level allocator, reserving
// room for a header ahead of the returned payload pointer and
// initializing it as a fresh heap object with a zero descriptor
// counter and no finalizer (spec: alloc). It returns nil if size is
// zero or the backing allocator is out of memory.
func (lib *Library) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	block := lib.cfg.Mem.Alloc(headerSize + size)
	if block == nil {
		return nil
	}

	h := (*header.Header)(block)
	h.Init()

	lib.cfg.Stats.RecordAlloc(size)

	return unsafe.Pointer(uintptr(block) + headerSize)
}

// Calloc is Alloc(n*size) with the result zeroed. Every rawmem.Allocator
// this library ships (Default and Mmap) already hands back zero-filled
// memory, so Calloc rides on that guarantee rather than zeroing again;
// an embedder supplying a custom rawmem.Allocator that does not
// zero-fill must zero the returned payload itself. It returns nil on
// overflow of n*size or on the same conditions as Alloc.
func (lib *Library) Calloc(n, size uintptr) unsafe.Pointer {
	if n == 0 || size == 0 {
		return lib.Alloc(0)
	}

	total := n * size
	if total/n != size {
		return nil
	}

	return lib.Alloc(total)
}

// Free reclaims ptr immediately if its descriptor counter is already
// zero (no pending refresh anywhere); otherwise it is a no-op and
// reclamation happens later, when the counter's last outstanding
// refresh expires (spec: free). Calling Free on a region-tagged
// pointer is a misuse the library tolerates silently: the object is
// only ever reclaimed by its owning region's expiration, never by an
// individual free call.
func (lib *Library) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	h := headerOf(ptr)
	if h.Tag() == header.TagRegion {
		return
	}

	if h.DC() != 0 {
		return
	}

	sz := lib.cfg.Mem.UsableSize(unsafe.Pointer(h))
	lib.cfg.Mem.Free(unsafe.Pointer(h))

	if sz > headerSize {
		lib.cfg.Stats.RecordFree(sz - headerSize)
	}
}

// UsableSize reports how many payload bytes ptr's allocation actually
// has room for, which may exceed the size originally requested.
func (lib *Library) UsableSize(ptr unsafe.Pointer) uintptr {
	if ptr == nil {
		return 0
	}

	sz := lib.cfg.Mem.UsableSize(unsafe.Pointer(headerOf(ptr)))
	if sz <= headerSize {
		return 0
	}

	return sz - headerSize
}

// Realloc resizes ptr to size bytes, preserving the overlapping
// prefix of its content, and returns the new payload pointer (which
// may differ from ptr even when size shrinks, since headers are never
// moved in place). If ptr is still referenced by a pending refresh
// (its descriptor counter is nonzero) the old allocation is not freed:
// it becomes an orphan object, reclaimed the same way any other
// object is once its last refresh expires, at which point the expirer
// runs the finalizer registered on it, if any, and raw_frees it (spec
// section 4.1). Calling Realloc on a region-tagged pointer is refused
// (region objects cannot be resized individually).
func (lib *Library) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	if ptr == nil {
		return lib.Alloc(size)
	}

	h := headerOf(ptr)
	if h.Tag() == header.TagRegion {
		return nil
	}

	oldUsable := lib.cfg.Mem.UsableSize(unsafe.Pointer(h))

	var oldPayload uintptr
	if oldUsable > headerSize {
		oldPayload = oldUsable - headerSize
	}

	newPtr := lib.Alloc(size)
	if newPtr == nil {
		return nil
	}

	copySize := oldPayload
	if size < copySize {
		copySize = size
	}

	if copySize > 0 {
		dst := unsafe.Slice((*byte)(newPtr), copySize)
		src := unsafe.Slice((*byte)(ptr), copySize)
		copy(dst, src)
	}

	if h.DC() == 0 {
		lib.cfg.Mem.Free(unsafe.Pointer(h))

		if oldPayload > 0 {
			lib.cfg.Stats.RecordFree(oldPayload)
		}
	}

	return newPtr
}

// SetFinalizer registers fn to run when ptr's object is reclaimed
// through expiration (not through an explicit Free call with a
// already-zero counter, which raw-frees without ceremony). Calling it
// more than once on the same object overwrites which finalizer will
// run; calling it on a region-tagged pointer is a no-op, since
// individual region objects have no finalizer slot of their own.
func (lib *Library) SetFinalizer(ptr unsafe.Pointer, fn func(payload unsafe.Pointer)) {
	if ptr == nil || fn == nil {
		return
	}

	h := headerOf(ptr)
	if h.Tag() == header.TagRegion {
		return
	}

	idx := lib.cfg.Finalizers.Register(func(obj any) {
		fn(obj.(unsafe.Pointer))
	})
	h.SetFinalizerIndex(idx)
}

// finalizeAndFreeObject is the onZero callback descbuf.ExpireOne/DrainEager
// invoke once an object's descriptor counter reaches zero during
// expiration (spec: expire_obj_descriptor_if_exists). A region-tagged
// entry reaching this point means a stale reference into a region was
// queued before the object's header was overwritten by TagRegionWith;
// the region, not this call, owns that memory's reclamation, so it is
// skipped.
func (r *Root) finalizeAndFreeObject(h *header.Header) {
	if h.Tag() == header.TagRegion {
		return
	}

	payload := unsafe.Pointer(uintptr(unsafe.Pointer(h)) + headerSize)
	sz := r.lib.cfg.Mem.UsableSize(unsafe.Pointer(h))

	r.lib.cfg.Finalizers.Run(h.FinalizerIdx(), payload)
	r.lib.cfg.Stats.RecordFinalizerRun()

	r.lib.cfg.Mem.Free(unsafe.Pointer(h))

	if sz > headerSize {
		r.lib.cfg.Stats.RecordFree(sz - headerSize)
	}
}
