// Package rawmem is the byte-allocator collaborator the spec treats as
// external: raw_alloc, raw_free and raw_usable_size. Heap objects (with
// their headers) and region pages are built on top of the Allocator
// interface, so an embedder can swap in a real system allocator
// without touching the rest of the library. Descriptor pages are
// ordinary Go values and do not go through this interface.
package rawmem

import (
	"runtime"
	"sync"
	"unsafe"
)

// Allocator is the byte-level allocator the rest of the library
// depends on. size is always in bytes; UsableSize reports at least as
// many bytes as were requested, mirroring malloc_usable_size.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(ptr unsafe.Pointer)
	UsableSize(ptr unsafe.Pointer) uintptr
}

// Default is a plain Go-backed Allocator suitable for most embedders:
// it allocates with make([]byte, ...), keeps the slice header alive in
// a side table so the pointer remains valid once returned as
// unsafe.Pointer, and drops the table entry on Free so the garbage
// collector reclaims the backing array. Grounded directly on the
// teacher's SystemAllocatorImpl.
type Default struct {
	mu    sync.Mutex
	boxes map[unsafe.Pointer][]byte
}

// NewDefault creates a ready-to-use Default allocator.
func NewDefault() *Default {
	return &Default{boxes: make(map[unsafe.Pointer][]byte)}
}

// Alloc allocates size bytes, returning nil for a zero-sized request.
func (d *Default) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	buf := make([]byte, size)
	ptr := unsafe.Pointer(&buf[0])

	d.mu.Lock()
	d.boxes[ptr] = buf
	d.mu.Unlock()

	runtime.KeepAlive(buf)

	return ptr
}

// Free releases the tracking entry for ptr. The backing array becomes
// eligible for garbage collection once nothing else references it.
func (d *Default) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	d.mu.Lock()
	delete(d.boxes, ptr)
	d.mu.Unlock()
}

// UsableSize reports the tracked allocation size for ptr, or 0 if ptr
// is unknown (already freed, or nil).
func (d *Default) UsableSize(ptr unsafe.Pointer) uintptr {
	if ptr == nil {
		return 0
	}

	d.mu.Lock()
	buf, ok := d.boxes[ptr]
	d.mu.Unlock()

	if !ok {
		return 0
	}

	return uintptr(len(buf))
}

// Live reports how many outstanding allocations Default is tracking,
// useful for leak checks in tests.
func (d *Default) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.boxes)
}
