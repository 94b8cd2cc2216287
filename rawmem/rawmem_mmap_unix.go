//go:build unix

package rawmem

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mmap is an Allocator whose pages are genuinely page-aligned,
// independently unmappable memory obtained via mmap(2), matching the
// spec's requirement that region pages "must be returned page-aligned"
// more literally than the Default, make()-backed allocator can.
// Intended for the region package's page source, not for small heap
// objects. Grounded on the teacher's zerocopy_unix_file.go use of
// golang.org/x/sys/unix.
type Mmap struct {
	mu    sync.Mutex
	sizes map[unsafe.Pointer]int
}

// NewMmap creates a ready-to-use mmap-backed allocator.
func NewMmap() *Mmap {
	return &Mmap{sizes: make(map[unsafe.Pointer]int)}
}

// Alloc maps a fresh, zeroed, anonymous region of at least size bytes.
func (m *Mmap) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}

	ptr := unsafe.Pointer(&b[0])

	m.mu.Lock()
	m.sizes[ptr] = len(b)
	m.mu.Unlock()

	return ptr
}

// Free unmaps the region starting at ptr.
func (m *Mmap) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	m.mu.Lock()
	size, ok := m.sizes[ptr]
	delete(m.sizes, ptr)
	m.mu.Unlock()

	if !ok {
		return
	}

	b := unsafe.Slice((*byte)(ptr), size)
	_ = unix.Munmap(b)
}

// UsableSize reports the mapped size for ptr, or 0 if unknown.
func (m *Mmap) UsableSize(ptr unsafe.Pointer) uintptr {
	if ptr == nil {
		return 0
	}

	m.mu.Lock()
	size := m.sizes[ptr]
	m.mu.Unlock()

	return uintptr(size)
}
