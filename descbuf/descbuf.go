// Package descbuf implements the descriptor page, the ring of
// page-lists indexed by expiration offset, and the expired-page list
// and expirer (spec components B, C and D).
//
// The package is generic over what a descriptor entry actually is: an
// object header or a region, because both are driven through exactly
// the same ring-buffer/expired-list machinery and differ only in what
// "decrement to zero" means. Descriptor captures that one shared
// operation.
package descbuf

import "github.com/scmalloc/scm/pagepool"

// Descriptor is the one operation the expirer needs from an entry: an
// atomic decrement that reports whether the reference count reached
// zero. Both *header.Header and *region.Region satisfy this.
type Descriptor interface {
	DecrementDC() bool
}

// Page is a fixed-capacity array of descriptor entries plus a
// next-pointer, recycled via a per-root pagepool.Pool.
type Page[T Descriptor] struct {
	Next    *Page[T]
	N       int
	Entries []T // len == capacity; only Entries[:N] are live
}

func newPage[T Descriptor](pool *pagepool.Pool[*Page[T]], capacity int) *Page[T] {
	if pg, ok := pool.Get(); ok {
		return pg
	}

	return &Page[T]{Entries: make([]T, capacity)}
}

// PageList is a (first,last) handle onto a singly linked chain of pages.
type PageList[T Descriptor] struct {
	First *Page[T]
	Last  *Page[T]
}

// Empty reports whether the list holds no pages.
func (l *PageList[T]) Empty() bool { return l.First == nil }

// Role tags what a Buffer is currently used for.
type Role int

const (
	RoleUnused Role = iota
	RoleLocal
	RoleGlobal
)

// Buffer is the ring of page-lists indexed by expiration offset from
// "now" for one clock (spec component C).
type Buffer[T Descriptor] struct {
	NotExpired       []PageList[T]
	CurrentIndex     int
	NotExpiredLength int // 0 (unused), L_local, or L_global
	Age              uint64
}

// Reset (re)initializes buf as a live buffer of the given length,
// belonging to the given thread "life" age. All slots start empty.
func (buf *Buffer[T]) Reset(length int, age uint64) {
	if cap(buf.NotExpired) < length {
		buf.NotExpired = make([]PageList[T], length)
	} else {
		buf.NotExpired = buf.NotExpired[:length]
		for i := range buf.NotExpired {
			buf.NotExpired[i] = PageList[T]{}
		}
	}

	buf.CurrentIndex = 0
	buf.NotExpiredLength = length
	buf.Age = age
}

// Active reports whether buf is currently in use (invariant (iii) of
// spec section 3: not_expired_length == 0 iff unused).
func (buf *Buffer[T]) Active() bool { return buf.NotExpiredLength != 0 }

// Zombie reports whether buf belongs to a prior "life" of the thread
// and is pending cleanup.
func (buf *Buffer[T]) Zombie(currentTime uint64) bool {
	return buf.Active() && buf.Age != currentTime
}

// ExpiredList accumulates pages that rolled past their expiration slot,
// pending incremental drain by the expirer (spec component D).
type ExpiredList[T Descriptor] struct {
	First     *Page[T]
	Last      *Page[T]
	Collected int
}

// Empty reports whether the expired list holds no pending descriptors.
func (e *ExpiredList[T]) Empty() bool { return e.First == nil }

// Insert records entry as a reference that must stay alive until the
// slot (buf.CurrentIndex+ext) mod buf.NotExpiredLength is expired
// (spec section 4.4). capacity is DESCRIPTORS_PER_PAGE for this
// buffer's page size.
func Insert[T Descriptor](buf *Buffer[T], pool *pagepool.Pool[*Page[T]], capacity int, entry T, ext int) {
	slot := (buf.CurrentIndex + ext) % buf.NotExpiredLength
	pl := &buf.NotExpired[slot]

	if pl.Last == nil || pl.Last.N == capacity {
		pg := newPage(pool, capacity)
		if pl.Last == nil {
			pl.First = pg
		} else {
			pl.Last.Next = pg
		}

		pl.Last = pg
	}

	pl.Last.Entries[pl.Last.N] = entry
	pl.Last.N++
}

// Advance moves buf.CurrentIndex forward by one slot and splices the
// page-list that just rolled past (the pre-advance slot) onto the tail
// of exp, implementing tick_clock steps 1-2 / expire_buffer (spec
// sections 4.2, 4.5).
func Advance[T Descriptor](buf *Buffer[T], exp *ExpiredList[T]) {
	pre := buf.CurrentIndex
	buf.CurrentIndex = (buf.CurrentIndex + 1) % buf.NotExpiredLength

	pl := &buf.NotExpired[pre]
	if !pl.Empty() {
		if exp.First == nil {
			exp.First = pl.First
		} else {
			exp.Last.Next = pl.First
		}

		exp.Last = pl.Last
	}

	*pl = PageList[T]{}
}

// ExpireOne drains a single descriptor entry from the head of exp,
// decrementing its counter and invoking onZero if it reached zero.
// It reports false if exp was already empty (spec:
// expire_obj_descriptor_if_exists / expire_reg_descriptor_if_exists).
func ExpireOne[T Descriptor](exp *ExpiredList[T], pool *pagepool.Pool[*Page[T]], onZero func(T)) bool {
	if exp.First == nil {
		return false
	}

	pg := exp.First
	entry := pg.Entries[exp.Collected]

	if entry.DecrementDC() {
		onZero(entry)
	}

	exp.Collected++

	if exp.Collected == pg.N {
		exp.First = pg.Next
		if exp.First == nil {
			exp.Last = nil
		}

		exp.Collected = 0

		for i := range pg.Entries {
			var zero T

			pg.Entries[i] = zero
		}

		pg.N = 0
		pg.Next = nil
		pool.Put(pg)
	}

	return true
}

// DrainEager repeatedly calls ExpireOne until exp is empty, implementing
// the eager collection policy (spec section 4.5).
func DrainEager[T Descriptor](exp *ExpiredList[T], pool *pagepool.Pool[*Page[T]], onZero func(T)) {
	for ExpireOne(exp, pool, onZero) {
	}
}

// EntrySize is the per-entry footprint (in bytes) used to size a page
// to fit within one page-size budget. Page[T] is instantiated with
// pointer types (*header.Header, *region.Region), so each entry of
// Entries is a single pointer word, as in the original C layout.
const EntrySize = 8 // bytes; one pointer on a 64-bit platform

// DescriptorsPerPage computes DESCRIPTORS_PER_PAGE for a given page
// byte budget: (PAGE_SIZE - 2*word)/EntrySize, reserving two words for
// the Next pointer and the page's own N/bookkeeping word.
func DescriptorsPerPage(pageSizeBytes int) int {
	const wordSize = 8

	n := (pageSizeBytes - 2*wordSize) / EntrySize
	if n < 1 {
		n = 1
	}

	return n
}
