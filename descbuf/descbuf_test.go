package descbuf

import (
	"sync/atomic"
	"testing"

	"github.com/scmalloc/scm/pagepool"
)

// fakeDescriptor is a minimal Descriptor for exercising the buffer ring
// and expirer in isolation from header/region.
type fakeDescriptor struct {
	id int
	dc int32
}

func (f *fakeDescriptor) DecrementDC() bool {
	return atomic.AddInt32(&f.dc, -1) == 0
}

func newTestBuffer(length int) (*Buffer[*fakeDescriptor], *pagepool.Pool[*Page[*fakeDescriptor]]) {
	buf := &Buffer[*fakeDescriptor]{}
	buf.Reset(length, 1)
	pool := pagepool.New[*Page[*fakeDescriptor]](4)

	return buf, pool
}

func TestInsertTargetsExtensionSlot(t *testing.T) {
	buf, pool := newTestBuffer(6)
	d := &fakeDescriptor{id: 1, dc: 1}

	Insert(buf, pool, 4, d, 2)

	slot := (buf.CurrentIndex + 2) % buf.NotExpiredLength
	if buf.NotExpired[slot].Empty() {
		t.Fatalf("expected entry at slot %d", slot)
	}

	if buf.NotExpired[slot].First.N != 1 {
		t.Fatalf("page N = %d, want 1", buf.NotExpired[slot].First.N)
	}
}

func TestExtensionZeroExpiresAtNextTick(t *testing.T) {
	buf, pool := newTestBuffer(6)
	exp := &ExpiredList[*fakeDescriptor]{}
	d := &fakeDescriptor{id: 1, dc: 1}

	Insert(buf, pool, 4, d, 0)
	Advance(buf, exp)

	if exp.Empty() {
		t.Fatalf("expected descriptor to be on the expired list after one advance")
	}

	var freed bool

	if !ExpireOne(exp, pool, func(*fakeDescriptor) { freed = true }) {
		t.Fatalf("ExpireOne should drain the descriptor")
	}

	if !freed {
		t.Fatalf("descriptor with single refresh should be freed after one tick")
	}
}

func TestFIFODrainOrder(t *testing.T) {
	buf, pool := newTestBuffer(4)
	exp := &ExpiredList[*fakeDescriptor]{}

	var order []int

	for i := 1; i <= 5; i++ {
		Insert(buf, pool, 2, &fakeDescriptor{id: i, dc: 1}, 0)
	}

	Advance(buf, exp)

	for ExpireOne(exp, pool, func(d *fakeDescriptor) { order = append(order, d.id) }) {
	}

	for i, id := range order {
		if id != i+1 {
			t.Fatalf("drain order = %v, want ascending enqueue order", order)
		}
	}

	if len(order) != 5 {
		t.Fatalf("drained %d descriptors, want 5", len(order))
	}
}

func TestPageCapacityNeverExceeded(t *testing.T) {
	buf, pool := newTestBuffer(2)

	for i := 0; i < 10; i++ {
		Insert(buf, pool, 3, &fakeDescriptor{id: i, dc: 1}, 0)
	}

	pl := buf.NotExpired[buf.CurrentIndex]
	nonFull := 0

	for pg := pl.First; pg != nil; pg = pg.Next {
		if pg.N > 3 {
			t.Fatalf("page N = %d exceeds capacity 3", pg.N)
		}

		if pg.N < 3 {
			nonFull++
		}
	}

	if nonFull > 1 {
		t.Fatalf("more than one non-full page in the list: %d", nonFull)
	}
}

func TestCurrentIndexInBounds(t *testing.T) {
	buf, _ := newTestBuffer(5)
	exp := &ExpiredList[*fakeDescriptor]{}

	for i := 0; i < 20; i++ {
		Advance(buf, exp)

		if buf.CurrentIndex < 0 || buf.CurrentIndex >= buf.NotExpiredLength {
			t.Fatalf("current index %d out of bounds [0,%d)", buf.CurrentIndex, buf.NotExpiredLength)
		}
	}
}

func TestDescriptorsPerPage(t *testing.T) {
	if n := DescriptorsPerPage(64); n < 1 {
		t.Fatalf("DescriptorsPerPage(64) = %d, want >= 1", n)
	}
}
