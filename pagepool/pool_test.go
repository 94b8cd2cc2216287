package pagepool

import "testing"

func TestPoolRecycling(t *testing.T) {
	p := New[*int](2)

	if _, ok := p.Get(); ok {
		t.Fatalf("Get on empty pool should fail")
	}

	a, b, c := new(int), new(int), new(int)

	if !p.Put(a) || !p.Put(b) {
		t.Fatalf("Put should succeed within capacity")
	}

	if p.Put(c) {
		t.Fatalf("Put beyond capacity should be rejected")
	}

	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}

	got, ok := p.Get()
	if !ok || got != b {
		t.Fatalf("Get should return most recently pushed node (LIFO)")
	}

	if p.Len() != 1 {
		t.Fatalf("Len after Get = %d, want 1", p.Len())
	}
}
