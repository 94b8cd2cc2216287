package stats

import "testing"

func TestAccountantSnapshot(t *testing.T) {
	var a Accountant

	a.RecordAlloc(64)
	a.RecordAlloc(32)
	a.RecordFree(64)
	a.RecordRefresh()
	a.RecordTick()

	snap := a.Snapshot()

	if snap.BytesAllocated != 96 {
		t.Fatalf("BytesAllocated = %d, want 96", snap.BytesAllocated)
	}

	if snap.BytesFreed != 64 {
		t.Fatalf("BytesFreed = %d, want 64", snap.BytesFreed)
	}

	if snap.BytesInUse != 32 {
		t.Fatalf("BytesInUse = %d, want 32", snap.BytesInUse)
	}

	if snap.ObjectsAlive != 1 {
		t.Fatalf("ObjectsAlive = %d, want 1", snap.ObjectsAlive)
	}

	if snap.RefreshCount != 1 || snap.TickCount != 1 {
		t.Fatalf("RefreshCount=%d TickCount=%d, want 1,1", snap.RefreshCount, snap.TickCount)
	}
}
