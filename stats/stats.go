// Package stats gives the memory-accounting counters the spec
// mentions only as an external collaborator a concrete home: process-
// wide and per-root tallies of bytes and object counts, exposed for
// diagnostics and for scmhttp's debug endpoint.
//
// Grounded on the teacher's AllocatorStats / metrics_exporter shape
// (internal/allocator/allocator.go, internal/runtime/metrics_exporter.go).
package stats

import "sync/atomic"

// Accountant tracks allocation counters with plain atomics, the same
// way the teacher's OptimizedAllocator does on its hot path.
type Accountant struct {
	bytesAllocated  int64
	bytesFreed      int64
	objectsAlive    int64
	regionsAlive    int64
	refreshCount    int64
	tickCount       int64
	finalizersRun   int64
	descriptorPages int64
	regionPages     int64
}

// RecordAlloc records a new heap or region object of size bytes.
func (a *Accountant) RecordAlloc(size uintptr) {
	atomic.AddInt64(&a.bytesAllocated, int64(size))
	atomic.AddInt64(&a.objectsAlive, 1)
}

// RecordFree records an object of size bytes being reclaimed.
func (a *Accountant) RecordFree(size uintptr) {
	atomic.AddInt64(&a.bytesFreed, int64(size))
	atomic.AddInt64(&a.objectsAlive, -1)
}

// RecordRegionCreated records a new region coming into existence.
func (a *Accountant) RecordRegionCreated() { atomic.AddInt64(&a.regionsAlive, 1) }

// RecordRegionReleased records a region's pages being returned to the pool.
func (a *Accountant) RecordRegionReleased() { atomic.AddInt64(&a.regionsAlive, -1) }

// RecordRegionObjectsFreed records n region-scoped objects going away as a
// batch, when their whole region is released — region objects are never
// freed individually, so this is the region-side counterpart to RecordFree.
func (a *Accountant) RecordRegionObjectsFreed(n int64) {
	atomic.AddInt64(&a.objectsAlive, -n)
}

// RecordRefresh records one refresh call (object or region).
func (a *Accountant) RecordRefresh() { atomic.AddInt64(&a.refreshCount, 1) }

// RecordTick records one tick/tick_clock/global_tick call.
func (a *Accountant) RecordTick() { atomic.AddInt64(&a.tickCount, 1) }

// RecordFinalizerRun records one finalizer invocation during expiration.
func (a *Accountant) RecordFinalizerRun() { atomic.AddInt64(&a.finalizersRun, 1) }

// RecordDescriptorPageAlloc/Free track descriptor page churn, useful
// for judging whether DescriptorPageFreelistSize is well tuned.
func (a *Accountant) RecordDescriptorPageAlloc() { atomic.AddInt64(&a.descriptorPages, 1) }
func (a *Accountant) RecordDescriptorPageFree()  { atomic.AddInt64(&a.descriptorPages, -1) }

// RecordRegionPageAlloc/Free track region page churn.
func (a *Accountant) RecordRegionPageAlloc() { atomic.AddInt64(&a.regionPages, 1) }
func (a *Accountant) RecordRegionPageFree()  { atomic.AddInt64(&a.regionPages, -1) }

// Snapshot is a point-in-time copy of every counter, safe to read and
// serialize without racing further updates.
type Snapshot struct {
	BytesAllocated  int64
	BytesFreed      int64
	BytesInUse      int64
	ObjectsAlive    int64
	RegionsAlive    int64
	RefreshCount    int64
	TickCount       int64
	FinalizersRun   int64
	DescriptorPages int64
	RegionPages     int64
}

// Snapshot reads every counter atomically and returns a consistent-enough view.
func (a *Accountant) Snapshot() Snapshot {
	allocated := atomic.LoadInt64(&a.bytesAllocated)
	freed := atomic.LoadInt64(&a.bytesFreed)

	return Snapshot{
		BytesAllocated:  allocated,
		BytesFreed:      freed,
		BytesInUse:      allocated - freed,
		ObjectsAlive:    atomic.LoadInt64(&a.objectsAlive),
		RegionsAlive:    atomic.LoadInt64(&a.regionsAlive),
		RefreshCount:    atomic.LoadInt64(&a.refreshCount),
		TickCount:       atomic.LoadInt64(&a.tickCount),
		FinalizersRun:   atomic.LoadInt64(&a.finalizersRun),
		DescriptorPages: atomic.LoadInt64(&a.descriptorPages),
		RegionPages:     atomic.LoadInt64(&a.regionPages),
	}
}
