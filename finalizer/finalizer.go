// Package finalizer implements the finalizer registry the spec treats
// as an external collaborator (run_finalizer(obj)). It is a minimal,
// concrete slab of callbacks indexed by the FinalizerIndex field an
// object header carries, grounded on the teacher's registry-table
// pattern in internal/runtime/message_passing.go.
//
// Expiration order is FIFO (enqueue order) per the spec's Open
// Question on finalizer ordering: within one page of descriptors, the
// expirer invokes Run for entry 0, then 1, and so on; across pages, a
// page's entries all run before the next page's. Registry itself does
// not enforce ordering — it only stores and invokes callbacks — the
// FIFO guarantee comes from how descbuf.ExpireOne walks the expired
// list.
package finalizer

import "sync"

// Func is a finalizer callback: obj is the payload pointer (as
// unsafe.Pointer, typed any here to avoid importing unsafe into this
// package's public surface — callers pass unsafe.Pointer in practice).
type Func func(obj any)

// Registry is a growable, append-only slab of finalizer callbacks.
// Indices are never recycled: once assigned, index i always refers to
// the same callback for the process lifetime, matching the spec's
// "finalizer_index ≥ 0" invariant that never needs to rebind after an
// object's creation.
type Registry struct {
	mu    sync.Mutex
	funcs []Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends fn and returns its index, suitable for storing in
// an object's FinalizerIndex field. Register never returns a negative
// index; -1 is reserved by callers to mean "no finalizer".
func (r *Registry) Register(fn Func) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs = append(r.funcs, fn)

	return int32(len(r.funcs) - 1)
}

// Run invokes the finalizer at idx with obj. It is a no-op if idx is
// negative or out of range, so callers can pass FinalizerIndex
// unconditionally.
func (r *Registry) Run(idx int32, obj any) {
	if idx < 0 {
		return
	}

	r.mu.Lock()
	fn := r.at(idx)
	r.mu.Unlock()

	if fn != nil {
		fn(obj)
	}
}

func (r *Registry) at(idx int32) Func {
	if int(idx) >= len(r.funcs) {
		return nil
	}

	return r.funcs[idx]
}

// Len reports how many finalizers have been registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.funcs)
}
