package finalizer

import "testing"

func TestRegisterRunFIFO(t *testing.T) {
	r := NewRegistry()

	var order []int

	idx0 := r.Register(func(obj any) { order = append(order, obj.(int)) })
	idx1 := r.Register(func(obj any) { order = append(order, obj.(int)) })

	r.Run(idx0, 10)
	r.Run(idx1, 20)
	r.Run(-1, 30) // no-op

	if len(order) != 2 || order[0] != 10 || order[1] != 20 {
		t.Fatalf("order = %v, want [10 20]", order)
	}
}

func TestRunOutOfRangeIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Run(5, nil) // must not panic
}
