// Command scm-smoke-test runs the library's core lifecycle scenarios
// end-to-end and exits non-zero on the first one that doesn't hold,
// grounded on the teacher's orizon-smoke-test (a single-binary,
// assertion-style E2E check rather than a `go test` run).
package main

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/scmalloc/scm"
)

type check struct {
	name string
	run  func() error
}

func main() {
	fmt.Println("=== scm allocator smoke test ===")

	checks := []check{
		{"heap object expires after its refresh's extension", checkHeapLifetime},
		{"object survives while a region-tagged refresh stays pending", checkRegionLifetime},
		{"realloc orphans the old object until expiration", checkReallocOrphan},
		{"refresh clamps extensions above MaxExpirationExtension", checkClamp},
	}

	failed := 0

	for _, c := range checks {
		if err := c.run(); err != nil {
			fmt.Printf("FAIL  %s: %v\n", c.name, err)
			failed++

			continue
		}

		fmt.Printf("PASS  %s\n", c.name)
	}

	if failed > 0 {
		fmt.Printf("\n%d/%d checks failed\n", failed, len(checks))
		os.Exit(1)
	}

	fmt.Printf("\nall %d checks passed\n", len(checks))
}

func checkHeapLifetime() error {
	lib := scm.New()
	root := lib.RegisterThread()

	var freed bool

	p := lib.Alloc(64)
	lib.SetFinalizer(p, func(unsafe.Pointer) { freed = true })

	if err := root.Refresh(p, 2); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	for i := 0; i < 2; i++ {
		root.Tick()

		if freed {
			return fmt.Errorf("freed too early, after tick %d", i+1)
		}
	}

	root.Tick()

	if !freed {
		return fmt.Errorf("not freed after three ticks")
	}

	return nil
}

func checkRegionLifetime() error {
	lib := scm.New()
	root := lib.RegisterThread()

	idx := root.CreateRegion()
	if idx < 0 {
		return fmt.Errorf("CreateRegion failed")
	}

	if _, err := root.AllocInRegion(idx, 16); err != nil {
		return fmt.Errorf("AllocInRegion: %w", err)
	}

	if err := root.RefreshRegion(idx, 1); err != nil {
		return fmt.Errorf("RefreshRegion: %w", err)
	}

	root.Tick()

	if alive := lib.Snapshot().RegionsAlive; alive != 1 {
		return fmt.Errorf("region reclaimed too early: RegionsAlive = %d, want 1", alive)
	}

	if _, err := root.AllocInRegion(idx, 16); err != nil {
		return fmt.Errorf("AllocInRegion after tick: %w", err)
	}

	return nil
}

func checkReallocOrphan() error {
	lib := scm.New()
	root := lib.RegisterThread()

	var oldFreed bool

	p := lib.Alloc(16)
	lib.SetFinalizer(p, func(unsafe.Pointer) { oldFreed = true })

	if err := root.Refresh(p, 1); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	q := lib.Realloc(p, 32)
	if q == nil {
		return fmt.Errorf("realloc returned nil")
	}

	if lib.UsableSize(q) < 32 {
		return fmt.Errorf("new allocation too small")
	}

	if oldFreed {
		return fmt.Errorf("old object freed by realloc despite a pending refresh")
	}

	root.Tick()
	root.Tick()

	if !oldFreed {
		return fmt.Errorf("old object not freed once its refresh expired")
	}

	return nil
}

func checkClamp() error {
	lib := scm.New(scm.WithMaxExpirationExtension(2))
	root := lib.RegisterThread()

	var freed bool

	p := lib.Alloc(8)
	lib.SetFinalizer(p, func(unsafe.Pointer) { freed = true })

	if err := root.Refresh(p, 1000); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	for i := 0; i < 2; i++ {
		root.Tick()

		if freed {
			return fmt.Errorf("freed too early, after tick %d", i+1)
		}
	}

	root.Tick()

	if !freed {
		return fmt.Errorf("refresh(1000) was not clamped to MaxExpirationExtension=2")
	}

	return nil
}
