// Package numa implements the optional, additive NUMA-aware region page
// placement described in SPEC_FULL.md §4.11. It is disabled by
// default; region.Allocator's behavior is unchanged unless an embedder
// explicitly wires a Hinter in. Grounded on the teacher's
// internal/runtime/numa_optimizer.go topology/affinity model, scaled
// down to what golang.org/x/sys/unix can portably report.
package numa

// Hinter reports a best-effort NUMA placement hint for the calling
// goroutine's underlying OS thread. It never blocks allocation
// decisions on precise topology data — a wrong or stale hint only
// costs locality, never correctness.
type Hinter interface {
	// Hint returns the NUMA node the caller is probably running on,
	// or ok=false if no hint is available (e.g. unsupported platform).
	Hint() (node int, ok bool)
}

// NullHinter always reports no hint, matching the library's default,
// NUMA-unaware behavior.
type NullHinter struct{}

// Hint implements Hinter.
func (NullHinter) Hint() (int, bool) { return 0, false }
