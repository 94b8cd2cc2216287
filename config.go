// Package scm is the descriptor-root and public surface of a
// short-term-memory allocator: a time-based reclamation scheme where
// liveness is declared by periodically refreshing an object or region
// for a bounded number of future ticks, rather than traced.
//
// A Library is one independent allocator instance (its own clock, its
// own terminated-root free-list, its own configuration); a Root is the
// per-thread handle a caller registers once and then uses for every
// refresh/tick/region call made from that thread. Grounded on the
// teacher's functional-options Config/Option pattern
// (internal/allocator/allocator.go).
package scm

import (
	"log"

	"github.com/scmalloc/scm/finalizer"
	"github.com/scmalloc/scm/numa"
	"github.com/scmalloc/scm/rawmem"
	"github.com/scmalloc/scm/stats"
)

// Config collects every tunable the allocator needs at construction
// time. Build one with NewConfig and a list of Options; the zero value
// is never used directly.
type Config struct {
	// MaxExpirationExtension is EXT: the largest extension a single
	// refresh call may request. Local buffers hold EXT+1 slots, global
	// buffers EXT+2.
	MaxExpirationExtension int

	// MaxClocks bounds the number of per-thread local clocks,
	// including the always-present base clock 0.
	MaxClocks int

	// MaxRegions bounds the number of regions live at once per thread.
	MaxRegions int

	// DescriptorPageSize and RegionPageSize are the byte budgets used
	// to size descriptor pages and region pages respectively.
	DescriptorPageSize int
	RegionPageSize     int

	// DescriptorPageFreelistSize and RegionPageFreelistSize bound how
	// many freed pages of each kind a root retains for reuse. Beyond
	// that, descriptor pages are left to the garbage collector and
	// region pages are freed back to Mem.
	DescriptorPageFreelistSize int
	RegionPageFreelistSize     int

	// Eager selects the collection policy: false (the default) drains
	// one expired object descriptor and one expired region descriptor
	// per tick (lazy), true drains every
	// expired descriptor immediately (eager). See SPEC_FULL.md §4.5.
	Eager bool

	// Debug enables the precondition assertions described in
	// SPEC_FULL.md §7 (matching buffer / age checks on refresh calls).
	// Disabled by default since they cost a check on every hot-path call.
	Debug bool

	// Mem is the byte-level allocator every page and object is built
	// on. Defaults to rawmem.NewDefault(); an embedder may swap in
	// rawmem.Mmap or any other rawmem.Allocator.
	Mem rawmem.Allocator

	// Finalizers is the registry run_finalizer draws from.
	Finalizers *finalizer.Registry

	// Stats accumulates the accounting counters every operation
	// updates. Shared across every Root a Library hands out.
	Stats *stats.Accountant

	// NUMAHinter supplies a best-effort NUMA placement hint consulted
	// when a region needs a fresh page, for diagnostics only (see
	// region.Allocator.LastNode). Defaults to numa.NullHinter{}.
	NUMAHinter numa.Hinter

	// Fatal is invoked when an operation hits a condition the spec
	// treats as a caller contract violation with no recoverable
	// continuation (clock-slot exhaustion). Defaults to log.Fatalf.
	Fatal func(format string, args ...any)
}

// Option mutates a Config under construction.
type Option func(*Config)

// DefaultConfig returns the compile-time defaults SPEC_FULL.md §6
// mirrors from the original's constants: EXT=5, MAX_CLOCKS=4,
// MAX_REGIONS=4, 4 KiB descriptor pages, 64 KiB region pages, small
// freelist caps, and the lazy collection policy.
func DefaultConfig() *Config {
	return &Config{
		MaxExpirationExtension:     5,
		MaxClocks:                  4,
		MaxRegions:                 4,
		DescriptorPageSize:         4096,
		RegionPageSize:             64 * 1024,
		DescriptorPageFreelistSize: 32,
		RegionPageFreelistSize:     8,
		Eager:                      false,
		Debug:                      false,
		Mem:                        rawmem.NewDefault(),
		Finalizers:                 finalizer.NewRegistry(),
		Stats:                      &stats.Accountant{},
		NUMAHinter:                 numa.NullHinter{},
		Fatal: func(format string, args ...any) {
			log.Fatalf(format, args...)
		},
	}
}

// NewConfig builds a Config from DefaultConfig plus opts, applied in order.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithMaxExpirationExtension overrides EXT.
func WithMaxExpirationExtension(ext int) Option {
	return func(c *Config) { c.MaxExpirationExtension = ext }
}

// WithMaxClocks overrides MAX_CLOCKS.
func WithMaxClocks(n int) Option {
	return func(c *Config) { c.MaxClocks = n }
}

// WithMaxRegions overrides MAX_REGIONS.
func WithMaxRegions(n int) Option {
	return func(c *Config) { c.MaxRegions = n }
}

// WithDescriptorPageSize overrides the descriptor page byte budget.
func WithDescriptorPageSize(bytes int) Option {
	return func(c *Config) { c.DescriptorPageSize = bytes }
}

// WithRegionPageSize overrides REGION_PAGE_SIZE.
func WithRegionPageSize(bytes int) Option {
	return func(c *Config) { c.RegionPageSize = bytes }
}

// WithDescriptorPageFreelistSize overrides the descriptor page pool cap.
func WithDescriptorPageFreelistSize(n int) Option {
	return func(c *Config) { c.DescriptorPageFreelistSize = n }
}

// WithRegionPageFreelistSize overrides the region page pool cap.
func WithRegionPageFreelistSize(n int) Option {
	return func(c *Config) { c.RegionPageFreelistSize = n }
}

// WithEagerCollection switches to the eager (drain-on-tick) policy.
func WithEagerCollection() Option {
	return func(c *Config) { c.Eager = true }
}

// WithDebug enables precondition assertions.
func WithDebug() Option {
	return func(c *Config) { c.Debug = true }
}

// WithAllocator overrides the byte-level allocator backing every page.
func WithAllocator(mem rawmem.Allocator) Option {
	return func(c *Config) { c.Mem = mem }
}

// WithFatal overrides the hook invoked on unrecoverable contract violations.
func WithFatal(fn func(format string, args ...any)) Option {
	return func(c *Config) { c.Fatal = fn }
}

// WithNUMAHinter overrides the NUMA placement hinter consulted for
// diagnostics when a region requests a fresh page.
func WithNUMAHinter(h numa.Hinter) Option {
	return func(c *Config) { c.NUMAHinter = h }
}
