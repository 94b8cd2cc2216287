package scm

import "github.com/scmalloc/scm/stats"

// Snapshot returns a point-in-time view of every accounting counter
// this Library has recorded. This is the method scmhttp.Source
// requires, so a Library can be passed directly to scmhttp.Start.
func (lib *Library) Snapshot() stats.Snapshot {
	return lib.cfg.Stats.Snapshot()
}

// RegionPlacementHint reports the NUMA node region.Allocator most
// recently associated with a fresh page request on root, for
// diagnostics only; see Config.NUMAHinter.
func (r *Root) RegionPlacementHint() int {
	return r.regionAlloc.LastNode()
}
