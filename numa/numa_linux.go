//go:build linux

package numa

import "golang.org/x/sys/unix"

// cpusPerNodeGuess approximates node granularity when the real topology
// isn't probed (no /sys parsing here — this stays a hint, not a
// binding commitment). Most small/medium multi-socket servers the
// teacher's numa_optimizer.go targets expose 8-32 CPUs per node; 16 is
// a reasonable median guess.
const cpusPerNodeGuess = 16

// AffinityHinter derives a NUMA hint from the calling thread's CPU
// affinity mask via sched_getaffinity, grounded on the teacher's use
// of golang.org/x/sys/unix for low-level platform calls
// (internal/runtime/asyncio/zerocopy_unix_file.go).
type AffinityHinter struct{}

// Hint implements Hinter.
func (AffinityHinter) Hint() (int, bool) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, false
	}

	for cpu := 0; cpu < len(set)*64; cpu++ {
		if set.IsSet(cpu) {
			return cpu / cpusPerNodeGuess, true
		}
	}

	return 0, false
}
