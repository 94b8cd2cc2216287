// Command scm-profile drives a configurable allocation/refresh/tick
// workload against the library and reports throughput and final
// accounting counters, optionally exposing them live over HTTP.
// Grounded on the teacher's flag-driven orizon-profile tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/scmalloc/scm"
	"github.com/scmalloc/scm/scmhttp"
)

func main() {
	var (
		objects   = flag.Int("objects", 10000, "number of objects to allocate per round")
		rounds    = flag.Int("rounds", 10, "number of alloc/refresh/tick rounds")
		extension = flag.Int("ext", 3, "refresh extension requested per object")
		eager     = flag.Bool("eager", false, "use the eager collection policy instead of lazy")
		httpAddr  = flag.String("http", "", "serve live /stats over HTTP at this address (e.g. :6060), empty disables it")
		verbose   = flag.Bool("verbose", false, "print per-round counters")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Drives an allocation workload against the scm allocator.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	opts := []scm.Option{}
	if *eager {
		opts = append(opts, scm.WithEagerCollection())
	}

	lib := scm.New(opts...)

	if *httpAddr != "" {
		shutdown, addr, err := scmhttp.Start(lib, *httpAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start HTTP server: %v\n", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()

		fmt.Printf("serving live stats on http://%s/stats\n", addr)
	}

	root := lib.RegisterThread()
	defer lib.UnregisterThread(root)

	start := time.Now()

	for round := 0; round < *rounds; round++ {
		for i := 0; i < *objects; i++ {
			p := lib.Alloc(32)
			if p == nil {
				continue
			}

			if err := root.Refresh(p, *extension); err != nil {
				fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
			}
		}

		root.Tick()

		if *verbose {
			snap := lib.Snapshot()
			fmt.Printf("round %d: alive=%d bytes_in_use=%d ticks=%d\n",
				round, snap.ObjectsAlive, snap.BytesInUse, snap.TickCount)
		}
	}

	elapsed := time.Since(start)
	snap := lib.Snapshot()

	fmt.Printf("\ncompleted %d rounds x %d objects in %s\n", *rounds, *objects, elapsed)
	fmt.Printf("final: alive=%d bytes_allocated=%d bytes_freed=%d refreshes=%d ticks=%d finalizers_run=%d\n",
		snap.ObjectsAlive, snap.BytesAllocated, snap.BytesFreed, snap.RefreshCount, snap.TickCount, snap.FinalizersRun)
}
