// Package scmhttp exposes a lightweight HTTP diagnostics endpoint over
// the stats package, so an embedder can watch allocator counters
// without wiring their own metrics pipeline. Grounded on the teacher's
// StartDebugHTTP (internal/runtime/debug_http.go).
package scmhttp

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/scmalloc/scm/stats"
)

// Source supplies the snapshot the /stats endpoint serves.
type Source interface {
	Snapshot() stats.Snapshot
}

// Start starts a minimal HTTP server exposing:
//
//	GET /stats -> JSON of stats.Snapshot
//
// It returns the address actually bound (useful when addr ends in
// ":0") and a shutdown function compatible with http.Server.Shutdown.
func Start(src Source, addr string) (shutdown func(ctx context.Context) error, boundAddr string, err error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(src.Snapshot())
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}

	srv := &http.Server{Handler: mux}

	go func() {
		_ = srv.Serve(ln)
	}()

	return srv.Shutdown, ln.Addr().String(), nil
}
