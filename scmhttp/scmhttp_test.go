package scmhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/scmalloc/scm/stats"
)

type fakeSource struct{ snap stats.Snapshot }

func (f fakeSource) Snapshot() stats.Snapshot { return f.snap }

func TestStatsEndpoint(t *testing.T) {
	src := fakeSource{snap: stats.Snapshot{ObjectsAlive: 42}}

	shutdown, addr, err := Start(src, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	resp, err := http.Get("http://" + addr + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}

	defer resp.Body.Close()

	var got stats.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ObjectsAlive != 42 {
		t.Fatalf("ObjectsAlive = %d, want 42", got.ObjectsAlive)
	}
}
