package rosterhttp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"peer_review/internal/adapters/rosterhttp"
)

func TestClient_FetchRoster_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("Employee ID,Employee Name\n7,Ana\n8,Bo\n"))
		}
	}))
	defer ts.Close()

	cl, err := rosterhttp.New(ts.URL, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	emps, err := cl.FetchRoster(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(emps) != 2 || emps[0].ID != "7" || emps[0].Name != "Ana" {
		t.Fatalf("unexpected roster: %+v", emps)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 calls due to retries, got %d", hits)
	}
}

func TestClient_FetchRoster_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := rosterhttp.New(ts.URL, 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := cl.FetchRoster(ctx); !errors.Is(err, rosterhttp.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := rosterhttp.New("", 1); err == nil {
		t.Fatalf("expected error")
	}
}
