package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestStoreEnforcesBurstPerKey(t *testing.T) {
	store := NewStore(0.001, 2)

	if !store.Allow("user-1") || !store.Allow("user-1") {
		t.Fatalf("burst of 2 must admit two immediate requests")
	}
	if store.Allow("user-1") {
		t.Fatalf("third immediate request must be rejected")
	}
	if !store.Allow("user-2") {
		t.Fatalf("a fresh key holds a full bucket")
	}
}

type recordedStat struct {
	key     string
	allowed bool
}

type captureStats struct {
	mu      sync.Mutex
	records []recordedStat
}

func (c *captureStats) Record(_ context.Context, key string, allowed bool, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, recordedStat{key: key, allowed: allowed})
}

func TestMiddlewareRejectsAndRecordsStats(t *testing.T) {
	stats := &captureStats{}
	handler := Middleware(Options{
		Store:     NewStore(0.001, 1),
		Stats:     stats,
		KeyHeader: "X-User-Id",
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRequest(http.MethodPost, "/claims", nil)
	first.Header.Set("X-User-Id", "user-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through 204, got %d", rr.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/claims", nil)
	second.Header.Set("X-User-Id", "user-1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, second)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if len(stats.records) != 2 {
		t.Fatalf("expected 2 stat records, got %d", len(stats.records))
	}
	if !stats.records[0].allowed || stats.records[1].allowed {
		t.Fatalf("unexpected stat outcomes: %+v", stats.records)
	}
	if stats.records[0].key != "user-1" {
		t.Fatalf("unexpected stat key: %s", stats.records[0].key)
	}
}

func TestDefaultKeyFuncFallsBackToRemoteAddr(t *testing.T) {
	keyFn := DefaultKeyFunc("X-User-Id")

	withHeader := httptest.NewRequest(http.MethodGet, "/", nil)
	withHeader.Header.Set("X-User-Id", "user-9")
	if got := keyFn(withHeader); got != "user-9" {
		t.Fatalf("expected header key, got %s", got)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	bare.RemoteAddr = "10.1.2.3:4455"
	if got := keyFn(bare); got != "10.1.2.3" {
		t.Fatalf("expected host from RemoteAddr, got %s", got)
	}
}
