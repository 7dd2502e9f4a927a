package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimit_AllowsBurstThenThrottles(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func() error {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	for i := 0; i < 2; i++ {
		if err := call(); err != nil {
			t.Fatalf("request %d should pass, got %v", i, err)
		}
	}

	err := call()
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
}

func TestRateLimit_SeparateClients(t *testing.T) {
	e := echo.New()
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		if err := h(e.NewContext(req, httptest.NewRecorder())); err != nil {
			t.Errorf("first request from %s should pass, got %v", addr, err)
		}
	}
}

func TestLimiterStore_EvictsIdle(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	base := time.Now()
	store.now = func() time.Time { return base }
	store.get("a")

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	store.get("b")

	if _, ok := store.clients["a"]; ok {
		t.Error("expected idle client to be evicted")
	}
	if _, ok := store.clients["b"]; !ok {
		t.Error("expected new client to be tracked")
	}
}

func TestRateLimit_DefaultConfigThrottlesLoginFlood(t *testing.T) {
	e := echo.New()
	cfg := DefaultRateLimitConfig()
	h := RateLimit(cfg)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	passed, throttled := 0, 0
	for i := 0; i < 500; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		err := h(e.NewContext(req, rec))
		if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusTooManyRequests {
			throttled++
			if rec.Header().Get("Retry-After") == "" {
				t.Fatal("throttled response should carry Retry-After")
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		passed++
	}

	if throttled == 0 {
		t.Fatal("expected a flood from one client to be throttled")
	}
	// The loop runs in well under a second, so refill adds at most a few tokens.
	if passed < cfg.BurstSize || passed > cfg.BurstSize+int(cfg.RequestsPerSecond) {
		t.Errorf("expected about %d requests to pass, got %d", cfg.BurstSize, passed)
	}
}

func TestLimiterStore_KeepsFreshClient(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	first := store.get("a")
	if second := store.get("a"); second != first {
		t.Error("expected the same limiter for a client seen twice")
	}
	if len(store.clients) != 1 {
		t.Errorf("expected 1 tracked client, got %d", len(store.clients))
	}
}
