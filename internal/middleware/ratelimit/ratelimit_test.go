package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *clock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestNewLimiterDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()

	if rl.limit != DefaultConfig().RequestsPerMinute {
		t.Errorf("limit = %d, want %d", rl.limit, DefaultConfig().RequestsPerMinute)
	}
	if rl.cleanupInterval != DefaultConfig().CleanupInterval {
		t.Errorf("cleanupInterval = %v, want %v", rl.cleanupInterval, DefaultConfig().CleanupInterval)
	}
}

func TestLimiterAllow(t *testing.T) {
	rl, c := newTestLimiter(t, 2)

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("third request in the window should be rejected")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("clients are limited independently")
	}

	if got := rl.RetryAfter("1.1.1.1"); got != time.Minute {
		t.Errorf("RetryAfter = %v, want 1m", got)
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("1.1.1.1") {
		t.Error("a new window should reset the counter")
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl, c := newTestLimiter(t, 5)
	rl.Allow("1.1.1.1")
	c.t = c.t.Add(5 * time.Minute)
	rl.Allow("2.2.2.2")

	c.t = c.t.Add(6 * time.Minute)
	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Errorf("removed %d entries, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Errorf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiterStopTwice(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ip := func(*http.Request) string { return "9.9.9.9" }
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		onLimit    func(http.ResponseWriter, *http.Request)
		wantSecond int
	}{
		{name: "default rejection", wantSecond: http.StatusTooManyRequests},
		{
			name:       "custom rejection",
			onLimit:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) },
			wantSecond: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl.clients = map[string]*clientInfo{}
			h := rl.Middleware(ip, tt.onLimit)(ok)

			first := httptest.NewRecorder()
			h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/", nil))
			if first.Code != http.StatusNoContent {
				t.Fatalf("first status = %d, want 204", first.Code)
			}

			second := httptest.NewRecorder()
			h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/", nil))
			if second.Code != tt.wantSecond {
				t.Errorf("second status = %d, want %d", second.Code, tt.wantSecond)
			}
			if second.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After = %q, want 60", second.Header().Get("Retry-After"))
			}
		})
	}
}
