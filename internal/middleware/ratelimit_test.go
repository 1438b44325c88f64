package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestRateLimitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RateLimitConfig
		wantErr bool
	}{
		{name: "valid", config: RateLimitConfig{RequestsPerWindow: 10, WindowDuration: time.Minute}, wantErr: false},
		{name: "zero requests", config: RateLimitConfig{RequestsPerWindow: 0, WindowDuration: time.Minute}, wantErr: true},
		{name: "negative requests", config: RateLimitConfig{RequestsPerWindow: -1, WindowDuration: time.Minute}, wantErr: true},
		{name: "zero window", config: RateLimitConfig{RequestsPerWindow: 10, WindowDuration: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryStore_AllowWithinLimit(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := store.Allow(ctx, "k", config)
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
		if remaining != 2-i {
			t.Errorf("request %d: remaining = %d, want %d", i+1, remaining, 2-i)
		}
	}

	allowed, remaining, retryAfter := store.Allow(ctx, "k", config)
	if allowed {
		t.Error("4th request should be blocked")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("retryAfter = %d, want 1..60", retryAfter)
	}
}

func TestInMemoryStore_KeysIndependent(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	ctx := context.Background()

	if allowed, _, _ := store.Allow(ctx, "a", config); !allowed {
		t.Error("first request for key a should be allowed")
	}
	if allowed, _, _ := store.Allow(ctx, "a", config); allowed {
		t.Error("second request for key a should be blocked")
	}
	if allowed, _, _ := store.Allow(ctx, "b", config); !allowed {
		t.Error("key b should have its own budget")
	}
}

func TestInMemoryStore_WindowReset(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 10 * time.Millisecond}
	ctx := context.Background()

	store.Allow(ctx, "k", config)
	if allowed, _, _ := store.Allow(ctx, "k", config); allowed {
		t.Error("should be blocked within window")
	}

	time.Sleep(15 * time.Millisecond)
	if allowed, _, _ := store.Allow(ctx, "k", config); !allowed {
		t.Error("should be allowed after window expiry")
	}
}

func TestInMemoryStore_Cleanup(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Millisecond}
	ctx := context.Background()

	store.Allow(ctx, "stale", config)
	time.Sleep(5 * time.Millisecond)
	store.Cleanup()

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.buckets) != 0 {
		t.Errorf("expected empty bucket map after cleanup, got %d", len(store.buckets))
	}
}

func TestRateLimiter_Returns429(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute}

	handler := RateLimiter(store, config, IPKeyFunc())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rank/score", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rank/score", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("missing X-RateLimit-Reset header")
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}
}

func TestIPKeyFunc_HeaderPrecedence(t *testing.T) {
	keyFunc := IPKeyFunc()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first hop",
			headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"},
			remote:  "192.168.1.1:1234",
			want:    "10.0.0.1",
		},
		{
			name:    "x-real-ip fallback",
			headers: map[string]string{"X-Real-IP": " 10.0.0.3 "},
			remote:  "192.168.1.1:1234",
			want:    "10.0.0.3",
		},
		{
			name:   "remote addr strips port",
			remote: "192.168.1.1:1234",
			want:   "192.168.1.1",
		},
		{
			name:   "ipv6 remote addr",
			remote: "[2001:db8::1]:443",
			want:   "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rank/stats", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := keyFunc(req); got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallerKeyFunc(t *testing.T) {
	keyFunc := CallerKeyFunc()

	req := httptest.NewRequest(http.MethodPost, "/rank/score", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	if got := keyFunc(req); got != "ip:192.168.1.1" {
		t.Errorf("anonymous key = %q", got)
	}

	req = req.WithContext(SetCallerID(req.Context(), "user-7"))
	if got := keyFunc(req); got != "caller:user-7" {
		t.Errorf("authenticated key = %q", got)
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1000, WindowDuration: time.Minute}
	ctx := context.Background()

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				store.Allow(ctx, "shared-"+strconv.Itoa(id%2), config)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
