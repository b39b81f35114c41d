package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRateLimit_AllowsThenRejectsSameKey(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, "ok")
	})

	h := RateLimit(RateLimitOptions{
		Limiter:             NewClientLimiter(0.02, 1),
		AddRateLimitHeaders: true,
	})(next)

	r1 := httptest.NewRequest(http.MethodGet, "http://example/portfolio/octocat", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if w1.Header().Get("X-RateLimit-Key") != "10.0.0.1" {
		t.Fatalf("expected X-RateLimit-Key to be the client ip")
	}
	if w1.Header().Get("X-RateLimit-RPS") != "0.02" || w1.Header().Get("X-RateLimit-Burst") != "1" {
		t.Fatalf("unexpected limit headers: %v", w1.Header())
	}

	r2 := httptest.NewRequest(http.MethodGet, "http://example/portfolio/octocat", nil)
	r2.RemoteAddr = "10.0.0.1:4321"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if w2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header to be set")
	}
	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestRateLimit_KeyByHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(RateLimitOptions{
		Limiter:   NewClientLimiter(0.02, 1),
		KeyHeader: "X-Api-Key",
	})(next)

	for _, key := range []string{"a", "b"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Api-Key", key)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("key %s: expected 200, got %d", key, w.Code)
		}
	}
}

func TestRateLimit_NilLimiterIsTransparent(t *testing.T) {
	calls := 0
	h := RateLimit(RateLimitOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))
	}
	if calls != 3 {
		t.Fatalf("expected all requests through, got %d", calls)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		trustXFF bool
		setup    func(r *http.Request)
		want     string
	}{
		{"header wins", "X-Client", true, func(r *http.Request) {
			r.Header.Set("X-Client", " client-123 ")
			r.Header.Set("X-Forwarded-For", "1.2.3.4")
		}, "client-123"},
		{"blank header falls through", "X-Client", false, func(r *http.Request) { r.Header.Set("X-Client", "  ") }, "10.0.0.9"},
		{"leftmost xff ip", "", true, func(r *http.Request) { r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8") }, "1.2.3.4"},
		{"mapped ipv4 in xff", "", true, func(r *http.Request) { r.Header.Set("X-Forwarded-For", "::ffff:1.2.3.4") }, "1.2.3.4"},
		{"garbage xff is skipped", "", true, func(r *http.Request) { r.Header.Set("X-Forwarded-For", "not-an-ip, 5.6.7.8") }, "10.0.0.9"},
		{"xff ignored when untrusted", "", false, func(r *http.Request) { r.Header.Set("X-Forwarded-For", "1.2.3.4") }, "10.0.0.9"},
		{"remote host", "", false, func(r *http.Request) {}, "10.0.0.9"},
		{"remote ipv6", "", false, func(r *http.Request) { r.RemoteAddr = "[2001:db8::1]:443" }, "2001:db8::1"},
		{"remote addr without port", "", false, func(r *http.Request) { r.RemoteAddr = "pipe" }, "pipe"},
		{"nothing known", "", false, func(r *http.Request) { r.RemoteAddr = "" }, "unknown"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = "10.0.0.9:5555"
		tt.setup(r)
		if got := ClientKey(tt.header, tt.trustXFF)(r); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestFirstKey_StopsAtFirstAnswer(t *testing.T) {
	var calls []string
	src := func(name, key string) KeyFunc {
		return func(*http.Request) string {
			calls = append(calls, name)
			return key
		}
	}
	fn := FirstKey(src("a", ""), src("b", "tenant-b"), src("c", "tenant-c"))

	if got := fn(httptest.NewRequest(http.MethodGet, "http://example/", nil)); got != "tenant-b" {
		t.Fatalf("expected tenant-b, got %q", got)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Fatalf("expected sources a,b to be consulted, got %v", calls)
	}
}

func TestConcurrency_TimesOutWhenNoSlot(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-release
	})
	h := Concurrency(ConcurrencyOptions{Max: 1, AcquireTimeout: 25 * time.Millisecond})(next)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected first request 200, got %d", w.Code)
		}
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		close(release)
		wg.Wait()
		t.Fatalf("timeout waiting first request to start")
	}

	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	if w2.Code != http.StatusServiceUnavailable {
		t.Errorf("expected second request 503, got %d", w2.Code)
	}

	close(release)
	wg.Wait()
}
