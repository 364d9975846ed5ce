package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(NewRateLimiter(1, 2), nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("expected burst of 2 to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the burst is spent, got %d", codes[2])
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.GetLimiter("10.0.0.1").Allow() || !rl.GetLimiter("10.0.0.2").Allow() {
		t.Fatal("expected each ip to get its own bucket")
	}
	if rl.GetLimiter("10.0.0.1").Allow() {
		t.Error("expected second request from the same ip to be limited")
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"no origin", "", []string{"http://a"}, true},
		{"empty list", "http://evil", nil, true},
		{"exact", "http://localhost:3000/", []string{"http://localhost:3000"}, true},
		{"host only", "http://dash.local:8080", []string{"dash.local:8080"}, true},
		{"wildcard", "http://anything", []string{"*"}, true},
		{"rejected", "http://evil", []string{"http://localhost:3000"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OriginAllowed(tt.origin, tt.allowed); got != tt.want {
				t.Errorf("OriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := newRouter(CORSMiddleware([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

func TestIPWhitelist(t *testing.T) {
	wl := NewIPWhitelist([]string{"192.168.1.5"})

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.5", true},
		{"192.168.1.5:5555", true},
		{"192.168.1.6", false},
	}
	for _, tt := range tests {
		if got := wl.IsAllowed(tt.ip); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if !NewIPWhitelist(nil).IsAllowed("8.8.8.8") {
		t.Error("expected empty whitelist to allow everyone")
	}
}

func TestIPWhitelist_ConcurrentReads(t *testing.T) {
	wl := NewIPWhitelist([]string{" 10.0.0.7 ", ""})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if !wl.IsAllowed("10.0.0.7:80") || wl.IsAllowed("10.0.0.8") {
					t.Error("unexpected whitelist decision")
					return
				}
			}
		}()
	}
	wg.Wait()

	if len(wl.ips) != 1 {
		t.Errorf("expected 1 trimmed entry, got %d", len(wl.ips))
	}
}

func TestIPWhitelistMiddleware_Denies(t *testing.T) {
	r := newRouter(IPWhitelistMiddleware(NewIPWhitelist([]string{"10.1.1.1"}), nil))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.2.2.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	r := newRouter(SecurityHeadersMiddleware(), RequestLogger(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff header")
	}
}
