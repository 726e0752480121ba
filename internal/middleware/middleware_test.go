package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashureev/websearch-agent/internal/identity"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestCORSExplicitOrigin(t *testing.T) {
	h := CORS([]string{"https://research.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/research", nil)
	req.Header.Set("Origin", "https://research.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://research.example.com" {
		t.Errorf("Expected origin to be echoed, got %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("Expected credentials for explicit origin")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected request to reach handler, got %d", w.Code)
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h := CORS([]string{"*"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/research", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected preflight 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Unexpected allow origin %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("Wildcard match must not allow credentials")
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	h := CORS([]string{"https://research.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header, got %q", got)
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("Expected burst of 2 to be allowed")
	}
	if rl.Allow("a") {
		t.Error("Expected third request to be throttled")
	}
	if !rl.Allow("b") {
		t.Error("Expected independent key to be allowed")
	}

	now = now.Add(45 * time.Second)
	if !rl.Allow("a") {
		t.Error("Expected a token to refill within the window")
	}
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(time.Hour)
	rl.Allow("active")

	if removed := rl.Evict(); removed != 1 {
		t.Errorf("Expected 1 evicted key, got %d", removed)
	}
	if _, ok := rl.entries["active"]; !ok {
		t.Error("Expected active key to survive eviction")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware(func(r *http.Request) string { return r.Header.Get("X-Client") })(okHandler)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/research", nil)
		req.Header.Set("X-Client", "c1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusNoContent {
		t.Fatalf("Expected first request through, got %d", w.Code)
	}

	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["error"] == "" {
		t.Error("Expected error message in 429 body")
	}
}

func TestRateLimitKeyedByIPNotCookie(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := identity.Middleware(true)(rl.Middleware(identity.ClientKey)(okHandler))

	passed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/research", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.AddCookie(&http.Cookie{Name: identity.AnonCookieName, Value: fmt.Sprintf("anon_%032x", i)})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code == http.StatusNoContent {
			passed++
		}
	}

	if passed != 1 {
		t.Errorf("Expected 1 request through for one IP with rotating cookies, got %d", passed)
	}
	if len(rl.entries) != 1 {
		t.Errorf("Expected a single limiter entry, got %d", len(rl.entries))
	}
}
