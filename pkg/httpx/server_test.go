package httpx_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ghuser/ghshop/pkg/httpx"
)

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(cfg httpx.ServerConfig) http.Handler {
	r := httpx.NewRouter(cfg, passthrough, passthrough, passthrough, passthrough)
	r.Get("/orders", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		for {
			if _, err := r.Body.Read(buf); err != nil {
				if errors.Is(err, io.EOF) {
					w.WriteHeader(http.StatusCreated)
					return
				}
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
		}
	})
	return r
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(httpx.ServerConfig{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders", http.NoBody))

	checks := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, expected := range checks {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("%s: got %q, want %q", header, got, expected)
		}
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.HasPrefix(csp, "default-src 'self'") {
		t.Errorf("unexpected CSP %q", csp)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
}

func TestCORS_Credentials(t *testing.T) {
	tests := []struct {
		name            string
		origins         string
		origin          string
		wantAllowOrigin string
		wantCredentials string
	}{
		{"listed origin", "https://shop.example.com, http://localhost:3000", "http://localhost:3000", "http://localhost:3000", "true"},
		{"unlisted origin", "https://shop.example.com", "https://evil.example.com", "", ""},
		{"wildcard", "*", "https://anywhere.example.com", "*", ""},
		{"empty list means wildcard", " , ", "https://anywhere.example.com", "*", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.CORSMiddleware(tt.origins)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
			req := httptest.NewRequest(http.MethodOptions, "/api/session", http.NoBody)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("allow origin: got %q, want %q", got, tt.wantAllowOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("allow credentials: got %q, want %q", got, tt.wantCredentials)
			}
		})
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	r := newTestRouter(httpx.ServerConfig{MaxBodyBytes: 10})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("small")))
	if rr.Code != http.StatusCreated {
		t.Fatalf("within limit: expected 201, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(strings.Repeat("x", 11))))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("over limit: expected 413, got %d", rr.Code)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	r := newTestRouter(httpx.ServerConfig{RateLimit: 2})

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/orders", http.NoBody)
		req.RemoteAddr = "203.0.113.7:5000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected [200 200 429], got %v", codes)
	}
}

func TestNewServer(t *testing.T) {
	srv := httpx.NewServer(":8080", http.NotFoundHandler(), 0)
	if srv.WriteTimeout != httpx.DefaultHandlerTimeout+5*time.Second {
		t.Errorf("write timeout %s", srv.WriteTimeout)
	}
	srv = httpx.NewServer(":8080", http.NotFoundHandler(), time.Minute)
	if srv.WriteTimeout <= time.Minute {
		t.Errorf("write timeout %s must exceed the handler timeout", srv.WriteTimeout)
	}
}
