package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveSecure(t *testing.T, isSecure bool, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewSecurityHeadersMiddleware(isSecure).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestSecurityHeadersMiddleware_SetsAllHeaders(t *testing.T) {
	rec := serveSecure(t, true, "GET", "/login")

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
		{"Cache-Control", "no-store"},
	}

	for _, tc := range tests {
		if got := rec.Header().Get(tc.header); got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.header, tc.expected, got)
		}
	}
}

func TestSecurityHeadersMiddleware_HSTSOnlyWhenSecure(t *testing.T) {
	if hsts := serveSecure(t, true, "GET", "/").Header().Get("Strict-Transport-Security"); !strings.Contains(hsts, "max-age=") {
		t.Errorf("expected HSTS in production, got %q", hsts)
	}
	if hsts := serveSecure(t, false, "GET", "/").Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("expected no HSTS in development, got %q", hsts)
	}
}

func TestSecurityHeadersMiddleware_StaticAssetsAreCacheable(t *testing.T) {
	rec := serveSecure(t, false, "GET", "/static/css/app.css")
	if cc := rec.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("expected no Cache-Control on static assets, got %q", cc)
	}
}

func TestSecurityHeadersMiddleware_CSP(t *testing.T) {
	csp := serveSecure(t, false, "POST", "/signup").Header().Get("Content-Security-Policy")

	for _, want := range []string{
		"default-src 'self'",
		"script-src 'self' https://unpkg.com",
		"style-src 'self' 'unsafe-inline'",
		"frame-ancestors 'none'",
		"form-action 'self'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP should contain %q, got %q", want, csp)
		}
	}
	if strings.Contains(csp, "script-src 'self' https://unpkg.com 'unsafe-inline'") {
		t.Error("inline scripts should not be allowed")
	}
}

func TestSecurityHeadersMiddleware_PassesThroughRequests(t *testing.T) {
	rec := serveSecure(t, false, "POST", "/login")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("expected handler response, got %d %q", rec.Code, rec.Body.String())
	}
}
