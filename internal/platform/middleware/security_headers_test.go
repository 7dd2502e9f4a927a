package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func runSecurityHeaders(t *testing.T, path string) http.Header {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := SecurityHeaders()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec.Header()
}

func TestSecurityHeaders_Common(t *testing.T) {
	h := runSecurityHeaders(t, "/api/patients")

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"X-XSS-Protection":          "0",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Cache-Control":             "no-store",
	}
	for name, want := range expected {
		if got := h.Get(name); got != want {
			t.Errorf("%s: expected %q, got %q", name, want, got)
		}
	}
}

func TestSecurityHeaders_APIDeniesAll(t *testing.T) {
	h := runSecurityHeaders(t, "/api/doctors")
	if got := h.Get("Content-Security-Policy"); !strings.HasPrefix(got, "default-src 'none'") {
		t.Errorf("expected deny-all CSP for API, got %q", got)
	}
}

func TestSecurityHeaders_PagesAllowSelf(t *testing.T) {
	h := runSecurityHeaders(t, "/dashboard")
	csp := h.Get("Content-Security-Policy")
	if !strings.Contains(csp, "default-src 'self'") || !strings.Contains(csp, "form-action 'self'") {
		t.Errorf("expected same-origin CSP for pages, got %q", csp)
	}
}
