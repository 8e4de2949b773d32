package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newEchoContext(req *http.Request) echo.Context {
	e := echo.New()
	return e.NewContext(req, httptest.NewRecorder())
}

func TestResolveFromHeader(t *testing.T) {
	r := NewTenantResolver("X-Tenant-ID")
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Tenant-ID", "42")

	id, gerr := r.Resolve(newEchoContext(req))
	if gerr != nil {
		t.Fatalf("unexpected rejection: %v", gerr)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}
}

func TestResolveMalformedHeader(t *testing.T) {
	r := NewTenantResolver("X-Tenant-ID")
	for _, raw := range []string{"abc", "-1", "0", "1.5"} {
		t.Run(raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			req.Header.Set("X-Tenant-ID", raw)

			_, gerr := r.Resolve(newEchoContext(req))
			if gerr == nil || gerr.Code != CodeInvalidTenantHeader {
				t.Fatalf("expected %s for %q, got %v", CodeInvalidTenantHeader, raw, gerr)
			}
			if gerr.Status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", gerr.Status)
			}
		})
	}
}

func TestResolveFallsBackToTokenClaim(t *testing.T) {
	r := NewTenantResolver("X-Tenant-ID")
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	c := newEchoContext(req)
	c.Set("tenant_id", uint(7)) // set by the auth middleware from the bearer token

	id, gerr := r.Resolve(c)
	if gerr != nil {
		t.Fatalf("unexpected rejection: %v", gerr)
	}
	if id != 7 {
		t.Errorf("expected 7, got %d", id)
	}
}

func TestResolveHeaderWinsOverClaim(t *testing.T) {
	r := NewTenantResolver("X-Tenant-ID")
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Tenant-ID", "42")
	c := newEchoContext(req)
	c.Set("tenant_id", uint(7))

	id, _ := r.Resolve(c)
	if id != 42 {
		t.Errorf("explicit header should win, got %d", id)
	}
}

func TestResolveNothingResolvable(t *testing.T) {
	r := NewTenantResolver("X-Tenant-ID")
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)

	_, gerr := r.Resolve(newEchoContext(req))
	if gerr == nil || gerr.Code != CodeMissingTenant {
		t.Fatalf("expected %s, got %v", CodeMissingTenant, gerr)
	}
	if gerr.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", gerr.Status)
	}
}
