package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"erp-service/internal/gate"
	"erp-service/pkg/config"
	"erp-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
)

func tenantScopedToken(t *testing.T, tenantID uint) string {
	t.Helper()
	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
	token, err := jwtutil.GenerateTokenWithTenant("user@example.com", 3, &tenantID, "Acme", "admin")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func resolveThroughAuth(t *testing.T, req *http.Request) uint {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	resolver := gate.NewTenantResolver("X-Tenant-ID")
	var resolved uint
	handler := AuthMiddleware(func(c echo.Context) error {
		id, gerr := resolver.Resolve(c)
		if gerr != nil {
			t.Fatalf("unexpected rejection: %v", gerr)
		}
		resolved = id
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	return resolved
}

func TestAuthMiddlewarePreservesClientTenantHeader(t *testing.T) {
	token := tenantScopedToken(t, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Tenant-ID", "42")

	if resolved := resolveThroughAuth(t, req); resolved != 42 {
		t.Errorf("explicit tenant header must win over the token claim, resolved %d", resolved)
	}
}

func TestAuthMiddlewareClaimBacksMissingHeader(t *testing.T) {
	token := tenantScopedToken(t, 7)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if resolved := resolveThroughAuth(t, req); resolved != 7 {
		t.Errorf("expected the token's tenant claim 7, resolved %d", resolved)
	}
}
