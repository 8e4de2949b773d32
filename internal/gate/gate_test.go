package gate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-service/internal/model"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type rejectionBody struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code"`
}

func newTestGate(f *fakeStore) *Gate {
	log := zap.NewNop()
	validator := NewSubscriptionValidator(f, log)
	return NewGate(
		NewTenantResolver("X-Tenant-ID"),
		NewContextCache(validator, time.Minute),
		NewPlanLimitEnforcer(f, log),
		NewPermissionResolver(f, log),
	)
}

// identity stands in for the auth middleware in tests
func identity(userID uint) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", userID)
			return next(c)
		}
	}
}

func newTestApp(g *Gate, userID uint) *echo.Echo {
	e := echo.New()
	e.Use(identity(userID))
	e.Use(g.Middleware())

	ok := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
	e.POST("/auth/login", ok)
	e.GET("/health", ok)
	e.GET("/api/projects", ok, RequirePermission(PermViewProjects))
	e.POST("/api/projects", ok, RequirePermission(PermManageProjects))
	e.GET("/api/crm/customers", ok)
	return e
}

func seedMember(f *fakeStore, userID uint, role string) {
	f.tenantUsers[tenantUserKey{1, userID}] = &model.TenantUser{
		TenantID: 1, UserID: userID, Role: role, Active: true, JoinedAt: time.Now(),
	}
}

func TestGatePublicPathsSkipAllChecks(t *testing.T) {
	f := newFakeStore() // deliberately empty, any gate check would fail
	app := newTestApp(newTestGate(f), 0)

	for _, tt := range []struct{ method, path string }{
		{http.MethodPost, "/auth/login"},
		{http.MethodGet, "/health"},
	} {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s %s should bypass the gate, got %d", tt.method, tt.path, rec.Code)
		}
	}
	if len(f.calls) != 0 {
		t.Errorf("public paths must not touch the store, calls: %v", f.calls)
	}
}

func TestGateRejectsMissingTenantContext(t *testing.T) {
	f := newFakeStore()
	app := newTestApp(newTestGate(f), 7)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body rejectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body not JSON: %v", err)
	}
	if body.ErrorCode != CodeMissingTenant {
		t.Errorf("expected %s, got %s", CodeMissingTenant, body.ErrorCode)
	}
}

func TestGateSuccessSetsTenantHeaders(t *testing.T) {
	f := newFakeStore()
	seedValidTenant(f)
	seedMember(f, 7, RoleOwner)
	app := newTestApp(newTestGate(f), 7)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Tenant-ID"); got != "1" {
		t.Errorf("X-Tenant-ID header = %q", got)
	}
	if got := rec.Header().Get("X-Tenant-Name"); got != "Acme" {
		t.Errorf("X-Tenant-Name header = %q", got)
	}
	if got := rec.Header().Get("X-Plan-Type"); got != "business" {
		t.Errorf("X-Plan-Type header = %q", got)
	}
}

func TestGateProjectQuotaEndToEnd(t *testing.T) {
	f := newFakeStore()
	seedValidTenant(f)
	f.plans[10].MaxProjects = 5
	f.plans[10].Features = `["crm"]`
	f.projectCounts[1] = 5
	seedMember(f, 7, RoleOwner)
	app := newTestApp(newTestGate(f), 7)

	// The sixth project is rejected with the counts in the detail
	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name":"six"}`))
	req.Header.Set("X-Tenant-ID", "1")
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body rejectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body not JSON: %v", err)
	}
	if body.ErrorCode != CodeLimitExceeded {
		t.Errorf("expected %s, got %s", CodeLimitExceeded, body.ErrorCode)
	}
	if !strings.Contains(body.Detail, "5/5") {
		t.Errorf("detail should mention 5/5, got %q", body.Detail)
	}

	// Listing projects with the same context is unaffected by the count
	req = httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Tenant-ID", "1")
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET should succeed at capacity, got %d", rec.Code)
	}
}

func TestGateFeatureGateBlocksSubtree(t *testing.T) {
	f := newFakeStore()
	seedValidTenant(f)
	f.plans[10].Features = `["invoicing"]` // no crm
	seedMember(f, 7, RoleOwner)
	app := newTestApp(newTestGate(f), 7)

	req := httptest.NewRequest(http.MethodGet, "/api/crm/customers", nil)
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body rejectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body not JSON: %v", err)
	}
	if body.ErrorCode != CodeFeatureNotAvailable {
		t.Errorf("expected %s, got %s", CodeFeatureNotAvailable, body.ErrorCode)
	}
}

func TestRequirePermissionDeniesViewer(t *testing.T) {
	f := newFakeStore()
	seedValidTenant(f)
	seedMember(f, 7, "viewer")
	app := newTestApp(newTestGate(f), 7)

	// Viewers can list projects
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Tenant-ID", "1")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("viewer should list projects, got %d", rec.Code)
	}

	// But not create them
	req = httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(`{"name":"p"}`))
	req.Header.Set("X-Tenant-ID", "1")
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	var body rejectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body not JSON: %v", err)
	}
	if body.ErrorCode != CodePermissionDenied {
		t.Errorf("expected %s, got %s", CodePermissionDenied, body.ErrorCode)
	}
}

func TestGateRejectsUnknownTenantWithNotFound(t *testing.T) {
	f := newFakeStore()
	app := newTestApp(newTestGate(f), 7)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-Tenant-ID", "99")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body rejectionBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("rejection body not JSON: %v", err)
	}
	if body.ErrorCode != CodeTenantNotFound {
		t.Errorf("expected %s, got %s", CodeTenantNotFound, body.ErrorCode)
	}
}

func TestIsPublicPath(t *testing.T) {
	for path, want := range map[string]bool{
		"/auth/login":       true,
		"/auth/register":    true,
		"/health":           true,
		"/metrics":          true,
		"/signup":           true,
		"/plans":            true,
		"/api/projects":     false,
		"/api/tenant-users": false,
	} {
		if got := IsPublicPath(path); got != want {
			t.Errorf("IsPublicPath(%q) = %v, want %v", path, got, want)
		}
	}
}
