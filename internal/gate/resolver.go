package gate

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// TenantResolver extracts a tenant identifier from an inbound request.
// The explicit tenant header wins; a tenant claim from the bearer token
// (stored in the echo context by the auth middleware) is the fallback.
type TenantResolver struct {
	header string
}

// NewTenantResolver creates a resolver reading the given header name
func NewTenantResolver(header string) *TenantResolver {
	return &TenantResolver{header: header}
}

// Resolve returns the tenant id for the request, or a rejection.
// Pure extraction; no store access.
func (r *TenantResolver) Resolve(c echo.Context) (uint, *Error) {
	if raw := c.Request().Header.Get(r.header); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return 0, badRequest(CodeInvalidTenantHeader, "tenant header must be a positive integer")
		}
		return uint(id), nil
	}

	// Fall back to the tenant claim placed in the context by the auth middleware
	if tenantID, ok := c.Get("tenant_id").(uint); ok && tenantID != 0 {
		return tenantID, nil
	}

	return 0, badRequest(CodeMissingTenant, "missing tenant context, supply the tenant header or a tenant-scoped token")
}
