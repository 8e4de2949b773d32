package gate

import (
	"fmt"
	"strings"

	"erp-service/pkg/logger"
	"erp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys the gate stores its results under
const (
	ContextKeyTenant      = "tenant_context"
	ContextKeyPermissions = "permissions"
)

// publicPrefixes lists paths that bypass the gate entirely
var publicPrefixes = []string{
	"/auth/",
	"/health",
	"/metrics",
	"/signup",
	"/plans",
	"/docs",
}

// Gate composes the pipeline every tenant-scoped request passes through:
// tenant resolution, cached subscription validation, plan-limit checks and
// permission resolution. The first failing stage rejects the request;
// business handlers never see a request that failed a check.
type Gate struct {
	resolver *TenantResolver
	cache    *ContextCache
	enforcer *PlanLimitEnforcer
	perms    *PermissionResolver
}

// NewGate wires the gate stages together
func NewGate(resolver *TenantResolver, cache *ContextCache, enforcer *PlanLimitEnforcer, perms *PermissionResolver) *Gate {
	return &Gate{
		resolver: resolver,
		cache:    cache,
		enforcer: enforcer,
		perms:    perms,
	}
}

// Cache exposes the tenant context cache for local invalidation after
// subscription writes
func (g *Gate) Cache() *ContextCache {
	return g.cache
}

// IsPublicPath reports whether the path bypasses the gate
func IsPublicPath(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware returns the echo middleware enforcing the gate
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if IsPublicPath(path) {
				return next(c)
			}

			log := logger.FromContext(c)

			tenantID, gerr := g.resolver.Resolve(c)
			if gerr != nil {
				return reject(c, gerr)
			}

			tc, gerr := g.cache.GetOrCompute(tenantID)
			if gerr != nil {
				log.Warn("tenant validation rejected request",
					zap.Uint("tenant_id", tenantID),
					zap.String("reason", gerr.Code))
				return reject(c, gerr)
			}

			if gerr := g.enforcer.Check(tc, c.Request().Method, path); gerr != nil {
				log.Info("plan limit rejected request",
					zap.Uint("tenant_id", tenantID),
					zap.String("reason", gerr.Code),
					zap.String("detail", gerr.Detail))
				return reject(c, gerr)
			}

			userID, _ := c.Get("user_id").(uint)
			up, err := g.perms.Resolve(userID, tenantID)
			if err != nil {
				log.Error("permission resolution failed",
					zap.Uint("tenant_id", tenantID),
					zap.Uint("user_id", userID),
					zap.Error(err))
				return reject(c, internal(CodeInternalError, "failed to resolve permissions"))
			}

			c.Set(ContextKeyTenant, tc)
			c.Set(ContextKeyPermissions, up)

			// Tenant identifying headers on success
			c.Response().Header().Set("X-Tenant-ID", fmt.Sprintf("%d", tc.TenantID))
			c.Response().Header().Set("X-Tenant-Name", tc.TenantName)
			c.Response().Header().Set("X-Plan-Type", tc.PlanType)

			return next(c)
		}
	}
}

// RequirePermission returns middleware rejecting requests whose resolved
// permission set lacks the given code
func RequirePermission(code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			up, ok := c.Get(ContextKeyPermissions).(*UserPermissions)
			if !ok || !up.Has(code) {
				return reject(c, forbidden(CodePermissionDenied, "missing required permission: "+code))
			}
			return next(c)
		}
	}
}

// TenantFromContext returns the tenant context stashed by the gate
func TenantFromContext(c echo.Context) (*TenantContext, bool) {
	tc, ok := c.Get(ContextKeyTenant).(*TenantContext)
	return tc, ok
}

// PermissionsFromContext returns the permission set stashed by the gate
func PermissionsFromContext(c echo.Context) (*UserPermissions, bool) {
	up, ok := c.Get(ContextKeyPermissions).(*UserPermissions)
	return up, ok
}

func reject(c echo.Context, gerr *Error) error {
	prometheus.RecordGateRejection(gerr.Code)
	return c.JSON(gerr.Status, echo.Map{
		"detail":     gerr.Detail,
		"error_code": gerr.Code,
	})
}
