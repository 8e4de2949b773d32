package handler

import (
	"net/http"

	"erp-service/internal/gate"
	"erp-service/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Me returns the caller's identity, tenant context and effective permissions
func Me(c echo.Context) error {
	log := logger.FromContext(c)

	userID, _ := c.Get("user_id").(uint)
	email, _ := c.Get("email").(string)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		log.Error("Tenant context missing from gated request")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	up, _ := gate.PermissionsFromContext(c)

	return c.JSON(http.StatusOK, echo.Map{
		"user": map[string]interface{}{
			"id":    userID,
			"email": email,
		},
		"tenant": map[string]interface{}{
			"id":     tc.TenantID,
			"name":   tc.TenantName,
			"domain": tc.Domain,
			"plan":   tc.PlanType,
		},
		"role":        up.Role,
		"is_owner":    up.IsOwner,
		"permissions": up.Codes(),
	})
}
