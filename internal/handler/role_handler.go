package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"erp-service/internal/gate"
	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/logger"
	"erp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListRoles returns the current tenant's custom roles
func ListRoles(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var roles []model.CustomRole
	if result := database.GetDB().Where("tenant_id = ?", tc.TenantID).Find(&roles); result.Error != nil {
		log.Error("Failed to list custom roles", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve roles"})
	}

	return c.JSON(http.StatusOK, roles)
}

// CreateRole creates a tenant-scoped custom role
func CreateRole(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	permissions, err := json.Marshal(req.Permissions)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid permissions"})
	}

	role := model.CustomRole{
		TenantID:    tc.TenantID,
		Name:        req.Name,
		Permissions: string(permissions),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&role); result.Error != nil {
		log.Error("Failed to create custom role", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "role name already exists"})
	}

	log.Info("Custom role created",
		zap.Uint("tenant_id", tc.TenantID),
		zap.String("name", role.Name))

	return c.JSON(http.StatusCreated, role)
}

// UpdateRole replaces a custom role's name and permission codes
func UpdateRole(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role ID"})
	}

	var req struct {
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var role model.CustomRole
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).First(&role); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Permissions != nil {
		permissions, err := json.Marshal(req.Permissions)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid permissions"})
		}
		role.Permissions = string(permissions)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&role); result.Error != nil {
		log.Error("Failed to update custom role", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.Info("Custom role updated", zap.Uint("role_id", role.ID))
	return c.JSON(http.StatusOK, role)
}

// DeleteRole removes a custom role; members referencing it fall back to
// their fixed role's permissions on the next request
func DeleteRole(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).Delete(&model.CustomRole{})
	if result.Error != nil {
		log.Error("Failed to delete custom role", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "role not found"})
	}

	log.Info("Custom role deleted", zap.Uint64("role_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Role deleted successfully"})
}
