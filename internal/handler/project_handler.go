package handler

import (
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

// ListProjects returns the current tenant's projects. Never quota-blocked.
func ListProjects(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var projects []model.Project
	if result := database.GetDB().Where("tenant_id = ?", tc.TenantID).Order("created_at DESC").Find(&projects); result.Error != nil {
		log.Error("Failed to list projects", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve projects"})
	}

	return c.JSON(http.StatusOK, projects)
}

// CreateProject creates a project for the current tenant. The gate has
// already verified the plan's project quota before this runs.
func CreateProject(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	userID, _ := c.Get("user_id").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	project := model.Project{
		TenantID:    tc.TenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      "active",
		OwnerID:     userID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&project); result.Error != nil {
		log.Error("Failed to create project", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "project creation failed"})
	}

	log.Info("Project created",
		zap.Uint("tenant_id", tc.TenantID),
		zap.Uint("project_id", project.ID),
		zap.String("name", project.Name))

	return c.JSON(http.StatusCreated, project)
}

// GetProject returns one of the current tenant's projects
func GetProject(c echo.Context) error {
	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var project model.Project
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).First(&project); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	return c.JSON(http.StatusOK, project)
}

// UpdateProject updates a project's mutable fields
func UpdateProject(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
		Status      *string `json:"status,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var project model.Project
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).First(&project); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&project); result.Error != nil {
		log.Error("Failed to update project", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject soft-deletes a project, freeing quota for new ones
func DeleteProject(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).Delete(&model.Project{})
	if result.Error != nil {
		log.Error("Failed to delete project", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	log.Info("Project deleted", zap.Uint("tenant_id", tc.TenantID), zap.Uint64("project_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Project deleted successfully"})
}
