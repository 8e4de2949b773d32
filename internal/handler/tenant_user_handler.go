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
	"gorm.io/gorm"
)

// ListTenantUsers returns the members of the current tenant
func ListTenantUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("list_users")

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenantUsers []model.TenantUser
	result := database.GetDB().Preload("User").Where("tenant_id = ? AND active = ?", tc.TenantID, true).Find(&tenantUsers)
	if result.Error != nil {
		log.Error("Failed to retrieve tenant users", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve members"})
	}

	type MemberResponse struct {
		UserID   uint      `json:"user_id"`
		Email    string    `json:"email"`
		Role     string    `json:"role"`
		JoinedAt time.Time `json:"joined_at"`
	}

	var response []MemberResponse
	for _, tu := range tenantUsers {
		response = append(response, MemberResponse{
			UserID:   tu.UserID,
			Email:    tu.User.Email,
			Role:     tu.Role,
			JoinedAt: tu.JoinedAt,
		})
	}

	return c.JSON(http.StatusOK, response)
}

// AddTenantUser adds an existing user to the current tenant. The gate's
// plan-limit enforcer has already checked the user quota before this runs.
func AddTenantUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("add_user")

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	var req struct {
		UserEmail    string `json:"user_email"`
		Role         string `json:"role,omitempty"`
		CustomRoleID *uint  `json:"custom_role_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse add user request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UserEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_email is required"})
	}

	// Default role if not provided; the owner role is only assigned at signup
	if req.Role == "" {
		req.Role = "member"
	}
	if req.Role == gate.RoleOwner {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "owner role cannot be assigned"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	// Find the user by email
	var user model.User
	if result := database.GetDB().Where("email = ?", req.UserEmail).First(&user); result.Error != nil {
		log.Warn("User not found", zap.String("email", req.UserEmail))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	// Check for an existing association, including removed ones: the
	// (tenant_id, user_id) unique index still holds soft-deleted rows,
	// so a previously removed member is revived, never re-created
	var existing model.TenantUser
	result := database.GetDB().Unscoped().Where("user_id = ? AND tenant_id = ?", user.ID, tc.TenantID).First(&existing)
	if result.Error == nil {
		if existing.DeletedAt.Valid {
			existing.DeletedAt = gorm.DeletedAt{}
			existing.Role = req.Role
			existing.CustomRoleID = req.CustomRoleID
			existing.Active = true
			existing.JoinedAt = time.Now()
			if err := database.GetDB().Unscoped().Save(&existing).Error; err != nil {
				log.Error("Failed to revive membership", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add member"})
			}

			log.Info("Re-added previously removed user",
				zap.Uint("tenant_id", tc.TenantID),
				zap.String("user_email", req.UserEmail),
				zap.String("role", req.Role))

			return c.JSON(http.StatusCreated, echo.Map{
				"message":     "Member added successfully",
				"tenant_user": existing,
			})
		}

		// User is already a member, update their role if different
		if existing.Role != req.Role || existing.CustomRoleID != req.CustomRoleID {
			existing.Role = req.Role
			existing.CustomRoleID = req.CustomRoleID
			if err := database.GetDB().Save(&existing).Error; err != nil {
				log.Error("Failed to update member role", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update member role"})
			}
			log.Info("Updated member role",
				zap.Uint("tenant_id", tc.TenantID),
				zap.String("user_email", req.UserEmail),
				zap.String("role", req.Role))
		}

		return c.JSON(http.StatusOK, echo.Map{
			"message":     "Member role updated",
			"tenant_user": existing,
		})
	}

	tenantUser := model.TenantUser{
		TenantID:     tc.TenantID,
		UserID:       user.ID,
		Role:         req.Role,
		CustomRoleID: req.CustomRoleID,
		Active:       true,
		JoinedAt:     time.Now(),
	}

	if err := database.GetDB().Create(&tenantUser).Error; err != nil {
		log.Error("Failed to add user to tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add member"})
	}

	log.Info("Added user to tenant",
		zap.Uint("tenant_id", tc.TenantID),
		zap.String("user_email", req.UserEmail),
		zap.String("role", req.Role))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Member added successfully",
		"tenant_user": tenantUser,
	})
}

// RemoveTenantUser removes a member from the current tenant
func RemoveTenantUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("remove_user")

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	targetUserID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	// The owner cannot be removed from their own tenant
	var target model.TenantUser
	result := database.GetDB().Where("user_id = ? AND tenant_id = ?", targetUserID, tc.TenantID).First(&target)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found in this tenant"})
	}
	if target.Role == gate.RoleOwner {
		log.Warn("Attempted to remove tenant owner",
			zap.Uint("tenant_id", tc.TenantID),
			zap.Uint64("user_id", targetUserID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot remove tenant owner"})
	}

	if result := database.GetDB().Delete(&target); result.Error != nil {
		log.Error("Failed to remove user from tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove member"})
	}

	log.Info("Removed user from tenant",
		zap.Uint("tenant_id", tc.TenantID),
		zap.Uint64("user_id", targetUserID))

	return c.JSON(http.StatusOK, echo.Map{"message": "Member removed successfully"})
}
