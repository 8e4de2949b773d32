package handler

import (
	"net/http"
	"time"

	"erp-service/internal/gate"
	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/jwtutil"
	"erp-service/pkg/logger"
	"erp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles tenant self-service signup: it creates the user (unless
// one exists for the email), the tenant, the owner association and a trial
// subscription on the configured trial plan, all in one transaction.
func Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req struct {
		TenantName string `json:"tenant_name"`
		Domain     string `json:"domain"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_name, email and password are required"})
	}

	// Resolve the trial plan up front; signup is broken without it
	var plan model.Plan
	if result := database.GetDB().Where("name = ? AND active = ?", trialPlanName, true).First(&plan); result.Error != nil {
		log.Error("Trial plan not configured", zap.String("plan", trialPlanName), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup is not available"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Reuse an existing account for the email, otherwise create one
	var user model.User
	if result := tx.Where("email = ?", req.Email).First(&user); result.Error != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			tx.Rollback()
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
		}
		user = model.User{Email: req.Email, Password: string(hashedPassword)}
		if result := tx.Create(&user); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to create user", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
		}
	}

	tenant := model.Tenant{
		Name:   req.TenantName,
		Active: true,
	}
	if req.Domain != "" {
		tenant.Domain = &req.Domain
	}
	if result := tx.Create(&tenant); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create tenant", zap.Error(result.Error))
		return c.JSON(http.StatusConflict, echo.Map{"error": "tenant name or domain already taken"})
	}

	tenantUser := model.TenantUser{
		TenantID: tenant.ID,
		UserID:   user.ID,
		Role:     gate.RoleOwner,
		Active:   true,
		JoinedAt: time.Now(),
	}
	if result := tx.Create(&tenantUser); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create owner association", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	// Trial subscription ends after the plan's trial window
	trialEnd := time.Now().AddDate(0, 0, plan.TrialDays)
	subscription := model.Subscription{
		TenantID:  tenant.ID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionStatusTrial,
		StartDate: time.Now(),
		EndDate:   &trialEnd,
	}
	if result := tx.Create(&subscription); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create trial subscription", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	// Make the new tenant the user's default
	if result := tx.Model(&model.User{}).Where("id = ?", user.ID).Update("tenant_id", tenant.ID); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to set default tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
	}

	if contextCache != nil {
		contextCache.Invalidate(tenant.ID)
	}

	tenantID := tenant.ID
	token, err := jwtutil.GenerateTokenWithTenant(user.Email, user.ID, &tenantID, tenant.Name, gate.RoleOwner)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Tenant signed up",
		zap.String("tenant", tenant.Name),
		zap.Uint("tenant_id", tenant.ID),
		zap.Uint("owner_id", user.ID),
		zap.String("plan", plan.Name))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Signup successful",
		"token":   token,
		"tenant":  tenant,
		"subscription": map[string]interface{}{
			"status":    subscription.Status,
			"plan":      plan.Name,
			"trial_end": trialEnd,
		},
	})
}

// GetTenant returns the current tenant's details with its resolved plan facts
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("access")

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		log.Error("Tenant context missing from gated request")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, tc.TenantID); result.Error != nil {
		log.Error("Tenant not found", zap.Uint("id", tc.TenantID), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant": tenant,
		"plan": map[string]interface{}{
			"name":         tc.PlanName,
			"type":         tc.PlanType,
			"max_users":    tc.MaxUsers,
			"max_projects": tc.MaxProjects,
		},
		"subscription_status": tc.SubscriptionStatus,
		"trial_ends_at":       tc.TrialEndsAt,
	})
}

// UpdateTenant updates mutable tenant fields, requires manage_tenant
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	var req struct {
		Name   *string `json:"name,omitempty"`
		Domain *string `json:"domain,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Domain != nil {
		if *req.Domain == "" {
			updates["domain"] = nil
		} else {
			updates["domain"] = *req.Domain
		}
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(&model.Tenant{}).Where("id = ?", tc.TenantID).Updates(updates); result.Error != nil {
		log.Error("Failed to update tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	// The cached context carries the tenant name, drop it so the change shows up
	if contextCache != nil {
		contextCache.Invalidate(tc.TenantID)
	}

	log.Info("Tenant updated", zap.Uint("tenant_id", tc.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant updated successfully"})
}
