package handler

import (
	"net/http"
	"time"

	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/jwtutil"
	"erp-service/pkg/logger"
	"erp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login authenticates a user and issues a JWT, tenant-scoped when the user
// selects or defaults to a tenant
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TenantID *uint  `json:"tenant_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Handle tenant selection logic
	var selectedTenantID *uint
	var tenantName string
	var userRole string

	if req.TenantID != nil {
		// If tenant ID is provided, verify the user has access to this tenant
		var tenantUser model.TenantUser
		result := database.GetDB().Where("user_id = ? AND tenant_id = ? AND active = ?", user.ID, *req.TenantID, true).First(&tenantUser)
		if result.Error != nil {
			log.Warn("User does not have access to the specified tenant",
				zap.String("email", req.Email),
				zap.Uint("tenant_id", *req.TenantID))
			prometheus.RecordAuthError("tenant_access_denied")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to the specified tenant"})
		}

		// Get tenant name
		var tenant model.Tenant
		if result := database.GetDB().Select("name").First(&tenant, *req.TenantID); result.Error == nil {
			tenantName = tenant.Name
		}

		selectedTenantID = req.TenantID
		userRole = tenantUser.Role
	} else if user.TenantID != nil {
		// Use the user's default tenant if available
		selectedTenantID = user.TenantID

		var tenant model.Tenant
		if result := database.GetDB().Select("name").First(&tenant, *user.TenantID); result.Error == nil {
			tenantName = tenant.Name
		}

		var tenantUser model.TenantUser
		if result := database.GetDB().Select("role").Where("user_id = ? AND tenant_id = ?", user.ID, *user.TenantID).First(&tenantUser); result.Error == nil {
			userRole = tenantUser.Role
		}
	}

	// Generate JWT token with tenant information if available
	var token string
	if selectedTenantID != nil {
		token, err = jwtutil.GenerateTokenWithTenant(user.Email, user.ID, selectedTenantID, tenantName, userRole)
	} else {
		token, err = jwtutil.GenerateToken(user.Email, user.ID)
	}

	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	// Increment active tokens gauge
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("user_id", user.ID))

	// Build response with tenant info if available
	response := echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
	}

	if selectedTenantID != nil {
		response["tenant"] = map[string]interface{}{
			"id":   *selectedTenantID,
			"name": tenantName,
			"role": userRole,
		}
	}

	return c.JSON(http.StatusOK, response)
}

// Register creates a new user account
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Warn("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Warn("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	// Create new user
	user := model.User{
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email), zap.Uint("user_id", user.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registration successful",
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// RefreshToken issues a fresh token carrying the same identity and tenant
// context as the presented one
func RefreshToken(c echo.Context) error {
	log := logger.FromContext(c)

	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) < 8 {
		prometheus.RecordAuthError("missing_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	claims, err := jwtutil.ValidateToken(authHeader[7:])
	if err != nil {
		log.Warn("Refresh with invalid token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	token, err := jwtutil.GenerateTokenWithTenant(claims.Email, claims.UserID, claims.TenantID, claims.TenantName, claims.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// SelectTenant generates a new token scoped to one of the caller's tenants
func SelectTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("select")

	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) < 8 {
		prometheus.RecordAuthError("missing_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	claims, err := jwtutil.ValidateToken(authHeader[7:])
	if err != nil {
		log.Warn("Tenant selection with invalid token", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
	}

	var req struct {
		TenantID uint `json:"tenant_id"`
	}

	if err := c.Bind(&req); err != nil || req.TenantID == 0 {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	// Verify the user has access to this tenant
	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenantUser model.TenantUser
	result := database.GetDB().Where("user_id = ? AND tenant_id = ? AND active = ?", claims.UserID, req.TenantID, true).First(&tenantUser)
	if result.Error != nil {
		log.Warn("Unauthorized tenant selection attempt",
			zap.Uint("user_id", claims.UserID),
			zap.Uint("tenant_id", req.TenantID))
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied to requested tenant"})
	}

	var tenant model.Tenant
	if result := database.GetDB().Select("name").First(&tenant, req.TenantID); result.Error != nil {
		log.Error("Tenant not found", zap.Uint("id", req.TenantID), zap.Error(result.Error))
		prometheus.RecordAuthError("tenant_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	tenantID := req.TenantID
	token, err := jwtutil.GenerateTokenWithTenant(claims.Email, claims.UserID, &tenantID, tenant.Name, tenantUser.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()

	log.Info("User selected tenant",
		zap.Uint("user_id", claims.UserID),
		zap.Uint("tenant_id", req.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"tenant": map[string]interface{}{
			"id":   req.TenantID,
			"name": tenant.Name,
			"role": tenantUser.Role,
		},
	})
}
