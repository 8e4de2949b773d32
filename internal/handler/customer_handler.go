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

// ListCustomers returns the current tenant's CRM customers. The whole CRM
// subtree is feature-gated on the plan's 'crm' module by the gate.
func ListCustomers(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var customers []model.Customer
	if result := database.GetDB().Where("tenant_id = ?", tc.TenantID).Order("name ASC").Find(&customers); result.Error != nil {
		log.Error("Failed to list customers", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve customers"})
	}

	return c.JSON(http.StatusOK, customers)
}

// CreateCustomer creates a CRM customer record for the current tenant
func CreateCustomer(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Company string `json:"company"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	customer := model.Customer{
		TenantID: tc.TenantID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&customer); result.Error != nil {
		log.Error("Failed to create customer", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "customer creation failed"})
	}

	log.Info("Customer created",
		zap.Uint("tenant_id", tc.TenantID),
		zap.Uint("customer_id", customer.ID))

	return c.JSON(http.StatusCreated, customer)
}

// GetCustomer returns one of the current tenant's customers
func GetCustomer(c echo.Context) error {
	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var customer model.Customer
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).First(&customer); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	return c.JSON(http.StatusOK, customer)
}

// UpdateCustomer updates a customer's fields
func UpdateCustomer(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer ID"})
	}

	var req struct {
		Name    *string `json:"name,omitempty"`
		Email   *string `json:"email,omitempty"`
		Phone   *string `json:"phone,omitempty"`
		Company *string `json:"company,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var customer model.Customer
	if result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).First(&customer); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Company != nil {
		customer.Company = *req.Company
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&customer); result.Error != nil {
		log.Error("Failed to update customer", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	return c.JSON(http.StatusOK, customer)
}

// DeleteCustomer soft-deletes a customer record
func DeleteCustomer(c echo.Context) error {
	log := logger.FromContext(c)

	tc, ok := gate.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant context unavailable"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Where("tenant_id = ? AND id = ?", tc.TenantID, id).Delete(&model.Customer{})
	if result.Error != nil {
		log.Error("Failed to delete customer", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
	}

	log.Info("Customer deleted", zap.Uint("tenant_id", tc.TenantID), zap.Uint64("customer_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Customer deleted successfully"})
}
