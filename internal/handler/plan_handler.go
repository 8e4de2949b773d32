package handler

import (
	"net/http"
	"time"

	"erp-service/internal/model"
	"erp-service/pkg/database"
	"erp-service/pkg/logger"
	"erp-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ListPlans returns the active plans available for signup. Public endpoint.
func ListPlans(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var plans []model.Plan
	if result := database.GetDB().Where("active = ?", true).Order("price_minor ASC").Find(&plans); result.Error != nil {
		log.Error("Failed to list plans", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve plans"})
	}

	return c.JSON(http.StatusOK, plans)
}
