package controller

import (
	"net/http"

	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/services"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/gin-gonic/gin"
)

type InfrastructureController struct {
	service services.InfrastructureServiceInterface
	config  *models.Config
	logger  logger.Logger
}

func NewInfrastructureController(service services.InfrastructureServiceInterface, config *models.Config, logger logger.Logger) *InfrastructureController {
	return &InfrastructureController{
		service: service,
		config:  config,
		logger:  logger,
	}
}

// Health handles GET /health
// @Summary Liveness probe
// @Tags Infrastructure
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *InfrastructureController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.config.AppVersion,
		"service": h.config.AppName,
	})
}

// TableHealth handles GET /health/infrastructure
// @Summary Table and provisioning status
// @Description Describes the application table and reports the last provisioning run
// @Tags Infrastructure
// @Produce json
// @Success 200 {object} models.APIResponse "Table is active"
// @Failure 503 {object} models.APIResponse "Table is missing or not active"
// @Router /health/infrastructure [get]
func (h *InfrastructureController) TableHealth(c *gin.Context) {
	health, err := h.service.Health(c.Request.Context())
	if err != nil {
		h.logger.Warnf("Infrastructure health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Status:  "error",
			Code:    http.StatusServiceUnavailable,
			Message: "Table is unavailable",
			Data:    health,
			Error: &models.APIError{
				Type:    "StoreError",
				Details: "table could not be described",
			},
		})
		return
	}

	if health.TableStatus != "ACTIVE" {
		c.JSON(http.StatusServiceUnavailable, models.APIResponse{
			Status:  "degraded",
			Code:    http.StatusServiceUnavailable,
			Message: "Table is not active",
			Data:    health,
		})
		return
	}
	respondSuccess(c, http.StatusOK, "Table is active", health)
}

// Provision handles POST /health/infrastructure/provision
// @Summary Run table provisioning now
// @Tags Infrastructure
// @Produce json
// @Success 200 {object} models.APIResponse "Provisioning completed"
// @Failure 500 {object} models.APIResponse "Provisioning failed"
// @Router /health/infrastructure/provision [post]
func (h *InfrastructureController) Provision(c *gin.Context) {
	result, err := h.service.Provision(c.Request.Context())
	if err != nil {
		if result == nil {
			respondError(c, h.logger, "Provisioning is unavailable", err)
			return
		}
		h.logger.Errorf("Provisioning failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.APIResponse{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: "Provisioning failed",
			Data:    result,
			Error: &models.APIError{
				Type:    "ProvisioningError",
				Details: result.Error,
			},
		})
		return
	}
	respondSuccess(c, http.StatusOK, "Provisioning completed", result)
}
