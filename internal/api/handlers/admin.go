package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	middlewares "github.com/playvault/game-request-api/internal/middleware"
	"github.com/playvault/game-request-api/internal/models"
	"github.com/playvault/game-request-api/internal/notify"
	"github.com/playvault/game-request-api/internal/requests"
)

// AdminHandler exposes the admin dashboard: stats, settings, audit log
// and a Telegram test send.
type AdminHandler struct {
	service  *requests.Service
	notifier *notify.TelegramNotifier
}

func NewAdminHandler(service *requests.Service, notifier *notify.TelegramNotifier) *AdminHandler {
	return &AdminHandler{
		service:  service,
		notifier: notifier,
	}
}

// Stats godoc
// @Summary Request counts per status
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// GetSettings godoc
// @Summary Current system settings
// @Tags admin
// @Produce json
// @Success 200 {object} models.SystemSettings
// @Router /api/v1/admin/settings [get]
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context())
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Replace system settings
// @Tags admin
// @Accept json
// @Produce json
// @Param settings body models.SystemSettings true "New settings"
// @Success 200 {object} models.SystemSettings
// @Failure 400 {object} map[string]string
// @Router /api/v1/admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var settings models.SystemSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload: " + err.Error()})
		return
	}
	if settings.MaxRequestsPerUser < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_requests_per_user must not be negative"})
		return
	}

	if err := h.service.SaveSettings(c.Request.Context(), middlewares.GetUser(c), settings); err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// TestNotification godoc
// @Summary Send a Telegram test message
// @Description Verifies the configured bot token and chat id
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/admin/settings/test-notification [post]
func (h *AdminHandler) TestNotification(c *gin.Context) {
	if err := h.notifier.SendTest(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Test notification failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// Audit godoc
// @Summary Recent administrative actions
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum entries returned" default(100)
// @Success 200 {array} models.AuditEntry
// @Router /api/v1/admin/audit [get]
func (h *AdminHandler) Audit(c *gin.Context) {
	entries, err := h.service.Audit(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		respondRequestError(c, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
