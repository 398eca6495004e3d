package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
)

type AnalyticsHandler struct {
	api *backend.Client
}

func NewAnalyticsHandler(api *backend.Client) *AnalyticsHandler {
	return &AnalyticsHandler{api: api}
}

// GetDashboard godoc
// @Summary Get dashboard analytics
// @Description Outreach totals across the caller's campaigns
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardAnalytics
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/analytics/dashboard [get]
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	analytics, err := backendClient(c, h.api).DashboardAnalytics(c.Request.Context())
	if err != nil {
		respondBackendError(c, err, "Failed to get analytics")
		return
	}

	c.JSON(http.StatusOK, analytics)
}
