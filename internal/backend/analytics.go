package backend

import (
	"context"
	"net/http"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

type analyticsResponse struct {
	Analytics models.DashboardAnalytics `json:"analytics"`
}

// DashboardAnalytics returns the user's outreach summary
func (c *Client) DashboardAnalytics(ctx context.Context) (*models.DashboardAnalytics, error) {
	var resp analyticsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/analytics/dashboard", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Analytics, nil
}
