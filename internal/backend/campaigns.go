package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

type campaignsResponse struct {
	Campaigns []models.Campaign `json:"campaigns"`
}

type campaignResponse struct {
	Campaign models.Campaign `json:"campaign"`
}

// ListCampaigns returns the user's campaigns, newest first
func (c *Client) ListCampaigns(ctx context.Context, filter models.CampaignListFilter) ([]models.Campaign, error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := "/api/campaigns"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp campaignsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, nil
}

// GetCampaign returns one campaign
func (c *Client) GetCampaign(ctx context.Context, campaignID int64) (*models.Campaign, error) {
	var resp campaignResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/campaigns/%d", campaignID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Campaign, nil
}

// CreateCampaign creates a campaign record with no targets
func (c *Client) CreateCampaign(ctx context.Context, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	var resp campaignResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/campaigns", req, &resp); err != nil {
		return nil, err
	}
	if resp.Campaign.ID == 0 {
		return nil, fmt.Errorf("backend created campaign without an id")
	}
	return &resp.Campaign, nil
}

// StartCampaign activates a campaign
func (c *Client) StartCampaign(ctx context.Context, campaignID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/campaigns/%d/start", campaignID), nil, nil)
}

// PauseCampaign pauses an active campaign
func (c *Client) PauseCampaign(ctx context.Context, campaignID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/campaigns/%d/pause", campaignID), nil, nil)
}

// DeleteCampaign removes a campaign and its targets
func (c *Client) DeleteCampaign(ctx context.Context, campaignID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/campaigns/%d", campaignID), nil, nil)
}
