package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// JobHistory reads recorded targeting jobs
type JobHistory interface {
	GetLatestByCampaign(ctx context.Context, userID string, campaignID int64) (*models.TargetingJob, error)
	GetByUserID(ctx context.Context, userID string, status string, page, pageSize int) ([]models.TargetingJob, int64, error)
}

type TargetingHandler struct {
	api      *backend.Client
	targeter *campaign.Targeter
	history  JobHistory
}

// NewTargetingHandler creates the targeting handler. history may be nil when no
// database is configured; retries then fall back to the campaign's own target.
func NewTargetingHandler(api *backend.Client, targeter *campaign.Targeter, history JobHistory) *TargetingHandler {
	return &TargetingHandler{
		api:      api,
		targeter: targeter,
		history:  history,
	}
}

// GetProgress godoc
// @Summary Get targeting progress of a campaign
// @Description Progress is approximate and capped at 90 until the backend answers
// @Tags targeting
// @Produce json
// @Security BearerAuth
// @Param campaign_id path int true "Campaign ID"
// @Success 200 {object} models.ScrapingProgress
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/targeting/{campaign_id}/progress [get]
func (h *TargetingHandler) GetProgress(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID, ok := parseIDParam(c, "campaign_id")
	if !ok {
		return
	}

	progress, found := h.targeter.Board().Get(userID, campaignID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No targeting job for this campaign"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ListJobs godoc
// @Summary List targeting jobs
// @Description Lists the caller's live progress and, when history is recorded, past jobs
// @Tags targeting
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(running, completed, failed)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/targeting/jobs [get]
func (h *TargetingHandler) ListJobs(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	response := gin.H{"progress": h.targeter.Board().List(userID)}

	if h.history != nil {
		page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))
		jobs, total, err := h.history.GetByUserID(c.Request.Context(), userID, c.Query("status"), page, pageSize)
		if err != nil {
			logrus.WithField("user_id", userID).Errorf("Failed to list targeting jobs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get targeting jobs", "details": err.Error()})
			return
		}
		response["jobs"] = jobs
		response["pagination"] = utils.CalculatePaginationInfo(int(total), page, pageSize)
	}

	c.JSON(http.StatusOK, response)
}

// RetryJob godoc
// @Summary Retry the targeting job of a campaign
// @Description Runs the campaign's targeting again. CSV campaigns need the file uploaded again
// @Description as the "file" multipart part.
// @Tags targeting
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param campaign_id path int true "Campaign ID"
// @Param file formData file false "CSV file for csv_upload campaigns"
// @Success 202 {object} models.ScrapingProgress
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/targeting/{campaign_id}/retry [post]
func (h *TargetingHandler) RetryJob(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	campaignID, ok := parseIDParam(c, "campaign_id")
	if !ok {
		return
	}

	if h.targeter.Running(campaignID) {
		c.JSON(http.StatusConflict, gin.H{"error": campaign.ErrJobRunning.Error()})
		return
	}

	api := backendClient(c, h.api)
	item, err := api.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		respondBackendError(c, err, "Failed to get campaign")
		return
	}

	spec, err := h.retrySpec(c, userID, item)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if spec.TargetType == models.TargetCSVUpload {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Upload the CSV file again to retry"})
			return
		}
		if spec.File, err = readCSVFile(fileHeader); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file", "details": err.Error()})
			return
		}
		if msg := campaign.ValidateCSV(spec.File); msg != "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg, "errors": campaign.ValidationErrors{campaign.FieldCSV: msg}})
			return
		}
	}

	progress, err := h.targeter.Start(api, item, spec)
	if err != nil {
		if errors.Is(err, campaign.ErrJobRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start targeting job", "details": err.Error()})
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "campaign_id": campaignID}).Info("Targeting job retried")
	c.JSON(http.StatusAccepted, progress)
}

// retrySpec rebuilds the job of a campaign from its last recorded run,
// or from the campaign itself when nothing was recorded.
func (h *TargetingHandler) retrySpec(c *gin.Context, userID string, item *models.Campaign) (campaign.JobSpec, error) {
	if h.history != nil {
		job, err := h.history.GetLatestByCampaign(c.Request.Context(), userID, item.ID)
		switch {
		case err == nil:
			if job.Status == models.TargetingCompleted && item.TotalTargets > 0 {
				return campaign.JobSpec{}, errors.New("Targeting already completed for this campaign")
			}
			return campaign.JobSpec{
				UserID:       userID,
				TargetType:   job.TargetType,
				Identifier:   job.TargetIdentifier,
				VerifiedOnly: job.VerifiedOnly,
				MaxFollowers: job.MaxFollowers,
			}, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			logrus.WithField("campaign_id", item.ID).Warnf("Failed to load last targeting job: %v", err)
		}
	}

	switch item.TargetType {
	case models.TargetUserFollowers:
		if item.TargetUsername == "" {
			return campaign.JobSpec{}, errors.New("Campaign has no target username")
		}
		return campaign.JobSpec{
			UserID:       userID,
			TargetType:   models.TargetUserFollowers,
			Identifier:   item.TargetUsername,
			MaxFollowers: models.DefaultMaxFollowers,
		}, nil
	case models.TargetCSVUpload:
		return campaign.JobSpec{UserID: userID, TargetType: models.TargetCSVUpload}, nil
	}
	return campaign.JobSpec{}, errors.New("No targeting job recorded for this campaign")
}
