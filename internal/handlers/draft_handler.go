package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/sirupsen/logrus"
)

type DraftHandler struct {
	api   *backend.Client
	forms *campaign.Registry
}

func NewDraftHandler(api *backend.Client, forms *campaign.Registry) *DraftHandler {
	return &DraftHandler{api: api, forms: forms}
}

// GetDraft godoc
// @Summary Get the campaign draft
// @Description Returns the caller's draft and refreshes the sender accounts used for validation
// @Tags campaign-draft
// @Produce json
// @Security BearerAuth
// @Success 200 {object} campaign.Snapshot
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/campaigns/draft [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	form := h.forms.Form(userID)

	if err := loadAccounts(c, h.api, form); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			respondBackendError(c, err, "Failed to get accounts")
			return
		}
		logrus.WithField("user_id", userID).Warnf("Failed to refresh sender accounts: %v", err)
	}

	c.JSON(http.StatusOK, form.Snapshot())
}

// UpdateDraft godoc
// @Summary Edit the campaign draft
// @Description Applies the given fields and clears their validation errors
// @Tags campaign-draft
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CampaignDraftPatch true "Edited fields"
// @Success 200 {object} campaign.Snapshot
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/draft [patch]
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var patch models.CampaignDraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	snapshot, err := h.forms.Form(userID).Update(patch)
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// AttachFile godoc
// @Summary Attach a CSV target list to the draft
// @Tags campaign-draft
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "CSV file"
// @Success 200 {object} campaign.Snapshot
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/campaigns/draft/file [post]
func (h *DraftHandler) AttachFile(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided", "details": err.Error()})
		return
	}

	file, err := readCSVFile(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file", "details": err.Error()})
		return
	}

	snapshot, err := h.forms.Form(userID).AttachFile(file)
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// SubmitDraft godoc
// @Summary Submit the campaign draft
// @Description Validates the draft, creates the campaign and starts its targeting job.
// @Description An invalid draft is answered with per-field errors and never reaches the backend.
// @Tags campaign-draft
// @Produce json
// @Security BearerAuth
// @Success 201 {object} campaign.SubmitResult
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/campaigns/draft/submit [post]
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	form := h.forms.Form(userID)

	if !form.AccountsLoaded() {
		if err := loadAccounts(c, h.api, form); err != nil {
			respondBackendError(c, err, "Failed to get accounts")
			return
		}
	}

	result, err := form.Submit(c.Request.Context(), backendClient(c, h.api))
	if err != nil {
		respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// DiscardDraft godoc
// @Summary Discard the campaign draft
// @Tags campaign-draft
// @Produce json
// @Security BearerAuth
// @Success 200 {object} campaign.Snapshot
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/campaigns/draft [delete]
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	form := h.forms.Form(userID)

	if err := form.Cancel(); err != nil {
		respondSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, form.Snapshot())
}

// loadAccounts refreshes the sender accounts cached on form
func loadAccounts(c *gin.Context, api *backend.Client, form *campaign.Form) error {
	accounts, err := backendClient(c, api).ListAccounts(c.Request.Context())
	if err != nil {
		return err
	}
	form.SetAccounts(accounts)
	return nil
}

// readCSVFile loads an uploaded target list. Oversized files keep their size
// but no content so validation can reject them.
func readCSVFile(fileHeader *multipart.FileHeader) (*models.CSVFile, error) {
	file := &models.CSVFile{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}
	if fileHeader.Size > campaign.MaxCSVSize {
		return file, nil
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, campaign.MaxCSVSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	file.Data = data
	file.Size = int64(len(data))
	return file, nil
}

// respondSubmitError maps draft and backend errors to the dashboard response
func respondSubmitError(c *gin.Context, err error) {
	var invalid *campaign.InvalidDraftError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Please fix the highlighted fields", "errors": invalid.Errors})
	case errors.Is(err, campaign.ErrSubmitInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Campaign is already being created"})
	default:
		respondBackendError(c, err, "Failed to create campaign")
	}
}
