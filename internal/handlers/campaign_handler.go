package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/services/excel"
	"github.com/sirupsen/logrus"
)

type CampaignHandler struct {
	api          *backend.Client
	forms        *campaign.Registry
	excelService *excel.Service
}

func NewCampaignHandler(api *backend.Client, forms *campaign.Registry, excelService *excel.Service) *CampaignHandler {
	return &CampaignHandler{
		api:          api,
		forms:        forms,
		excelService: excelService,
	}
}

// campaignForm is the multipart rendition of models.CampaignDraft
type campaignForm struct {
	Name             string `form:"name"`
	Description      string `form:"description"`
	TargetType       string `form:"target_type"`
	TargetIdentifier string `form:"target_identifier"`
	VerifiedOnly     bool   `form:"verified_only"`
	MessageTemplate  string `form:"message_template"`
	SenderAccountID  int64  `form:"sender_account_id"`
	DailyLimit       int    `form:"daily_limit"`
	MaxFollowers     int    `form:"max_followers"`
}

func (f campaignForm) draft() models.CampaignDraft {
	draft := models.NewCampaignDraft()
	draft.Name = f.Name
	draft.Description = f.Description
	draft.TargetType = models.TargetType(f.TargetType)
	draft.TargetIdentifier = f.TargetIdentifier
	draft.VerifiedOnly = f.VerifiedOnly
	draft.MessageTemplate = f.MessageTemplate
	draft.SenderAccountID = f.SenderAccountID
	if f.DailyLimit > 0 {
		draft.DailyLimit = f.DailyLimit
	}
	if f.MaxFollowers > 0 {
		draft.MaxFollowers = f.MaxFollowers
	}
	return draft
}

// ListCampaigns godoc
// @Summary List campaigns
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(draft, active, paused, completed, failed)
// @Param limit query int false "Max campaigns"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	filter := models.CampaignListFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	}

	campaigns, err := backendClient(c, h.api).ListCampaigns(c.Request.Context(), filter)
	if err != nil {
		respondBackendError(c, err, "Failed to get campaigns")
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// GetCampaign godoc
// @Summary Get campaign by ID
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	item, err := backendClient(c, h.api).GetCampaign(c.Request.Context(), id)
	if err != nil {
		respondBackendError(c, err, "Failed to get campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaign": item})
}

// CreateCampaign godoc
// @Summary Create a campaign in one request
// @Description Validates and creates a campaign without touching the caller's saved draft.
// @Description Accepts JSON, or multipart form fields plus a "file" part for CSV targeting.
// @Tags campaigns
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param request body models.CampaignDraft true "Campaign draft"
// @Success 201 {object} campaign.SubmitResult
// @Failure 422 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	draft := models.NewCampaignDraft()
	var file *models.CSVFile
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var req campaignForm
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
			return
		}
		draft = req.draft()

		if fileHeader, err := c.FormFile("file"); err == nil {
			file, err = readCSVFile(fileHeader)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file", "details": err.Error()})
				return
			}
		}
	} else if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	saved := h.forms.Form(userID)
	if !saved.AccountsLoaded() {
		if err := loadAccounts(c, h.api, saved); err != nil {
			respondBackendError(c, err, "Failed to get accounts")
			return
		}
	}

	form := campaign.NewForm(userID, h.forms.Targeter())
	form.SetAccounts(saved.Accounts())
	if _, err := form.Update(patchFromDraft(draft)); err != nil {
		respondSubmitError(c, err)
		return
	}
	if file != nil {
		if _, err := form.AttachFile(file); err != nil {
			respondSubmitError(c, err)
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

// StartCampaign godoc
// @Summary Start sending a campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/start [post]
func (h *CampaignHandler) StartCampaign(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := backendClient(c, h.api).StartCampaign(c.Request.Context(), id); err != nil {
		respondBackendError(c, err, "Failed to start campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign started successfully"})
}

// PauseCampaign godoc
// @Summary Pause a running campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/pause [post]
func (h *CampaignHandler) PauseCampaign(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := backendClient(c, h.api).PauseCampaign(c.Request.Context(), id); err != nil {
		respondBackendError(c, err, "Failed to pause campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign paused successfully"})
}

// DeleteCampaign godoc
// @Summary Delete a campaign
// @Tags campaigns
// @Produce json
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := backendClient(c, h.api).DeleteCampaign(c.Request.Context(), id); err != nil {
		respondBackendError(c, err, "Failed to delete campaign")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign deleted successfully"})
}

// ExportCampaigns godoc
// @Summary Export campaigns to Excel
// @Description Download every campaign of the caller with its outreach counters as an .xlsx workbook
// @Tags campaigns
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {file} file
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/campaigns/export [get]
func (h *CampaignHandler) ExportCampaigns(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	campaigns, err := backendClient(c, h.api).ListCampaigns(c.Request.Context(), models.CampaignListFilter{Status: c.Query("status")})
	if err != nil {
		respondBackendError(c, err, "Failed to get campaigns")
		return
	}

	export, err := h.excelService.ExportCampaigns(userID, campaigns)
	if err != nil {
		logrus.WithField("user_id", userID).Errorf("Failed to export campaigns: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export campaigns", "details": err.Error()})
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.Filename))
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Cache-Control", "must-revalidate")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.Data)
}

func patchFromDraft(draft models.CampaignDraft) models.CampaignDraftPatch {
	return models.CampaignDraftPatch{
		Name:             &draft.Name,
		Description:      &draft.Description,
		TargetType:       &draft.TargetType,
		TargetIdentifier: &draft.TargetIdentifier,
		VerifiedOnly:     &draft.VerifiedOnly,
		MessageTemplate:  &draft.MessageTemplate,
		SenderAccountID:  &draft.SenderAccountID,
		DailyLimit:       &draft.DailyLimit,
		MaxFollowers:     &draft.MaxFollowers,
	}
}
