package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaignOneShotLeavesDraftAlone(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPatch, "/campaigns/draft", map[string]interface{}{"name": "Work in progress"})

	w := env.do(http.MethodPost, "/campaigns", validDraftPatch())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, env.backend.count(createPath))
	env.targeter.Wait()

	assert.Equal(t, "Work in progress", env.forms.Form(testUser).Draft().Name)
}

func TestCreateCampaignMultipartCSV(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload("/campaigns", "leads.txt", "text/plain", []byte("username\nbob\n"), map[string]string{
		"name":              "CSV campaign",
		"sender_account_id": "7",
		"target_type":       "csv_upload",
		"message_template":  "Hello there, quick question for you",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	errs := decode(t, w)["errors"].(map[string]interface{})
	assert.Equal(t, "File must be a CSV", errs["csv_file"])
	assert.Equal(t, 0, env.backend.count(createPath))
}

func TestCreateCampaignInvalidListID(t *testing.T) {
	env := newTestEnv(t)
	patch := validDraftPatch()
	patch["target_type"] = "list_members"
	patch["target_identifier"] = "abc123"

	w := env.do(http.MethodPost, "/campaigns", patch)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errs := decode(t, w)["errors"].(map[string]interface{})
	assert.Equal(t, "List ID must be numeric", errs["target_identifier"])
}

func TestGetCampaignNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/campaigns/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Campaign not found", decode(t, w)["error"])

	w = env.do(http.MethodGet, "/campaigns/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCampaigns(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/campaigns", validDraftPatch())
	env.targeter.Wait()

	w := env.do(http.MethodGet, "/campaigns/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "PK", w.Body.String()[:2])
}

func TestRetryFollowersWithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	env.backend.scrapeErr = "Rate limited"

	w := env.do(http.MethodPost, "/campaigns", validDraftPatch())
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(decode(t, w)["campaign"].(map[string]interface{})["id"].(float64))
	env.targeter.Wait()

	env.backend.scrapeErr = ""
	w = env.do(http.MethodPost, "/targeting/"+strconv.FormatInt(id, 10)+"/retry", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	env.targeter.Wait()

	assert.Equal(t, 2, env.backend.count("POST /api/scrape/followers"))
	assert.Equal(t, 120, env.backend.campaign(id).TotalTargets)

	w = env.do(http.MethodGet, "/targeting/"+strconv.FormatInt(id, 10)+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.TargetingCompleted), decode(t, w)["status"])
}

func TestProgressUnknownCampaign(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/targeting/5/progress", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/targeting/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Empty(t, body["progress"])
	assert.NotContains(t, body, "jobs")
}

func TestRegisterMapsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    "jane@example.com",
		"username": "jane_doe",
		"password": "S3cure!pass",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Email address is already registered", body["error"])
	assert.Equal(t, "email", body["field"])
}

func TestDashboardAnalytics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["total_campaigns"])
}
