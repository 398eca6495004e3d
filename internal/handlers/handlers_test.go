package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/oauth"
	"github.com/onegreenvn/xreacher-gateway/internal/services"
	"github.com/onegreenvn/xreacher-gateway/internal/services/excel"
	"github.com/stretchr/testify/require"
)

const (
	testUser   = "42"
	testOrigin = "http://dashboard.test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend is an in-memory rendition of the backend REST API
type fakeBackend struct {
	mu        sync.Mutex
	calls     map[string]int
	campaigns map[int64]*models.Campaign
	nextID    int64
	accounts  []models.TwitterAccount
	createErr string
	scrapeErr string
	server    *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		calls:     make(map[string]int),
		campaigns: make(map[int64]*models.Campaign),
		nextID:    100,
		accounts: []models.TwitterAccount{
			{ID: 7, Username: "acme_growth", ConnectionStatus: models.ConnectionConnected},
			{ID: 8, Username: "old_sender", ConnectionStatus: models.ConnectionExpired},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/twitter-accounts", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		accounts := append([]models.TwitterAccount(nil), fb.accounts...)
		fb.mu.Unlock()
		fb.writeJSON(w, http.StatusOK, gin.H{"accounts": accounts})
	})
	mux.HandleFunc("POST /api/twitter-accounts/oauth/exchange", func(w http.ResponseWriter, r *http.Request) {
		linked := models.TwitterAccount{ID: 9, Username: "linked", ConnectionStatus: models.ConnectionConnected}
		fb.mu.Lock()
		fb.accounts = append(fb.accounts, linked)
		fb.mu.Unlock()
		fb.writeJSON(w, http.StatusOK, gin.H{"message": "Account connected", "account": linked})
	})
	mux.HandleFunc("POST /api/twitter-accounts/{id}/disconnect", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		fb.mu.Lock()
		for i := range fb.accounts {
			if fb.accounts[i].ID == id {
				fb.accounts[i].ConnectionStatus = models.ConnectionRevoked
			}
		}
		fb.mu.Unlock()
		fb.writeJSON(w, http.StatusOK, gin.H{"message": "Account disconnected"})
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		fb.writeJSON(w, http.StatusConflict, gin.H{"success": false, "error": "Email address is already registered"})
	})
	mux.HandleFunc("GET /api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		list := make([]models.Campaign, 0, len(fb.campaigns))
		for _, c := range fb.campaigns {
			list = append(list, *c)
		}
		fb.mu.Unlock()
		fb.writeJSON(w, http.StatusOK, gin.H{"campaigns": list})
	})
	mux.HandleFunc("POST /api/campaigns", func(w http.ResponseWriter, r *http.Request) {
		if fb.createErr != "" {
			fb.writeJSON(w, http.StatusBadRequest, gin.H{"success": false, "error": fb.createErr})
			return
		}
		var req models.CreateCampaignRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		fb.mu.Lock()
		fb.nextID++
		created := &models.Campaign{
			ID:               fb.nextID,
			Name:             req.Name,
			Status:           models.CampaignDraftStatus,
			TargetType:       req.TargetType,
			TargetUsername:   req.TargetUsername,
			MessageTemplate:  req.MessageTemplate,
			TwitterAccountID: req.SenderAccountID,
			DailyLimit:       req.DailyLimit,
		}
		fb.campaigns[created.ID] = created
		fb.mu.Unlock()
		fb.writeJSON(w, http.StatusCreated, gin.H{"campaign": created})
	})
	mux.HandleFunc("GET /api/campaigns/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		fb.mu.Lock()
		item, ok := fb.campaigns[id]
		fb.mu.Unlock()
		if !ok {
			fb.writeJSON(w, http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		fb.writeJSON(w, http.StatusOK, gin.H{"campaign": item})
	})
	mux.HandleFunc("POST /api/scrape/followers", func(w http.ResponseWriter, r *http.Request) {
		if fb.scrapeErr != "" {
			fb.writeJSON(w, http.StatusBadRequest, gin.H{"success": false, "error": fb.scrapeErr})
			return
		}
		var req models.ScrapeFollowersRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fb.mu.Lock()
		if item, ok := fb.campaigns[req.CampaignID]; ok {
			item.TotalTargets = 120
		}
		fb.mu.Unlock()
		fb.writeJSON(w, http.StatusOK, models.ScrapeResult{TotalScraped: 150, ValidTargets: 120, FilteredOut: 30})
	})
	mux.HandleFunc("GET /api/analytics/dashboard", func(w http.ResponseWriter, r *http.Request) {
		fb.writeJSON(w, http.StatusOK, gin.H{"analytics": models.DashboardAnalytics{TotalCampaigns: 3, MessagesSent: 40}})
	})

	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.calls[r.Method+" "+r.URL.Path]++
		fb.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (fb *fakeBackend) count(key string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[key]
}

func (fb *fakeBackend) campaign(id int64) models.Campaign {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return *fb.campaigns[id]
}

type testEnv struct {
	backend  *fakeBackend
	hub      *services.SSEHub
	forms    *campaign.Registry
	targeter *campaign.Targeter
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fb := newFakeBackend(t)
	api := backend.NewClient(config.BackendConfig{URL: fb.server.URL, Timeout: 5 * time.Second})
	hub := services.NewSSEHub()

	targeter := campaign.NewTargeter(
		config.TargetingConfig{Tick: 5 * time.Millisecond, Step: 10, Retention: time.Minute},
		campaign.NewProgressBoard(time.Minute),
		campaign.WithBroadcaster(hub),
	)
	forms := campaign.NewRegistry(targeter)
	flow := oauth.NewFlow(config.OAuthConfig{
		ClientID:     "client-id",
		CallbackURL:  testOrigin + "/auth/x/callback",
		AuthorizeURL: "https://x.test/i/oauth2/authorize",
		TokenURL:     "https://api.x.test/2/oauth2/token",
		Scopes:       []string{"tweet.read", "dm.write"},
		HandshakeTTL: time.Minute,
	}, testOrigin, oauth.NewMemoryStore(), oauth.NewHubChannel(hub))

	authHandler := NewAuthHandler(api)
	accountHandler := NewAccountHandler(api, flow, forms, hub)
	draftHandler := NewDraftHandler(api, forms)
	campaignHandler := NewCampaignHandler(api, forms, excel.NewExcelService())
	targetingHandler := NewTargetingHandler(api, targeter, nil)
	analyticsHandler := NewAnalyticsHandler(api)

	r := gin.New()
	r.POST("/auth/register", authHandler.Register)

	protected := r.Group("")
	protected.Use(func(c *gin.Context) {
		c.Set("user_id", testUser)
		c.Set("access_token", "token")
		c.Next()
	})
	protected.GET("/twitter-accounts", accountHandler.ListAccounts)
	protected.POST("/twitter-accounts/:id/disconnect", accountHandler.DisconnectAccount)
	protected.POST("/twitter-accounts/oauth/start", accountHandler.StartOAuth)
	protected.POST("/twitter-accounts/oauth/callback", accountHandler.OAuthCallback)
	protected.POST("/twitter-accounts/oauth/message", accountHandler.OAuthMessage)
	protected.GET("/campaigns", campaignHandler.ListCampaigns)
	protected.POST("/campaigns", campaignHandler.CreateCampaign)
	protected.GET("/campaigns/export", campaignHandler.ExportCampaigns)
	protected.GET("/campaigns/draft", draftHandler.GetDraft)
	protected.PATCH("/campaigns/draft", draftHandler.UpdateDraft)
	protected.POST("/campaigns/draft/file", draftHandler.AttachFile)
	protected.POST("/campaigns/draft/submit", draftHandler.SubmitDraft)
	protected.DELETE("/campaigns/draft", draftHandler.DiscardDraft)
	protected.GET("/campaigns/:id", campaignHandler.GetCampaign)
	protected.GET("/targeting/jobs", targetingHandler.ListJobs)
	protected.GET("/targeting/:campaign_id/progress", targetingHandler.GetProgress)
	protected.POST("/targeting/:campaign_id/retry", targetingHandler.RetryJob)
	protected.GET("/analytics/dashboard", analyticsHandler.GetDashboard)

	t.Cleanup(targeter.Wait)
	return &testEnv{
		backend:  fb,
		hub:      hub,
		forms:    forms,
		targeter: targeter,
		router:   r,
	}
}

func (e *testEnv) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(path, filename, contentType string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		_ = writer.WriteField(key, value)
	}
	if filename != "" {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
		header["Content-Type"] = []string{contentType}
		part, _ := writer.CreatePart(header)
		_, _ = part.Write(content)
	}
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
