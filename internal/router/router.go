package router

import (
	"time"

	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/handlers"
	"github.com/onegreenvn/xreacher-gateway/internal/middleware"
	"github.com/onegreenvn/xreacher-gateway/internal/oauth"
	"github.com/onegreenvn/xreacher-gateway/internal/services"
	"github.com/onegreenvn/xreacher-gateway/internal/services/excel"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the shared components the routes are built on
type Dependencies struct {
	Config  *config.Config
	Backend *backend.Client
	Tokens  middleware.TokenValidator
	Flow    *oauth.Flow
	Forms   *campaign.Registry
	SSEHub  *services.SSEHub

	// Jobs is nil when no database is configured
	Jobs handlers.JobHistory
}

// SetupRouter configures the Gin router of the dashboard gateway
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{deps.Config.DashboardOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(deps.Tokens)

	authHandler := handlers.NewAuthHandler(deps.Backend)
	accountHandler := handlers.NewAccountHandler(deps.Backend, deps.Flow, deps.Forms, deps.SSEHub)
	campaignHandler := handlers.NewCampaignHandler(deps.Backend, deps.Forms, excel.NewExcelService())
	draftHandler := handlers.NewDraftHandler(deps.Backend, deps.Forms)
	targetingHandler := handlers.NewTargetingHandler(deps.Backend, deps.Forms.Targeter(), deps.Jobs)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Backend)
	eventsHandler := handlers.NewEventsHandler(deps.SSEHub)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
		}

		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			protected.GET("/auth/profile", authHandler.GetProfile)

			accounts := protected.Group("/twitter-accounts")
			{
				accounts.GET("", accountHandler.ListAccounts)
				accounts.POST("", accountHandler.ConnectAccount)
				accounts.POST("/:id/disconnect", accountHandler.DisconnectAccount)
				accounts.POST("/:id/refresh", accountHandler.RefreshAccount)
				accounts.GET("/oauth/status", accountHandler.OAuthStatus)
				accounts.POST("/oauth/start", accountHandler.StartOAuth)
				accounts.POST("/oauth/callback", accountHandler.OAuthCallback)
				accounts.POST("/oauth/message", middleware.RequireOrigin(deps.Config.DashboardOrigin), accountHandler.OAuthMessage)
			}

			campaigns := protected.Group("/campaigns")
			{
				campaigns.GET("", campaignHandler.ListCampaigns)
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("/export", campaignHandler.ExportCampaigns)

				campaigns.GET("/draft", draftHandler.GetDraft)
				campaigns.PATCH("/draft", draftHandler.UpdateDraft)
				campaigns.DELETE("/draft", draftHandler.DiscardDraft)
				campaigns.POST("/draft/file", draftHandler.AttachFile)
				campaigns.POST("/draft/submit", draftHandler.SubmitDraft)

				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.POST("/:id/start", campaignHandler.StartCampaign)
				campaigns.POST("/:id/pause", campaignHandler.PauseCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
			}

			targeting := protected.Group("/targeting")
			{
				targeting.GET("/jobs", targetingHandler.ListJobs)
				targeting.GET("/:campaign_id/progress", targetingHandler.GetProgress)
				targeting.POST("/:campaign_id/retry", targetingHandler.RetryJob)
			}

			protected.GET("/analytics/dashboard", analyticsHandler.GetDashboard)
			protected.GET("/events/stream", eventsHandler.StreamEvents)
		}
	}

	return r
}
