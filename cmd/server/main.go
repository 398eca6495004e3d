package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onegreenvn/xreacher-gateway/docs"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/database"
	"github.com/onegreenvn/xreacher-gateway/internal/database/repository"
	"github.com/onegreenvn/xreacher-gateway/internal/oauth"
	"github.com/onegreenvn/xreacher-gateway/internal/router"
	"github.com/onegreenvn/xreacher-gateway/internal/services"
	"github.com/onegreenvn/xreacher-gateway/internal/services/auth"
	"github.com/onegreenvn/xreacher-gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title xreacher Dashboard Gateway API
// @version 1.0
// @description Gateway between the xreacher dashboard and the outreach backend

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by the access token issued by the backend (e.g. "Bearer <token>")

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	docs.SwaggerInfo.BasePath = cfg.BasePath

	configureLogging(cfg.LogLevel)

	if utils.InitSentry() {
		defer utils.FlushSentry()
	}

	sseHub := services.NewSSEHub()

	// Handshake secrets live in Redis when configured so any gateway instance can finish a callback
	var store oauth.SecretStore = oauth.NewMemoryStore()
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedis(cfg.Redis.URL)
		if err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		store = oauth.NewRedisStore(redisClient)
	} else {
		logrus.Warn("REDIS_URL not set, OAuth handshakes are kept in memory")
	}

	targeterOpts := []campaign.TargeterOption{campaign.WithBroadcaster(sseHub)}

	deps := router.Dependencies{
		Config:  cfg,
		Backend: backend.NewClient(cfg.Backend),
		Tokens:  auth.NewTokenService(cfg.JWT),
		Flow:    oauth.NewFlow(cfg.OAuth, cfg.DashboardOrigin, store, oauth.NewHubChannel(sseHub)),
		SSEHub:  sseHub,
	}

	if cfg.DB.Enabled() {
		db, err := database.InitDB(cfg.DB)
		if err != nil {
			logrus.Fatalf("Failed to initialize database: %v", err)
		}
		jobRepo := repository.NewTargetingJobRepository(db)
		targeterOpts = append(targeterOpts, campaign.WithJobStore(jobRepo))
		deps.Jobs = jobRepo
	} else {
		logrus.Warn("Database not configured, targeting job history is disabled")
	}

	rabbitMQService, err := services.NewRabbitMQService(cfg.Queue)
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
	} else {
		defer rabbitMQService.Close()
		targeterOpts = append(targeterOpts, campaign.WithEventPublisher(rabbitMQService))
	}

	board := campaign.NewProgressBoard(cfg.Target.Retention)
	targeter := campaign.NewTargeter(cfg.Target, board, targeterOpts...)
	deps.Forms = campaign.NewRegistry(targeter)

	progressCleanup := services.NewProgressCleanupService(board, time.Minute)
	progressCleanup.Start()
	defer progressCleanup.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(deps)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Cancels in-flight backend calls and stops every progress ticker
	if err := targeter.Shutdown(ctx); err != nil {
		logrus.Warnf("Targeting jobs did not stop in time: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging(logLevel string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
