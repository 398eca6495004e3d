package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

// InitDB opens the Postgres connection holding targeting job records and migrates it
func InitDB(cfg config.DBConfig) (*gorm.DB, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing required database environment variables. Please check your .env file")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logrus.Info("Database connection established and migrations completed")
	return db, nil
}

// Migrate creates or updates the gateway tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.TargetingJob{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Jobs interrupted by a restart can never finish, mark them failed so they can be retried
	result := db.Model(&models.TargetingJob{}).
		Where("status = ?", models.TargetingRunning).
		Updates(map[string]interface{}{
			"status":      models.TargetingFailed,
			"error":       "Interrupted by gateway restart",
			"finished_at": time.Now(),
		})
	if result.Error != nil {
		logrus.Warnf("Failed to close interrupted targeting jobs: %v", result.Error)
	} else if result.RowsAffected > 0 {
		logrus.Infof("Marked %d interrupted targeting jobs as failed", result.RowsAffected)
	}
	return nil
}
