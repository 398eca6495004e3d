package repository

import (
	"context"
	"time"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/utils"

	"gorm.io/gorm"
)

type TargetingJobRepository struct {
	db *gorm.DB
}

func NewTargetingJobRepository(db *gorm.DB) *TargetingJobRepository {
	return &TargetingJobRepository{db: db}
}

// Create inserts a new targeting job
func (r *TargetingJobRepository) Create(ctx context.Context, job *models.TargetingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Finish records the final status of a job
func (r *TargetingJobRepository) Finish(ctx context.Context, id uint, status models.TargetingStatus, targetsAdded int, errMsg string) error {
	return r.db.WithContext(ctx).Model(&models.TargetingJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"targets_added": targetsAdded,
		"error":         errMsg,
		"finished_at":   time.Now(),
	}).Error
}

// GetLatestByCampaign retrieves the most recent job of a user's campaign
func (r *TargetingJobRepository) GetLatestByCampaign(ctx context.Context, userID string, campaignID int64) (*models.TargetingJob, error) {
	var job models.TargetingJob
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND campaign_id = ?", userID, campaignID).
		Order("created_at DESC").
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByUserID retrieves a page of a user's jobs, optionally filtered by status
func (r *TargetingJobRepository) GetByUserID(ctx context.Context, userID string, status string, page, pageSize int) ([]models.TargetingJob, int64, error) {
	var jobs []models.TargetingJob
	var total int64

	query := r.db.WithContext(ctx).Model(&models.TargetingJob{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := utils.CalculateOffset(page, pageSize)
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&jobs).Error
	return jobs, total, err
}
