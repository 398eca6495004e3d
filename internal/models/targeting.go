package models

import (
	"time"
)

// TargetingStatus is the state of a secondary targeting job
type TargetingStatus string

const (
	TargetingRunning   TargetingStatus = "running"
	TargetingCompleted TargetingStatus = "completed"
	TargetingFailed    TargetingStatus = "failed"
)

// TargetingJob is the audit record of one secondary targeting job
type TargetingJob struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	CampaignID       int64           `json:"campaign_id" gorm:"not null;index"`
	UserID           string          `json:"user_id" gorm:"type:varchar(64);not null;index"`
	TargetType       TargetType      `json:"target_type" gorm:"type:varchar(32);not null"`
	TargetIdentifier string          `json:"target_identifier" gorm:"type:varchar(255)"`
	VerifiedOnly     bool            `json:"verified_only" gorm:"default:false"`
	MaxFollowers     int             `json:"max_followers" gorm:"default:0"`
	Status           TargetingStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	TargetsAdded     int             `json:"targets_added" gorm:"default:0"`
	Error            string          `json:"error,omitempty" gorm:"type:text"`
	StartedAt        time.Time       `json:"started_at"`
	FinishedAt       *time.Time      `json:"finished_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the TargetingJob model
func (TargetingJob) TableName() string {
	return "targeting_jobs"
}

// ScrapingProgress is the approximate progress of an in-flight targeting job.
// Progress is simulated until the backend answers.
type ScrapingProgress struct {
	CampaignID int64           `json:"campaign_id"`
	Progress   int             `json:"progress"`
	StatusText string          `json:"status_text"`
	Status     TargetingStatus `json:"status"`
	Count      int             `json:"count"`
	Error      string          `json:"error,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ScrapeFollowersRequest asks the backend to scrape a user's followers
type ScrapeFollowersRequest struct {
	CampaignID   int64  `json:"campaign_id"`
	Username     string `json:"username"`
	VerifiedOnly bool   `json:"verified_only"`
	MaxFollowers int    `json:"max_followers,omitempty"`
}

// ScrapeListMembersRequest asks the backend to scrape a list's members
type ScrapeListMembersRequest struct {
	CampaignID int64  `json:"campaign_id"`
	ListID     string `json:"list_id"`
}

// ScrapeResult is the backend's answer to a scrape request
type ScrapeResult struct {
	TotalScraped int `json:"total_scraped"`
	ValidTargets int `json:"valid_targets"`
	FilteredOut  int `json:"filtered_out"`
}

// CSVUploadResult is the backend's answer to a CSV ingest
type CSVUploadResult struct {
	TargetsAdded int      `json:"targets_added"`
	TotalRows    int      `json:"total_rows"`
	Errors       []string `json:"errors,omitempty"`
}
