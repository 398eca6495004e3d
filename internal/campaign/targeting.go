package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/metrics"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/sirupsen/logrus"
)

// ProgressEvent is the SSE event carrying targeting progress
const ProgressEvent = "targeting-progress"

var (
	// ErrJobRunning is returned when a campaign already has a targeting job in flight
	ErrJobRunning = errors.New("targeting job already running for campaign")

	// ErrMissingFile is returned when a CSV job has no file attached
	ErrMissingFile = errors.New("csv targeting requires a file")
)

// TargetingAPI is the backend surface used by secondary targeting jobs
type TargetingAPI interface {
	ScrapeFollowers(ctx context.Context, req *models.ScrapeFollowersRequest) (*models.ScrapeResult, error)
	ScrapeListMembers(ctx context.Context, req *models.ScrapeListMembersRequest) (*models.ScrapeResult, error)
	UploadCSV(ctx context.Context, campaignID int64, file *models.CSVFile) (*models.CSVUploadResult, error)
}

// Broadcaster pushes named events to every stream subscribed to an entity
type Broadcaster interface {
	Broadcast(entityType, entityID, event string, payload interface{}) int
}

// JobStore persists targeting job audit rows
type JobStore interface {
	Create(ctx context.Context, job *models.TargetingJob) error
	Finish(ctx context.Context, id uint, status models.TargetingStatus, targetsAdded int, errMsg string) error
}

// EventPublisher emits campaign lifecycle events to other services
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload map[string]interface{}) error
}

// JobSpec describes the secondary targeting call for one campaign
type JobSpec struct {
	UserID       string
	TargetType   models.TargetType
	Identifier   string
	VerifiedOnly bool
	MaxFollowers int
	File         *models.CSVFile
}

// SpecFromDraft builds the targeting job of a validated draft
func SpecFromDraft(userID string, draft models.CampaignDraft, file *models.CSVFile) JobSpec {
	return JobSpec{
		UserID:       userID,
		TargetType:   draft.TargetType,
		Identifier:   strings.TrimSpace(draft.TargetIdentifier),
		VerifiedOnly: draft.VerifiedOnly,
		MaxFollowers: draft.MaxFollowers,
		File:         file,
	}
}

// TargeterOption configures optional Targeter collaborators
type TargeterOption func(*Targeter)

// WithBroadcaster streams progress updates to the campaign owner
func WithBroadcaster(hub Broadcaster) TargeterOption {
	return func(t *Targeter) { t.hub = hub }
}

// WithJobStore records every job in a persistent store
func WithJobStore(store JobStore) TargeterOption {
	return func(t *Targeter) { t.jobs = store }
}

// WithEventPublisher emits targeting events to a message queue
func WithEventPublisher(events EventPublisher) TargeterOption {
	return func(t *Targeter) { t.events = events }
}

// Targeter runs secondary targeting jobs in the background.
// Jobs outlive the HTTP request that started them and are stopped only by Shutdown.
type Targeter struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	board    *ProgressBoard
	interval time.Duration
	step     int

	hub    Broadcaster
	jobs   JobStore
	events EventPublisher

	mu      sync.Mutex
	running map[int64]*ProgressTracker
}

// NewTargeter creates a Targeter publishing progress on board
func NewTargeter(cfg config.TargetingConfig, board *ProgressBoard, opts ...TargeterOption) *Targeter {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Targeter{
		ctx:      ctx,
		cancel:   cancel,
		board:    board,
		interval: cfg.Tick,
		step:     cfg.Step,
		running:  make(map[int64]*ProgressTracker),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Board returns the progress board jobs publish to
func (t *Targeter) Board() *ProgressBoard {
	return t.board
}

// Start launches exactly one targeting job for campaign and returns its initial progress.
// A failing job never deletes the campaign: it stays with zero targets until retried.
func (t *Targeter) Start(api TargetingAPI, campaign *models.Campaign, spec JobSpec) (models.ScrapingProgress, error) {
	if spec.TargetType == models.TargetCSVUpload && spec.File == nil {
		return models.ScrapingProgress{}, ErrMissingFile
	}
	if err := t.ctx.Err(); err != nil {
		return models.ScrapingProgress{}, fmt.Errorf("targeter stopped: %w", err)
	}

	t.mu.Lock()
	if _, busy := t.running[campaign.ID]; busy {
		t.mu.Unlock()
		return models.ScrapingProgress{}, ErrJobRunning
	}
	tracker := NewProgressTracker(campaign.ID, statusText(spec), t.interval, t.step, func(p models.ScrapingProgress) {
		t.publish(spec.UserID, p)
	})
	t.running[campaign.ID] = tracker
	t.mu.Unlock()

	job := &models.TargetingJob{
		CampaignID:       campaign.ID,
		UserID:           spec.UserID,
		TargetType:       spec.TargetType,
		TargetIdentifier: spec.Identifier,
		VerifiedOnly:     spec.VerifiedOnly,
		MaxFollowers:     spec.MaxFollowers,
		Status:           models.TargetingRunning,
		StartedAt:        time.Now(),
	}
	if spec.TargetType == models.TargetCSVUpload {
		job.TargetIdentifier = spec.File.Name
	}
	if t.jobs != nil {
		if err := t.jobs.Create(t.ctx, job); err != nil {
			logrus.WithField("campaign_id", campaign.ID).Warnf("Failed to record targeting job: %v", err)
		}
	}

	initial := tracker.Snapshot()
	t.publish(spec.UserID, initial)
	t.emit("targeting.started", campaign.ID, spec, nil)
	metrics.TargetingInFlight.Inc()

	t.wg.Add(2)
	go func() {
		defer t.wg.Done()
		tracker.Run(t.ctx)
	}()
	go func() {
		defer t.wg.Done()
		t.run(api, campaign.ID, spec, tracker, job)
	}()

	return initial, nil
}

func (t *Targeter) run(api TargetingAPI, campaignID int64, spec JobSpec, tracker *ProgressTracker, job *models.TargetingJob) {
	defer func() {
		tracker.Stop()
		metrics.TargetingInFlight.Dec()
		t.mu.Lock()
		delete(t.running, campaignID)
		t.mu.Unlock()
	}()

	log := logrus.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"user_id":     spec.UserID,
		"target_type": spec.TargetType,
	})

	count, err := t.call(api, campaignID, spec)
	status := models.TargetingCompleted
	errMsg := ""
	if err != nil {
		status = models.TargetingFailed
		errMsg = backend.Message(err, "Targeting failed, the campaign was created without targets")
		if errors.Is(err, backend.ErrUnavailable) {
			errMsg = "Unable to reach the server. Please check your connection."
		}
		log.Warnf("Targeting job failed: %v", err)
		tracker.Fail(errMsg)
	} else {
		log.Infof("Targeting job added %d targets", count)
		tracker.Complete(count)
	}

	metrics.TargetingJobs.WithLabelValues(string(spec.TargetType), string(status)).Inc()
	if t.jobs != nil && job.ID != 0 {
		// The request context is gone, finish the record even during shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := t.jobs.Finish(ctx, job.ID, status, count, errMsg); err != nil {
			log.Warnf("Failed to finish targeting job record: %v", err)
		}
		cancel()
	}
	t.emit("targeting."+string(status), campaignID, spec, map[string]interface{}{
		"targets_added": count,
		"error":         errMsg,
	})
}

func (t *Targeter) call(api TargetingAPI, campaignID int64, spec JobSpec) (int, error) {
	switch spec.TargetType {
	case models.TargetUserFollowers:
		maxFollowers := spec.MaxFollowers
		if maxFollowers <= 0 {
			maxFollowers = models.DefaultMaxFollowers
		}
		result, err := api.ScrapeFollowers(t.ctx, &models.ScrapeFollowersRequest{
			CampaignID:   campaignID,
			Username:     spec.Identifier,
			VerifiedOnly: spec.VerifiedOnly,
			MaxFollowers: maxFollowers,
		})
		if err != nil {
			return 0, err
		}
		return result.ValidTargets, nil
	case models.TargetListMembers:
		result, err := api.ScrapeListMembers(t.ctx, &models.ScrapeListMembersRequest{
			CampaignID: campaignID,
			ListID:     spec.Identifier,
		})
		if err != nil {
			return 0, err
		}
		return result.ValidTargets, nil
	case models.TargetCSVUpload:
		result, err := api.UploadCSV(t.ctx, campaignID, spec.File)
		if err != nil {
			return 0, err
		}
		return result.TargetsAdded, nil
	}
	return 0, fmt.Errorf("unsupported target type %q", spec.TargetType)
}

// Running reports whether campaignID has a job in flight
func (t *Targeter) Running(campaignID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.running[campaignID]
	return ok
}

// Wait blocks until every started job has returned
func (t *Targeter) Wait() {
	t.wg.Wait()
}

// Shutdown stops every progress ticker and waits for in-flight jobs to return
func (t *Targeter) Shutdown(ctx context.Context) error {
	t.cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Targeter) publish(userID string, progress models.ScrapingProgress) {
	t.board.Set(userID, progress)
	if t.hub != nil {
		t.hub.Broadcast("user", userID, ProgressEvent, progress)
	}
}

func (t *Targeter) emit(eventType string, campaignID int64, spec JobSpec, extra map[string]interface{}) {
	if t.events == nil {
		return
	}
	payload := map[string]interface{}{
		"campaign_id": campaignID,
		"user_id":     spec.UserID,
		"target_type": spec.TargetType,
	}
	for key, value := range extra {
		payload[key] = value
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.events.PublishEvent(ctx, eventType, payload); err != nil {
		logrus.WithField("campaign_id", campaignID).Warnf("Failed to publish %s event: %v", eventType, err)
	}
}

func statusText(spec JobSpec) string {
	switch spec.TargetType {
	case models.TargetUserFollowers:
		return "Scraping followers of @" + spec.Identifier
	case models.TargetListMembers:
		return "Scraping members of list " + spec.Identifier
	case models.TargetCSVUpload:
		return "Uploading targets from CSV"
	}
	return "Adding targets"
}
