package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

// SimulatedProgressCap is the highest simulated value before the backend answers
const SimulatedProgressCap = 90

// ProgressTracker simulates the progress of one targeting job on a fixed interval.
// The percentage is approximate: it only reflects elapsed time until the real answer.
type ProgressTracker struct {
	mu       sync.Mutex
	progress models.ScrapingProgress
	step     int
	interval time.Duration
	onUpdate func(models.ScrapingProgress)

	stopOnce sync.Once
	done     chan struct{}
}

// NewProgressTracker creates a tracker at 0%. onUpdate may be nil and must not call back into the tracker.
func NewProgressTracker(campaignID int64, statusText string, interval time.Duration, step int, onUpdate func(models.ScrapingProgress)) *ProgressTracker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if step <= 0 {
		step = 10
	}
	return &ProgressTracker{
		progress: models.ScrapingProgress{
			CampaignID: campaignID,
			StatusText: statusText,
			Status:     models.TargetingRunning,
			UpdatedAt:  time.Now(),
		},
		step:     step,
		interval: interval,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}
}

// Run advances progress on every tick until the tracker is stopped or ctx ends.
// The ticker is released on every exit path.
func (p *ProgressTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Advance()
		case <-p.done:
			return
		case <-ctx.Done():
			p.Stop()
			return
		}
	}
}

// Advance moves simulated progress one step, never past SimulatedProgressCap
func (p *ProgressTracker) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.progress.Status != models.TargetingRunning || p.progress.Progress >= SimulatedProgressCap {
		return
	}
	p.progress.Progress += p.step
	if p.progress.Progress > SimulatedProgressCap {
		p.progress.Progress = SimulatedProgressCap
	}
	p.progress.UpdatedAt = time.Now()
	p.notifyLocked()
}

// Complete stops the simulation and snaps to 100% with the real count
func (p *ProgressTracker) Complete(count int) {
	p.finish(func(progress *models.ScrapingProgress) {
		progress.Progress = 100
		progress.Status = models.TargetingCompleted
		progress.Count = count
		progress.StatusText = fmt.Sprintf("Added %d targets", count)
	})
}

// Fail stops the simulation and records the error. Progress is left where it was.
func (p *ProgressTracker) Fail(message string) {
	p.finish(func(progress *models.ScrapingProgress) {
		progress.Status = models.TargetingFailed
		progress.Error = message
		progress.StatusText = "Targeting failed"
	})
}

// Stop ends the simulation without a result. Safe to call more than once.
func (p *ProgressTracker) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// Snapshot returns the current progress
func (p *ProgressTracker) Snapshot() models.ScrapingProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *ProgressTracker) finish(apply func(*models.ScrapingProgress)) {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.progress.Status != models.TargetingRunning {
		return
	}
	apply(&p.progress)
	p.progress.UpdatedAt = time.Now()
	p.notifyLocked()
}

// notifyLocked runs under p.mu so a late tick can never overwrite a final state downstream
func (p *ProgressTracker) notifyLocked() {
	if p.onUpdate != nil {
		p.onUpdate(p.progress)
	}
}

type boardEntry struct {
	userID   string
	progress models.ScrapingProgress
}

// ProgressBoard keeps the latest progress of each campaign's targeting job in memory.
// Finished entries are dropped after the retention period.
type ProgressBoard struct {
	mu        sync.RWMutex
	entries   map[int64]boardEntry
	retention time.Duration
	now       func() time.Time
}

// NewProgressBoard creates an empty board
func NewProgressBoard(retention time.Duration) *ProgressBoard {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	return &ProgressBoard{
		entries:   make(map[int64]boardEntry),
		retention: retention,
		now:       time.Now,
	}
}

// Set records progress for a campaign owned by userID
func (b *ProgressBoard) Set(userID string, progress models.ScrapingProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[progress.CampaignID] = boardEntry{userID: userID, progress: progress}
}

// Get returns the progress of a campaign if it belongs to userID
func (b *ProgressBoard) Get(userID string, campaignID int64) (models.ScrapingProgress, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[campaignID]
	if !ok || entry.userID != userID {
		return models.ScrapingProgress{}, false
	}
	return entry.progress, true
}

// List returns every tracked job of userID
func (b *ProgressBoard) List(userID string) []models.ScrapingProgress {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]models.ScrapingProgress, 0)
	for _, entry := range b.entries {
		if entry.userID == userID {
			result = append(result, entry.progress)
		}
	}
	return result
}

// Prune drops finished entries older than the retention period and returns how many were removed
func (b *ProgressBoard) Prune() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-b.retention)
	removed := 0
	for id, entry := range b.entries {
		if entry.progress.Status != models.TargetingRunning && entry.progress.UpdatedAt.Before(cutoff) {
			delete(b.entries, id)
			removed++
		}
	}
	return removed
}
