package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Pruner drops stale entries and reports how many were removed
type Pruner interface {
	Prune() int
}

// ProgressCleanupService periodically drops finished targeting progress
type ProgressCleanupService struct {
	board    Pruner
	interval time.Duration
	stopChan chan bool
}

func NewProgressCleanupService(board Pruner, interval time.Duration) *ProgressCleanupService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProgressCleanupService{
		board:    board,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start starts the cleanup loop
func (s *ProgressCleanupService) Start() {
	go s.run()
	logrus.Info("Progress cleanup service started")
}

// Stop stops the cleanup loop
func (s *ProgressCleanupService) Stop() {
	s.stopChan <- true
	logrus.Info("Progress cleanup service stopped")
}

func (s *ProgressCleanupService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.board.Prune(); removed > 0 {
				logrus.Debugf("Pruned %d finished targeting progress entries", removed)
			}
		case <-s.stopChan:
			return
		}
	}
}
