package metadata

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler periodically refreshes a fixed set of tracked coins and prunes
// rows that have not been touched for a long time.
type Scheduler struct {
	service *Service
	coins   []string
	cron    *cron.Cron
	logger  *zap.Logger
}

func NewScheduler(service *Service, coins []string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		service: service,
		coins:   coins,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start registers the refresh job with the given cron spec and runs one
// refresh immediately so the cache is warm before the first page view.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refreshAll); err != nil {
		return err
	}

	go s.refreshAll()
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, coin := range s.coins {
		if _, err := s.service.Refresh(ctx, coin); err != nil {
			s.logger.Warn("scheduled refresh failed", zap.String("coin", coin), zap.Error(err))
		}
	}

	// Snapshots of coins no longer tracked age out after a day.
	if err := s.service.store.DeleteStaleCoins(ctx, time.Now().Add(-24*time.Hour)); err != nil {
		s.logger.Warn("failed to prune stale coin snapshots", zap.Error(err))
	}
}
