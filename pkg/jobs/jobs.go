// Package jobs runs housekeeping on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type OrderExpirer interface {
	ExpireStale(ctx context.Context, age time.Duration) (int, error)
}

type ResetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	sched  *cron.Cron
	cfg    config.JobsConfig
	orders OrderExpirer
	users  ResetTokenPurger
	logger *zap.Logger
}

func New(cfg config.JobsConfig, orders OrderExpirer, users ResetTokenPurger, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		sched:  cron.New(cron.WithParser(cronParser)),
		cfg:    cfg,
		orders: orders,
		users:  users,
		logger: logger.Named("jobs"),
	}

	if _, err := s.sched.AddFunc(cfg.StaleOrderSchedule, s.ExpireStaleOrders); err != nil {
		return nil, fmt.Errorf("invalid stale order schedule %q: %w", cfg.StaleOrderSchedule, err)
	}
	if _, err := s.sched.AddFunc(cfg.ResetPurgeSchedule, s.PurgeResetTokens); err != nil {
		return nil, fmt.Errorf("invalid reset purge schedule %q: %w", cfg.ResetPurgeSchedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.sched.Entries())))
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.sched.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out with jobs still running")
	}
}

// ExpireStaleOrders cancels unpaid online orders older than the configured age.
func (s *Scheduler) ExpireStaleOrders() {
	defer s.recoverJob("expire-stale-orders")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.orders.ExpireStale(ctx, s.cfg.StaleOrderAge)
	if err != nil {
		s.logger.Error("expire-stale-orders failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Expired stale orders", zap.Int("count", n))
	}
}

func (s *Scheduler) PurgeResetTokens() {
	defer s.recoverJob("purge-reset-tokens")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.users.PurgeExpiredResetTokens(ctx, time.Now())
	if err != nil {
		s.logger.Error("purge-reset-tokens failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Purged expired reset tokens", zap.Int64("count", n))
	}
}

func (s *Scheduler) recoverJob(job string) {
	if err := recover(); err != nil {
		s.logger.Error("Job panicked", zap.String("job", job), zap.Any("panic", err))
	}
}
