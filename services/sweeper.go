package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// SweepResult reports how many records a single sweep invocation transitioned.
type SweepResult struct {
	Expired   int64 `json:"expired"`
	Completed int64 `json:"completed"`
}

// Sweeper is the periodic driver for the two sweep operations. Both operations
// are idempotent and safe under overlapping invocations (in-process ticks
// racing an external trigger, or multiple replicas): all race-safety lives in
// the store's conditional updates, so the sweeper takes no locks.
type Sweeper struct {
	duels    DuelService
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(duels DuelService, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		duels:    duels,
		interval: interval,
		logger:   logger,
	}
}

// RunOnce performs one sweep pass. Expiry and completion act on disjoint
// status sets, so they run concurrently.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.duels.ExpirePendingDuels(gCtx)
		if err != nil {
			return fmt.Errorf("expire sweep: %w", err)
		}
		result.Expired = count
		return nil
	})
	g.Go(func() error {
		count, err := s.duels.CompleteEndedDuels(gCtx)
		if err != nil {
			return fmt.Errorf("complete sweep: %w", err)
		}
		result.Completed = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// Start schedules RunOnce on a fixed cadence and runs one pass immediately.
// The returned scheduler should be shut down by the caller on exit.
func (s *Sweeper) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			result, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error("sweep pass failed", slog.Any("error", err))
				return
			}
			if result.Expired > 0 || result.Completed > 0 {
				s.logger.Info("sweep pass finished",
					slog.Int64("expired", result.Expired),
					slog.Int64("completed", result.Completed),
				)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sweep job: %w", err)
	}

	sched.Start()
	s.logger.Info("duel sweep scheduler started", slog.Duration("interval", s.interval))
	return sched, nil
}
