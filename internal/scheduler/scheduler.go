// Package scheduler cuts the monthly payout run once the previous
// settlement period has closed.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/payrail/internal/clock"
	payoutdomain "github.com/smallbiznis/payrail/internal/payout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log       *zap.Logger
	PayoutSvc payoutdomain.Service
	Clock     clock.Clock
	Config    Config `optional:"true"`
}

type Scheduler struct {
	log       *zap.Logger
	cfg       Config
	clock     clock.Clock
	payoutSvc payoutdomain.Service

	// lastRun is the start of the most recently cut period. Re-running a
	// period is safe, this only avoids needless churn within one process.
	lastRun time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.PayoutSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:       p.Config.withDefaults(),
		clock:     p.Clock,
		payoutSvc: p.PayoutSvc,
	}, nil
}

// RunForever ticks until ctx is cancelled, cutting the previous month's
// payout run once the calendar reaches the configured run day.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs at most one payout run and reports whether one was cut.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.clock.Now().UTC()
	if now.Day() < s.cfg.RunDay {
		return false
	}

	// The period that closed most recently is the previous calendar month.
	period := payoutdomain.PeriodContaining(now.AddDate(0, -1, -now.Day()+1))
	if !period.Start.After(s.lastRun) && !s.lastRun.IsZero() {
		return false
	}

	payouts, err := s.payoutSvc.CreatePayoutRun(ctx, period, s.cfg.ApproverID)
	if err != nil {
		s.log.Error("payout run failed",
			zap.Time("period_start", period.Start),
			zap.Error(err),
		)
		return false
	}

	s.lastRun = period.Start
	s.log.Info("payout run cut",
		zap.Time("period_start", period.Start),
		zap.Time("period_end", period.End),
		zap.Int("payouts", len(payouts)),
	)
	return true
}
