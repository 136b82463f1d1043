// Package scheduler runs the background jobs that keep bills current:
// the overdue sweep and the monthly generation batch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/config"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	"github.com/societyos/upkeep/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler dependencies missing")

const (
	lockOverdueSweep      = "scheduler:lock:overdue_sweep"
	lockMonthlyGeneration = "scheduler:lock:monthly_generation:%s"

	jobTimeout = 5 * time.Minute
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Policy     *config.BillingPolicyHolder
	Clock      clock.Clock
	BillingSvc billingdomain.Service
	OrgRepo    orgdomain.Repository
	Locker     *ratelimit.Locker `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	policy     *config.BillingPolicyHolder
	clock      clock.Clock
	billingSvc billingdomain.Service
	orgRepo    orgdomain.Repository
	locker     *ratelimit.Locker

	lastGenerated billingdomain.Period
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Policy == nil || p.Clock == nil || p.BillingSvc == nil || p.OrgRepo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		policy:     p.Policy,
		clock:      p.Clock,
		billingSvc: p.BillingSvc,
		orgRepo:    p.OrgRepo,
		locker:     p.Locker,
	}, nil
}

// RunOnce executes one scheduler pass: the overdue sweep, and the
// monthly generation when its window has arrived.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	var err error
	err = errors.Join(err, s.OverdueSweepJob(ctx))
	err = errors.Join(err, s.MonthlyGenerationJob(ctx))
	return err
}

// RunForever loops RunOnce at the configured sweep interval until the
// context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.sweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		// Pick up hot-reloaded policy changes between runs.
		if next := s.sweepInterval(); next != interval {
			interval = next
			ticker.Reset(interval)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// OverdueSweepJob marks pending bills whose due date plus grace has
// elapsed as OVERDUE, through the billing service's transition path.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	token, ok, err := s.locker.TryLock(ctx, lockOverdueSweep, jobTimeout)
	if err != nil {
		return fmt.Errorf("overdue_sweep: %w", err)
	}
	if !ok {
		return nil
	}
	defer s.locker.Release(ctx, lockOverdueSweep, token)

	now := s.clock.Now()
	flagged, err := s.billingSvc.MarkOverdue(ctx, now, s.policy.Get().PenaltyGraceDays)
	if err != nil {
		return fmt.Errorf("overdue_sweep: %w", err)
	}
	if flagged > 0 {
		s.log.Info("overdue sweep complete", zap.Int("flagged", flagged))
	}
	return nil
}

// MonthlyGenerationJob generates the current period's bills for every
// organization once the generation hour on the 1st has passed. Reruns
// within the same period are cheap no-ops because generation itself is
// idempotent.
func (s *Scheduler) MonthlyGenerationJob(ctx context.Context) error {
	now := s.clock.Now()
	period := billingdomain.PeriodOf(now)
	if s.lastGenerated == period {
		return nil
	}
	if now.Day() == 1 && now.Hour() < s.policy.Get().GenerationHour {
		return nil
	}

	lockKey := fmt.Sprintf(lockMonthlyGeneration, period)
	token, ok, err := s.locker.TryLock(ctx, lockKey, jobTimeout)
	if err != nil {
		return fmt.Errorf("monthly_generation: %w", err)
	}
	if !ok {
		return nil
	}
	defer s.locker.Release(ctx, lockKey, token)

	orgIDs, err := s.orgRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("monthly_generation: %w", err)
	}

	var jobErr error
	for _, orgID := range orgIDs {
		if ctx.Err() != nil {
			return errors.Join(jobErr, ctx.Err())
		}

		report, err := s.billingSvc.Generate(ctx, billingdomain.GenerateRequest{
			OrgID:  orgID,
			Period: period,
		})
		if err != nil {
			s.log.Warn("generation failed for organization",
				zap.String("org_id", orgID.String()),
				zap.Error(err),
			)
			jobErr = errors.Join(jobErr, err)
			continue
		}
		if report.Created > 0 || len(report.Failed) > 0 {
			s.log.Info("bills generated",
				zap.String("org_id", orgID.String()),
				zap.Int("created", report.Created),
				zap.Int("skipped", report.Skipped),
				zap.Int("failed", len(report.Failed)),
			)
		}
	}

	if jobErr == nil {
		s.lastGenerated = period
	}
	return jobErr
}

func (s *Scheduler) sweepInterval() time.Duration {
	minutes := s.policy.Get().OverdueSweepMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}
