package service

import (
	"context"
	"fmt"
	"time"

	"boathouse/internal/constants"

	"github.com/rs/zerolog"
)

// StepResult reports one reconciliation step for observability.
type StepResult struct {
	Name  string
	Count int
	Err   error
}

// ReconcileService runs the periodic reconciliation pass: overdue
// reservations, reminders, volunteer reputation, badges, point decay,
// leaderboard, and overdue payments. Steps run in order but are fault
// isolated: a failing step is logged and recorded, never allowed to
// abort its siblings.
type ReconcileService struct {
	reservations *ReservationService
	ledger       XPLedger
	payments     PaymentStore
	notifier     Notifier
	logger       zerolog.Logger
}

func NewReconcileService(
	reservations *ReservationService,
	ledger XPLedger,
	payments PaymentStore,
	notifier Notifier,
	logger zerolog.Logger,
) *ReconcileService {
	return &ReconcileService{
		reservations: reservations,
		ledger:       ledger,
		payments:     payments,
		notifier:     notifier,
		logger:       logger,
	}
}

// Run executes every reconciliation step against the current clock and
// returns per-step counts. It never returns an error itself; failures
// live in the step results.
func (s *ReconcileService) Run(ctx context.Context) []StepResult {
	now := time.Now()
	steps := []struct {
		name string
		fn   func(context.Context) (int, error)
	}{
		{"overdue_reservations", func(ctx context.Context) (int, error) {
			return s.reservations.SweepOverdue(ctx, now)
		}},
		{"upcoming_reminders", func(ctx context.Context) (int, error) {
			return s.reservations.SweepUpcomingReminders(ctx, now)
		}},
		{"volunteer_reputation", s.ledger.RecomputeVolunteerReputation},
		{"badge_unlocks", s.ledger.SweepBadges},
		{"point_decay", func(ctx context.Context) (int, error) {
			return s.ledger.DecayInactivePoints(ctx, now, constants.DecayThresholdMonths)
		}},
		{"leaderboard", s.ledger.RefreshLeaderboard},
		{"overdue_payments", func(ctx context.Context) (int, error) {
			return s.sweepOverduePayments(ctx, now)
		}},
	}

	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		count, err := step.fn(ctx)
		if err != nil {
			s.logger.Error().Err(err).Str("step", step.name).Msg("reconciliation step failed")
		} else {
			s.logger.Info().Str("step", step.name).Int("count", count).Msg("reconciliation step finished")
		}
		results = append(results, StepResult{Name: step.name, Count: count, Err: err})
	}
	return results
}

func (s *ReconcileService) sweepOverduePayments(ctx context.Context, now time.Time) (int, error) {
	due, err := s.payments.ListPendingDueBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("payment sweep: %w", err)
	}

	swept := 0
	for _, p := range due {
		if err := s.payments.MarkOverdue(ctx, p.ID); err != nil {
			// Lost a race with a concurrent payment; the status filter
			// already excludes it next run.
			s.logger.Warn().Err(err).Str("payment_id", p.ID).Msg("payment overdue transition skipped")
			continue
		}
		s.notifier.Notify(ctx, p.MemberID, "payment_overdue",
			"Payment overdue",
			fmt.Sprintf("%s (%.2f) was due on %s.", p.Description,
				float64(p.AmountCents)/100, p.DueDate.Format("2 Jan 2006")))
		swept++
	}
	return swept, nil
}
