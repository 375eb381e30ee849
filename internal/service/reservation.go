package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boathouse/internal/constants"
	"boathouse/internal/domain"
	"boathouse/internal/eligibility"
	"boathouse/internal/gamification"
	"boathouse/internal/recommend"
	"boathouse/internal/repository"
	"boathouse/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EligibilityError carries a structured denial out of the booking path.
// Denial itself is an expected outcome; it only becomes an error when a
// caller tries to commit a reservation anyway.
type EligibilityError struct {
	Result eligibility.Result
}

func (e *EligibilityError) Error() string {
	return "not eligible: " + e.Result.Reason
}

// ReservationService owns the reservation state machine: booking,
// check-in/out, cancellation, and the time-driven sweeps.
type ReservationService struct {
	reservations ReservationStore
	boats        BoatStore
	members      MemberStore
	engine       *recommend.Engine
	ledger       XPLedger
	notifier     Notifier
	logger       zerolog.Logger
}

func NewReservationService(
	reservations ReservationStore,
	boats BoatStore,
	members MemberStore,
	engine *recommend.Engine,
	ledger XPLedger,
	notifier Notifier,
	logger zerolog.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		boats:        boats,
		members:      members,
		engine:       engine,
		ledger:       ledger,
		notifier:     notifier,
		logger:       logger,
	}
}

// Book validates eligibility and slot availability, then commits the
// reservation. The slot check runs twice: once here against the
// calendar, and again inside the store transaction, because a
// concurrent booking may have claimed the window between suggestion and
// commit.
func (s *ReservationService) Book(ctx context.Context, memberID, boatID string, start time.Time, durationMinutes int) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", slots.ErrValidation, durationMinutes)
	}
	if start.Minute()%constants.SlotIntervalMinutes != 0 || start.Second() != 0 {
		return nil, fmt.Errorf("%w: start time must align to %d-minute slots", slots.ErrValidation, constants.SlotIntervalMinutes)
	}

	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	boat, err := s.boats.Get(ctx, boatID)
	if err != nil {
		return nil, fmt.Errorf("load boat: %w", err)
	}

	if res := s.engine.CanReserve(member, boat.Class); !res.Allowed {
		s.logger.Info().
			Str("member_id", memberID).
			Str("boat_id", boatID).
			Str("check", string(res.Check)).
			Msg("booking denied by eligibility gate")
		return nil, &EligibilityError{Result: res}
	}

	free, err := s.AvailableSlots(ctx, boatID, start, durationMinutes)
	if err != nil {
		return nil, err
	}
	requested := start.Format("15:04")
	if !containsSlot(free, requested) {
		return nil, repository.ErrCapacityConflict
	}

	r := &domain.Reservation{
		ID:        uuid.New().String(),
		MemberID:  memberID,
		BoatID:    boatID,
		StartTime: start,
		EndTime:   start.Add(time.Duration(durationMinutes) * time.Minute),
		Status:    domain.ReservationConfirmed,
	}

	if err := s.reservations.Book(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("reservation_id", r.ID).
		Str("member_id", memberID).
		Str("boat_id", boatID).
		Time("start", r.StartTime).
		Msg("reservation confirmed")
	s.notifier.Notify(ctx, memberID, "booking",
		"Reservation confirmed",
		fmt.Sprintf("%s is yours from %s to %s.", boat.Name,
			r.StartTime.Format("Mon 15:04"), r.EndTime.Format("15:04")))
	return r, nil
}

// AvailableSlots returns the start times on the given day at which the
// boat can host a booking of the requested duration.
func (s *ReservationService) AvailableSlots(ctx context.Context, boatID string, day time.Time, durationMinutes int) ([]string, error) {
	all, err := slots.Generate(constants.DayStartHour, constants.DayEndHour, constants.SlotIntervalMinutes)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	live, err := s.reservations.ListForBoatBetween(ctx, boatID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	occupied := occupiedSlots(live, dayStart, dayEnd, constants.SlotIntervalMinutes)
	return slots.Available(all, occupied, durationMinutes, constants.SlotIntervalMinutes)
}

// occupiedSlots expands live reservations into the "HH:MM" slots they
// cover within the day. A reservation spilling over midnight only
// blocks the portion inside the window.
func occupiedSlots(reservations []domain.Reservation, dayStart, dayEnd time.Time, intervalMinutes int) []string {
	var out []string
	step := time.Duration(intervalMinutes) * time.Minute
	for _, r := range reservations {
		if !r.Overlaps(dayStart, dayEnd) {
			continue
		}
		from, to := r.StartTime, r.EndTime
		if from.Before(dayStart) {
			from = dayStart
		}
		if dayEnd.Before(to) {
			to = dayEnd
		}
		for t := from; t.Before(to); t = t.Add(step) {
			out = append(out, t.Format("15:04"))
		}
	}
	return out
}

func containsSlot(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// CheckIn advances CONFIRMED -> CHECKED_IN and marks the boat on the
// water.
func (s *ReservationService) CheckIn(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	r, err := s.reservations.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reservations.UpdateStatus(ctx, id, domain.ReservationConfirmed, domain.ReservationCheckedIn); err != nil {
		return err
	}
	if err := s.boats.SetStatus(ctx, r.BoatID, domain.BoatReserved, domain.BoatInUse); err != nil {
		return err
	}
	s.logger.Info().Str("reservation_id", id).Str("boat_id", r.BoatID).Msg("checked in")
	return nil
}

// CheckOut completes the outing: reservation to COMPLETED, boat back in
// the fleet, and the member's history and XP ledger credited.
func (s *ReservationService) CheckOut(ctx context.Context, id string) (gamification.LevelUp, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	r, err := s.reservations.Get(ctx, id)
	if err != nil {
		return gamification.LevelUp{}, err
	}
	if err := s.reservations.UpdateStatus(ctx, id, domain.ReservationCheckedIn, domain.ReservationCompleted); err != nil {
		return gamification.LevelUp{}, err
	}
	if err := s.boats.CompleteOuting(ctx, r.BoatID); err != nil {
		return gamification.LevelUp{}, err
	}
	if err := s.members.RecordOuting(ctx, r.MemberID, r.BoatID); err != nil {
		return gamification.LevelUp{}, err
	}

	up, err := s.ledger.CreditXP(ctx, r.MemberID, constants.OutingXP)
	if err != nil {
		return gamification.LevelUp{}, err
	}
	if up.LeveledUp {
		s.notifier.Notify(ctx, r.MemberID, "level_up",
			fmt.Sprintf("Level %d reached", up.NewLevel),
			fmt.Sprintf("Your outing took you from level %d to %d.", up.OldLevel, up.NewLevel))
	}
	if _, err := s.ledger.UnlockBadges(ctx, r.MemberID); err != nil {
		// Badge evaluation is retried by the nightly sweep; the outing
		// itself has already committed.
		s.logger.Warn().Err(err).Str("member_id", r.MemberID).Msg("badge unlock after checkout failed")
	}

	s.logger.Info().Str("reservation_id", id).Str("member_id", r.MemberID).Msg("checked out")
	return up, nil
}

// Cancel releases a PENDING or CONFIRMED reservation.
func (s *ReservationService) Cancel(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	r, err := s.reservations.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.reservations.UpdateStatus(ctx, id, r.Status, domain.ReservationCancelled); err != nil {
		return err
	}
	if err := s.boats.SetStatus(ctx, r.BoatID, domain.BoatReserved, domain.BoatAvailable); err != nil &&
		!errors.Is(err, repository.ErrInvalidTransition) {
		return err
	}
	s.logger.Info().Str("reservation_id", id).Msg("reservation cancelled")
	return nil
}

// SweepOverdue escalates every CHECKED_IN reservation whose end time
// has passed. The candidate query and the per-row compare-and-swap both
// filter by status, so re-running against already-OVERDUE rows is a
// no-op and a row a concurrent check-out just completed is skipped.
func (s *ReservationService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	lapsed, err := s.reservations.ListCheckedInEndedBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("overdue sweep: %w", err)
	}

	swept := 0
	for _, r := range lapsed {
		err := s.reservations.UpdateStatus(ctx, r.ID, domain.ReservationCheckedIn, domain.ReservationOverdue)
		if errors.Is(err, repository.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return swept, fmt.Errorf("overdue sweep: %w", err)
		}
		s.logger.Warn().
			Str("reservation_id", r.ID).
			Str("member_id", r.MemberID).
			Time("end_time", r.EndTime).
			Msg("reservation overdue")
		s.notifier.Notify(ctx, r.MemberID, "overdue",
			"Boat not returned",
			"Your reservation ended at "+r.EndTime.Format("15:04")+" and the boat has not been checked back in.")
		swept++
	}
	return swept, nil
}

// SweepUpcomingReminders notifies members of CONFIRMED reservations
// starting within the next calendar day. Reminders carry a dedupe key
// of reservation id plus today's date, so re-running the sweep within
// the same day sends nothing new.
func (s *ReservationService) SweepUpcomingReminders(ctx context.Context, now time.Time) (int, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	upcoming, err := s.reservations.ListConfirmedStartingBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return 0, fmt.Errorf("reminder sweep: %w", err)
	}

	sent := 0
	for _, r := range upcoming {
		key := fmt.Sprintf("reminder:%s:%s", r.ID, now.Format("2006-01-02"))
		if s.notifier.NotifyOnce(ctx, r.MemberID, "reminder",
			"Upcoming reservation",
			"You have a boat booked tomorrow at "+r.StartTime.Format("15:04")+".",
			key) {
			sent++
		}
	}
	return sent, nil
}
