package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"boathouse/internal/domain"

	"github.com/rs/zerolog"
)

const reservationColumns = `id, member_id, boat_id, start_time, end_time,
	status, created_at, updated_at`

type ReservationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewReservationRepository(db *sql.DB, logger zerolog.Logger) *ReservationRepository {
	return &ReservationRepository{db: db, logger: logger}
}

func scanReservation(row interface{ Scan(...any) error }) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID, &res.MemberID, &res.BoatID, &res.StartTime, &res.EndTime,
		&res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Book inserts the reservation inside a transaction that re-validates
// the window against live CONFIRMED/CHECKED_IN reservations on the same
// boat and claims the boat. Two concurrent bookings for an overlapping
// window cannot both commit: the loser sees ErrCapacityConflict and
// must rerun the suggestion flow.
func (r *ReservationRepository) Book(ctx context.Context, res *domain.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	var overlapping int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE boat_id = ? AND status IN (?, ?)
		   AND start_time < ? AND end_time > ?`,
		res.BoatID, domain.ReservationConfirmed, domain.ReservationCheckedIn,
		res.EndTime, res.StartTime,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("check slot availability: %w", err)
	}
	if overlapping > 0 {
		r.logger.Info().
			Str("boat_id", res.BoatID).
			Time("start", res.StartTime).
			Msg("booking lost the slot to a concurrent reservation")
		return ErrCapacityConflict
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations (id, member_id, boat_id, start_time, end_time,
			status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.MemberID, res.BoatID, res.StartTime, res.EndTime,
		res.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	// Marking the boat RESERVED is part of the same atomic commit. A
	// boat already RESERVED for another window stays bookable: capacity
	// is governed by the overlap count above, not the status flag. Only
	// a boat pulled off the water (IN_USE, MAINTENANCE) refuses.
	claim, err := tx.ExecContext(ctx,
		`UPDATE boats SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		domain.BoatReserved, now, res.BoatID, domain.BoatAvailable, domain.BoatReserved)
	if err != nil {
		return fmt.Errorf("claim boat: %w", err)
	}
	n, err := claim.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrCapacityConflict
	}

	return tx.Commit()
}

func (r *ReservationRepository) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// UpdateStatus advances a reservation by compare-and-swap: the update
// only matches a row still in the expected state, so sweeps and live
// traffic can never regress a transition or apply it twice.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: reservation %s not in state %s", ErrInvalidTransition, id, from)
	}
	return nil
}

// ListCheckedInEndedBefore finds reservations the overdue sweep should
// escalate. Filtering strictly by status and time keeps the sweep
// idempotent: rows it already moved to OVERDUE no longer match.
func (r *ReservationRepository) ListCheckedInEndedBefore(ctx context.Context, t time.Time) ([]domain.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = ? AND end_time < ? ORDER BY end_time`,
		domain.ReservationCheckedIn, t)
}

func (r *ReservationRepository) ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = ? AND start_time >= ? AND start_time < ? ORDER BY start_time`,
		domain.ReservationConfirmed, from, to)
}

// ListForBoatBetween returns live reservations overlapping [from, to)
// on the boat, for deriving occupied calendar slots.
func (r *ReservationRepository) ListForBoatBetween(ctx context.Context, boatID string, from, to time.Time) ([]domain.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE boat_id = ? AND status IN (?, ?)
		   AND start_time < ? AND end_time > ? ORDER BY start_time`,
		boatID, domain.ReservationConfirmed, domain.ReservationCheckedIn, to, from)
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
