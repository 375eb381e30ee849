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

const boatColumns = `id, name, class, status, usage_count,
	last_maintenance, next_maintenance, created_at, updated_at`

type BoatRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewBoatRepository(db *sql.DB, logger zerolog.Logger) *BoatRepository {
	return &BoatRepository{db: db, logger: logger}
}

func scanBoat(row interface{ Scan(...any) error }) (*domain.Boat, error) {
	var b domain.Boat
	err := row.Scan(
		&b.ID, &b.Name, &b.Class, &b.Status, &b.UsageCount,
		&b.LastMaintenance, &b.NextMaintenance, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BoatRepository) Create(ctx context.Context, b *domain.Boat) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO boats (id, name, class, status, usage_count,
			last_maintenance, next_maintenance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Class, b.Status, b.UsageCount,
		b.LastMaintenance, b.NextMaintenance, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert boat: %w", err)
	}
	return nil
}

func (r *BoatRepository) Get(ctx context.Context, id string) (*domain.Boat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+boatColumns+` FROM boats WHERE id = ?`, id)
	b, err := scanBoat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get boat: %w", err)
	}
	return b, nil
}

func (r *BoatRepository) ListByStatus(ctx context.Context, status domain.BoatStatus) ([]domain.Boat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+boatColumns+` FROM boats WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("list boats: %w", err)
	}
	defer rows.Close()

	var out []domain.Boat
	for rows.Next() {
		b, err := scanBoat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan boat: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// SetStatus is a compare-and-swap status transition: it only applies
// when the boat is currently in the expected state, so two concurrent
// transitions cannot both win.
func (r *BoatRepository) SetStatus(ctx context.Context, id string, from, to domain.BoatStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE boats SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("set boat status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		r.logger.Warn().
			Str("boat_id", id).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("boat status transition matched no row")
		return ErrInvalidTransition
	}
	return nil
}

// CompleteOuting returns the boat to the fleet after a checked-out
// outing: status back to AVAILABLE and the lifetime usage counter
// bumped, in one atomic update.
func (r *BoatRepository) CompleteOuting(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE boats SET status = ?, usage_count = usage_count + 1, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.BoatAvailable, time.Now(), id, domain.BoatInUse)
	if err != nil {
		return fmt.Errorf("complete outing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}
