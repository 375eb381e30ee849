package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"boathouse/internal/domain"

	"github.com/rs/zerolog"
)

// PaymentRepository tracks member dues for the overdue-payment sweep.
// Payment capture itself happens outside this core.

type PaymentRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPaymentRepository(db *sql.DB, logger zerolog.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, member_id, amount_cents, description, due_date,
			status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.MemberID, p.AmountCents, p.Description, p.DueDate,
		p.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListPendingDueBefore returns payments the overdue sweep should
// escalate. Already-overdue rows are excluded by status, keeping the
// sweep idempotent.
func (r *PaymentRepository) ListPendingDueBefore(ctx context.Context, t time.Time) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, amount_cents, description, due_date, status, created_at, updated_at
		 FROM payments WHERE status = ? AND due_date < ? ORDER BY due_date`,
		domain.PaymentPending, t)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		err := rows.Scan(&p.ID, &p.MemberID, &p.AmountCents, &p.Description,
			&p.DueDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkOverdue flips a still-pending payment to OVERDUE by
// compare-and-swap.
func (r *PaymentRepository) MarkOverdue(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.PaymentOverdue, time.Now(), id, domain.PaymentPending)
	if err != nil {
		return fmt.Errorf("mark payment overdue: %w", err)
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
