package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"boathouse/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// NotificationRepository persists in-app notifications. This core
// treats delivery as fire-and-forget: insert failures are logged and
// swallowed so a broken notification path never fails the operation
// that triggered it.
type NotificationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewNotificationRepository(db *sql.DB, logger zerolog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

func (r *NotificationRepository) Notify(ctx context.Context, memberID, ntype, title, message string) {
	id, err := gonanoid.New()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to generate notification id")
		return
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, member_id, type, title, message, dedupe_key, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		id, memberID, ntype, title, message, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("member_id", memberID).
			Str("type", ntype).
			Msg("failed to persist notification")
	}
}

// NotifyOnce is the dedupe-keyed variant used by the reminder sweep.
// The unique index on dedupe_key makes re-sends within the same key a
// no-op; the return value reports whether this call actually inserted.
func (r *NotificationRepository) NotifyOnce(ctx context.Context, memberID, ntype, title, message, dedupeKey string) bool {
	id, err := gonanoid.New()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to generate notification id")
		return false
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, member_id, type, title, message, dedupe_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (dedupe_key) WHERE dedupe_key IS NOT NULL DO NOTHING`,
		id, memberID, ntype, title, message, dedupeKey, time.Now(),
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("member_id", memberID).
			Str("dedupe_key", dedupeKey).
			Msg("failed to persist notification")
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		r.logger.Error().Err(err).Msg("rows affected")
		return false
	}
	return n > 0
}

// ListByMember returns the member's notifications, newest first.
func (r *NotificationRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, type, title, message, COALESCE(dedupe_key, ''), created_at
		 FROM notifications WHERE member_id = ? ORDER BY created_at DESC LIMIT ?`,
		memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.MemberID, &n.Type, &n.Title, &n.Message, &n.DedupeKey, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountForMember supports observability and tests.
func (r *NotificationRepository) CountForMember(ctx context.Context, memberID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE member_id = ?`, memberID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}
