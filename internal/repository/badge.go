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

type BadgeRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewBadgeRepository(db *sql.DB, logger zerolog.Logger) *BadgeRepository {
	return &BadgeRepository{db: db, logger: logger}
}

// Codes returns the set of badge codes the member already holds.
func (r *BadgeRepository) Codes(ctx context.Context, memberID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code FROM badges WHERE member_id = ?`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list badge codes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan badge code: %w", err)
		}
		out[code] = true
	}
	return out, rows.Err()
}

// Award inserts the badge if the member does not already hold it. The
// (member_id, code) uniqueness constraint makes the insert idempotent;
// the return value reports whether a row was actually written.
func (r *BadgeRepository) Award(ctx context.Context, b *domain.Badge) (bool, error) {
	if b.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return false, fmt.Errorf("generate badge id: %w", err)
		}
		b.ID = id
	}
	if b.AwardedAt.IsZero() {
		b.AwardedAt = time.Now()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO badges (id, member_id, code, name, points, awarded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (member_id, code) DO NOTHING`,
		b.ID, b.MemberID, b.Code, b.Name, b.Points, b.AwardedAt,
	)
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		r.logger.Info().
			Str("member_id", b.MemberID).
			Str("code", b.Code).
			Msg("badge awarded")
	}
	return n > 0, nil
}

// ListByMember returns the member's badges, newest first.
func (r *BadgeRepository) ListByMember(ctx context.Context, memberID string) ([]domain.Badge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, code, name, points, awarded_at
		 FROM badges WHERE member_id = ? ORDER BY awarded_at DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.MemberID, &b.Code, &b.Name, &b.Points, &b.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
