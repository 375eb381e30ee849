package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"boathouse/internal/domain"

	"github.com/rs/zerolog"
)

const memberColumns = `id, name, level, points, outdoor_workouts, tank_workouts,
	preferred_classes, last_boat_used, volunteer_tasks, volunteer_hours,
	reputation, rank, joined_at, last_login_at, created_at, updated_at`

type MemberRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMemberRepository(db *sql.DB, logger zerolog.Logger) *MemberRepository {
	return &MemberRepository{db: db, logger: logger}
}

func scanMember(row interface{ Scan(...any) error }) (*domain.Member, error) {
	var m domain.Member
	var preferred string
	err := row.Scan(
		&m.ID, &m.Name, &m.Level, &m.Points, &m.OutdoorWorkouts, &m.TankWorkouts,
		&preferred, &m.LastBoatUsed, &m.VolunteerTasks, &m.VolunteerHours,
		&m.Reputation, &m.Rank, &m.JoinedAt, &m.LastLoginAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.PreferredClasses = splitClasses(preferred)
	return &m, nil
}

func splitClasses(raw string) []domain.BoatClass {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.BoatClass, 0, len(parts))
	for _, p := range parts {
		c := domain.BoatClass(p)
		if !c.Valid() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func joinClasses(classes []domain.BoatClass) string {
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func (r *MemberRepository) Create(ctx context.Context, m *domain.Member) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, name, level, points, outdoor_workouts, tank_workouts,
			preferred_classes, last_boat_used, volunteer_tasks, volunteer_hours,
			reputation, rank, joined_at, last_login_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Level, m.Points, m.OutdoorWorkouts, m.TankWorkouts,
		joinClasses(m.PreferredClasses), m.LastBoatUsed, m.VolunteerTasks, m.VolunteerHours,
		m.Reputation, m.Rank, m.JoinedAt, m.LastLoginAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *MemberRepository) Get(ctx context.Context, id string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (r *MemberRepository) ListAll(ctx context.Context) ([]domain.Member, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM members ORDER BY id`)
}

func (r *MemberRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Member, error) {
	return r.list(ctx,
		`SELECT `+memberColumns+` FROM members
		 WHERE last_login_at < ? AND points > 0 ORDER BY id`, cutoff)
}

func (r *MemberRepository) ListTopByPoints(ctx context.Context, n int) ([]domain.Member, error) {
	return r.list(ctx,
		`SELECT `+memberColumns+` FROM members
		 ORDER BY points DESC, id ASC LIMIT ?`, n)
}

func (r *MemberRepository) list(ctx context.Context, query string, args ...any) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *MemberRepository) UpdateGamification(ctx context.Context, id string, points, level int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET points = ?, level = ?, updated_at = ? WHERE id = ?`,
		points, level, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update member gamification: %w", err)
	}
	return requireRow(res)
}

func (r *MemberRepository) SetRank(ctx context.Context, id string, rank int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET rank = ?, updated_at = ? WHERE id = ?`,
		rank, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set member rank: %w", err)
	}
	return requireRow(res)
}

func (r *MemberRepository) SetReputation(ctx context.Context, id, reputation string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET reputation = ?, updated_at = ? WHERE id = ?`,
		reputation, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set member reputation: %w", err)
	}
	return requireRow(res)
}

// RecordOuting updates the member's usage history after a completed
// outing: one more outdoor workout, and the boat becomes their most
// recently used.
func (r *MemberRepository) RecordOuting(ctx context.Context, id, boatID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET outdoor_workouts = outdoor_workouts + 1,
			last_boat_used = ?, updated_at = ? WHERE id = ?`,
		boatID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("record outing: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
