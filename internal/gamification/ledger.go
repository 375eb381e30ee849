// Package gamification owns the experience-point ledger: level math,
// XP credits, badge unlocks, inactivity decay, volunteer reputation,
// and the leaderboard cache.
package gamification

import (
	"context"
	"fmt"
	"time"

	"boathouse/internal/constants"
	"boathouse/internal/domain"

	"github.com/rs/zerolog"
)

// MemberStore is the slice of member persistence the ledger needs.
type MemberStore interface {
	Get(ctx context.Context, id string) (*domain.Member, error)
	UpdateGamification(ctx context.Context, id string, points, level int) error
	ListAll(ctx context.Context) ([]domain.Member, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Member, error)
	ListTopByPoints(ctx context.Context, n int) ([]domain.Member, error)
	SetRank(ctx context.Context, id string, rank int) error
	SetReputation(ctx context.Context, id, reputation string) error
}

// BadgeStore persists awarded badges. Award must be idempotent per
// (member, code) and report whether a row was actually inserted.
type BadgeStore interface {
	Codes(ctx context.Context, memberID string) (map[string]bool, error)
	Award(ctx context.Context, b *domain.Badge) (bool, error)
}

// Notifier delivers a message to a member. Fire and forget; delivery
// errors are the notifier's problem, not the ledger's.
type Notifier interface {
	Notify(ctx context.Context, memberID, ntype, title, message string)
}

// BadgeRule is one unlockable achievement: a predicate over the
// member's counters plus the point reward for unlocking it.
type BadgeRule struct {
	Code      string
	Name      string
	Points    int
	Satisfied func(m *domain.Member, now time.Time) bool
}

// Config carries the club's gamification policy, injected at
// construction so tests can swap in alternate tables.
type Config struct {
	LevelRewards map[int][]string
	Badges       []BadgeRule
	DecayPercent int
	TopN         int
}

func DefaultConfig() Config {
	return Config{
		LevelRewards: map[int][]string{
			2:  {"free guest pass"},
			3:  {"reserved locker"},
			5:  {"club kit discount"},
			7:  {"priority regatta entry"},
			10: {"annual dinner invitation"},
		},
		Badges: []BadgeRule{
			{
				Code: "first_workout", Name: "First Strokes", Points: 25,
				Satisfied: func(m *domain.Member, _ time.Time) bool {
					return m.OutdoorWorkouts+m.TankWorkouts >= 1
				},
			},
			{
				Code: "first_volunteer", Name: "Helping Hand", Points: 25,
				Satisfied: func(m *domain.Member, _ time.Time) bool {
					return m.VolunteerTasks >= 1
				},
			},
			{
				Code: "volunteer_10", Name: "Club Stalwart", Points: 100,
				Satisfied: func(m *domain.Member, _ time.Time) bool {
					return m.VolunteerTasks >= 10
				},
			},
			{
				Code: "one_year", Name: "Year on the Water", Points: 150,
				Satisfied: func(m *domain.Member, now time.Time) bool {
					return now.Sub(m.JoinedAt) >= 365*24*time.Hour
				},
			},
			{
				Code: "level_5", Name: "Seasoned Oar", Points: 200,
				Satisfied: func(m *domain.Member, _ time.Time) bool {
					return m.Level >= 5
				},
			},
		},
		DecayPercent: 5,
		TopN:         constants.LeaderboardSize,
	}
}

// LevelUp describes the outcome of an XP credit.
type LevelUp struct {
	LeveledUp       bool
	OldLevel        int
	NewLevel        int
	RewardsUnlocked []string
}

type Ledger struct {
	members  MemberStore
	badges   BadgeStore
	notifier Notifier
	cfg      Config
	logger   zerolog.Logger
}

func NewLedger(members MemberStore, badges BadgeStore, notifier Notifier, cfg Config, logger zerolog.Logger) *Ledger {
	return &Ledger{members: members, badges: badges, notifier: notifier, cfg: cfg, logger: logger}
}

// CreditXP adds points to the member and recomputes their level. A
// single large credit can cross several levels; the returned rewards
// are the union over every level crossed.
func (l *Ledger) CreditXP(ctx context.Context, memberID string, amount int) (LevelUp, error) {
	if amount < 0 {
		return LevelUp{}, fmt.Errorf("xp amount must be non-negative, got %d", amount)
	}

	m, err := l.members.Get(ctx, memberID)
	if err != nil {
		return LevelUp{}, fmt.Errorf("credit xp: %w", err)
	}

	oldLevel := Level(m.Points)
	newPoints := m.Points + amount
	newLevel := Level(newPoints)

	if err := l.members.UpdateGamification(ctx, memberID, newPoints, newLevel); err != nil {
		return LevelUp{}, fmt.Errorf("credit xp: %w", err)
	}

	up := LevelUp{OldLevel: oldLevel, NewLevel: newLevel}
	if newLevel > oldLevel {
		up.LeveledUp = true
		for lvl := oldLevel + 1; lvl <= newLevel; lvl++ {
			up.RewardsUnlocked = append(up.RewardsUnlocked, l.cfg.LevelRewards[lvl]...)
		}
		l.logger.Info().
			Str("member_id", memberID).
			Int("old_level", oldLevel).
			Int("new_level", newLevel).
			Int("amount", amount).
			Msg("member leveled up")
	}
	return up, nil
}

// UnlockBadges evaluates every badge rule against the member's current
// counters, persisting and rewarding each newly satisfied one. Safe to
// call repeatedly: already-held badges are skipped, and the store's
// uniqueness guarantee backstops concurrent callers.
func (l *Ledger) UnlockBadges(ctx context.Context, memberID string) (int, error) {
	m, err := l.members.Get(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("unlock badges: %w", err)
	}

	held, err := l.badges.Codes(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("unlock badges: %w", err)
	}

	now := time.Now()
	unlocked := 0
	for _, rule := range l.cfg.Badges {
		if held[rule.Code] || !rule.Satisfied(m, now) {
			continue
		}

		inserted, err := l.badges.Award(ctx, &domain.Badge{
			MemberID:  memberID,
			Code:      rule.Code,
			Name:      rule.Name,
			Points:    rule.Points,
			AwardedAt: now,
		})
		if err != nil {
			return unlocked, fmt.Errorf("award badge %s: %w", rule.Code, err)
		}
		if !inserted {
			continue
		}

		if _, err := l.CreditXP(ctx, memberID, rule.Points); err != nil {
			return unlocked, err
		}
		l.notifier.Notify(ctx, memberID, "badge",
			"Badge unlocked: "+rule.Name,
			fmt.Sprintf("You earned the %s badge (+%d points).", rule.Name, rule.Points))
		unlocked++

		// The credit may have changed the member's level, which later
		// rules in this pass depend on.
		if m, err = l.members.Get(ctx, memberID); err != nil {
			return unlocked, fmt.Errorf("unlock badges: %w", err)
		}
	}
	return unlocked, nil
}

// SweepBadges runs UnlockBadges for every member. A failure for one
// member is logged and does not stop the sweep; the first error is
// reported alongside the count of badges unlocked.
func (l *Ledger) SweepBadges(ctx context.Context) (int, error) {
	members, err := l.members.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("badge sweep: %w", err)
	}

	total := 0
	var firstErr error
	for _, m := range members {
		n, err := l.UnlockBadges(ctx, m.ID)
		total += n
		if err != nil {
			l.logger.Warn().Err(err).Str("member_id", m.ID).Msg("badge unlock failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return total, firstErr
}

// DecayInactivePoints removes DecayPercent of points (floored) from
// every member whose last login is older than thresholdMonths and who
// holds a positive balance. Each affected member is told exactly how
// much was removed.
func (l *Ledger) DecayInactivePoints(ctx context.Context, now time.Time, thresholdMonths int) (int, error) {
	cutoff := now.AddDate(0, -thresholdMonths, 0)
	inactive, err := l.members.ListInactiveSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("decay points: %w", err)
	}

	decayed := 0
	for _, m := range inactive {
		if m.Points <= 0 {
			continue
		}
		loss := m.Points * l.cfg.DecayPercent / 100
		if loss == 0 {
			continue
		}
		newPoints := m.Points - loss
		if err := l.members.UpdateGamification(ctx, m.ID, newPoints, Level(newPoints)); err != nil {
			return decayed, fmt.Errorf("decay points for %s: %w", m.ID, err)
		}
		l.notifier.Notify(ctx, m.ID, "decay",
			"Points reduced for inactivity",
			fmt.Sprintf("You lost %d points after %d months away. Come back on the water!", loss, thresholdMonths))
		decayed++
	}
	return decayed, nil
}

// RefreshLeaderboard recomputes ranks for the top-N members by points,
// ordered points descending with member id breaking ties. Members
// outside the window keep whatever rank they last held; the rank column
// is a cache of this partial ordering, not a total one.
func (l *Ledger) RefreshLeaderboard(ctx context.Context) (int, error) {
	top, err := l.members.ListTopByPoints(ctx, l.cfg.TopN)
	if err != nil {
		return 0, fmt.Errorf("refresh leaderboard: %w", err)
	}

	for i, m := range top {
		rank := i + 1
		if m.Rank == rank {
			continue
		}
		if err := l.members.SetRank(ctx, m.ID, rank); err != nil {
			return i, fmt.Errorf("set rank for %s: %w", m.ID, err)
		}
	}
	return len(top), nil
}

// ReputationFor maps volunteer counters to a reputation tier.
func ReputationFor(tasks int, hours float64) string {
	switch {
	case tasks >= 25 || hours >= 100:
		return "gold"
	case tasks >= 10 || hours >= 40:
		return "silver"
	case tasks >= 1:
		return "bronze"
	default:
		return "new"
	}
}

// RecomputeVolunteerReputation rebuilds every member's reputation tier
// from their volunteer counters. Reputation is a derived cache and can
// always be rebuilt from source data.
func (l *Ledger) RecomputeVolunteerReputation(ctx context.Context) (int, error) {
	members, err := l.members.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("recompute reputation: %w", err)
	}

	updated := 0
	for _, m := range members {
		rep := ReputationFor(m.VolunteerTasks, m.VolunteerHours)
		if rep == m.Reputation {
			continue
		}
		if err := l.members.SetReputation(ctx, m.ID, rep); err != nil {
			return updated, fmt.Errorf("set reputation for %s: %w", m.ID, err)
		}
		updated++
	}
	return updated, nil
}
