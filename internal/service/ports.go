package service

import (
	"context"
	"time"

	"boathouse/internal/domain"
	"boathouse/internal/gamification"
)

// Store interfaces are declared on the consumer side so the services
// can be exercised against in-memory fakes. The repository package
// satisfies all of them.

type ReservationStore interface {
	Book(ctx context.Context, r *domain.Reservation) error
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.ReservationStatus) error
	ListCheckedInEndedBefore(ctx context.Context, t time.Time) ([]domain.Reservation, error)
	ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Reservation, error)
	ListForBoatBetween(ctx context.Context, boatID string, from, to time.Time) ([]domain.Reservation, error)
}

type BoatStore interface {
	Get(ctx context.Context, id string) (*domain.Boat, error)
	ListByStatus(ctx context.Context, status domain.BoatStatus) ([]domain.Boat, error)
	SetStatus(ctx context.Context, id string, from, to domain.BoatStatus) error
	CompleteOuting(ctx context.Context, id string) error
}

type MemberStore interface {
	Get(ctx context.Context, id string) (*domain.Member, error)
	RecordOuting(ctx context.Context, id, boatID string) error
}

type BadgeStore interface {
	ListByMember(ctx context.Context, memberID string) ([]domain.Badge, error)
}

type NotificationReader interface {
	ListByMember(ctx context.Context, memberID string, limit int) ([]domain.Notification, error)
	CountForMember(ctx context.Context, memberID string) (int, error)
}

type PaymentStore interface {
	ListPendingDueBefore(ctx context.Context, t time.Time) ([]domain.Payment, error)
	MarkOverdue(ctx context.Context, id string) error
}

// Notifier is fire-and-forget; delivery failures are logged by the
// implementation, never propagated.
type Notifier interface {
	Notify(ctx context.Context, memberID, ntype, title, message string)
	NotifyOnce(ctx context.Context, memberID, ntype, title, message, dedupeKey string) bool
}

// XPLedger is the slice of the gamification ledger the lifecycle and
// reconciliation services drive.
type XPLedger interface {
	CreditXP(ctx context.Context, memberID string, amount int) (gamification.LevelUp, error)
	UnlockBadges(ctx context.Context, memberID string) (int, error)
	SweepBadges(ctx context.Context) (int, error)
	DecayInactivePoints(ctx context.Context, now time.Time, thresholdMonths int) (int, error)
	RefreshLeaderboard(ctx context.Context) (int, error)
	RecomputeVolunteerReputation(ctx context.Context) (int, error)
}

// ConditionsSource supplies the optional weather feed.
type ConditionsSource interface {
	Current(ctx context.Context) (*domain.Conditions, error)
}
