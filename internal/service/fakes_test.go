package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boathouse/internal/domain"
	"boathouse/internal/gamification"
	"boathouse/internal/repository"
)

// In-memory doubles for the service ports. They mimic the repository
// semantics that matter here: compare-and-swap transitions, overlap
// rejection, and dedupe-keyed notifications.

type memReservations struct {
	mu    sync.Mutex
	rows  map[string]*domain.Reservation
	boats *memBoats
}

func newMemReservations(rows ...*domain.Reservation) *memReservations {
	s := &memReservations{rows: make(map[string]*domain.Reservation)}
	for _, r := range rows {
		s.rows[r.ID] = r
	}
	return s
}

func (s *memReservations) Book(_ context.Context, r *domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.BoatID != r.BoatID {
			continue
		}
		if existing.Status != domain.ReservationConfirmed && existing.Status != domain.ReservationCheckedIn {
			continue
		}
		if existing.Overlaps(r.StartTime, r.EndTime) {
			return repository.ErrCapacityConflict
		}
	}
	if s.boats != nil {
		if err := s.boats.claim(r.BoatID); err != nil {
			return err
		}
	}
	cp := *r
	s.rows[r.ID] = &cp
	return nil
}

func (s *memReservations) Get(_ context.Context, id string) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memReservations) UpdateStatus(_ context.Context, id string, from, to domain.ReservationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.Status != from {
		return fmt.Errorf("%w: reservation %s not in state %s", repository.ErrInvalidTransition, id, from)
	}
	r.Status = to
	return nil
}

func (s *memReservations) ListCheckedInEndedBefore(_ context.Context, t time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range s.rows {
		if r.Status == domain.ReservationCheckedIn && r.EndTime.Before(t) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memReservations) ListConfirmedStartingBetween(_ context.Context, from, to time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range s.rows {
		if r.Status == domain.ReservationConfirmed && !r.StartTime.Before(from) && r.StartTime.Before(to) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *memReservations) ListForBoatBetween(_ context.Context, boatID string, from, to time.Time) ([]domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reservation
	for _, r := range s.rows {
		if r.BoatID != boatID {
			continue
		}
		if r.Status != domain.ReservationConfirmed && r.Status != domain.ReservationCheckedIn {
			continue
		}
		if r.Overlaps(from, to) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memBoats struct {
	mu   sync.Mutex
	rows map[string]*domain.Boat
}

func newMemBoats(rows ...*domain.Boat) *memBoats {
	s := &memBoats{rows: make(map[string]*domain.Boat)}
	for _, b := range rows {
		s.rows[b.ID] = b
	}
	return s
}

func (s *memBoats) Get(_ context.Context, id string) (*domain.Boat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memBoats) ListByStatus(_ context.Context, status domain.BoatStatus) ([]domain.Boat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Boat
	for _, b := range s.rows {
		if b.Status == status {
			out = append(out, *b)
		}
	}
	return out, nil
}

// claim mirrors the booking transaction's boat update: an AVAILABLE or
// already-RESERVED boat stays bookable, anything off the water refuses.
func (s *memBoats) claim(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || (b.Status != domain.BoatAvailable && b.Status != domain.BoatReserved) {
		return repository.ErrCapacityConflict
	}
	b.Status = domain.BoatReserved
	return nil
}

func (s *memBoats) SetStatus(_ context.Context, id string, from, to domain.BoatStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || b.Status != from {
		return repository.ErrInvalidTransition
	}
	b.Status = to
	return nil
}

func (s *memBoats) CompleteOuting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || b.Status != domain.BoatInUse {
		return repository.ErrInvalidTransition
	}
	b.Status = domain.BoatAvailable
	b.UsageCount++
	return nil
}

type memMembers struct {
	mu   sync.Mutex
	rows map[string]*domain.Member
}

func newMemMembers(rows ...*domain.Member) *memMembers {
	s := &memMembers{rows: make(map[string]*domain.Member)}
	for _, m := range rows {
		s.rows[m.ID] = m
	}
	return s
}

func (s *memMembers) Get(_ context.Context, id string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMembers) RecordOuting(_ context.Context, id, boatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.OutdoorWorkouts++
	m.LastBoatUsed = boatID
	return nil
}

type sentNote struct {
	MemberID string
	Type     string
}

type memNotifier struct {
	mu   sync.Mutex
	sent []sentNote
	keys map[string]bool
}

func newMemNotifier() *memNotifier {
	return &memNotifier{keys: make(map[string]bool)}
}

func (n *memNotifier) Notify(_ context.Context, memberID, ntype, _, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNote{MemberID: memberID, Type: ntype})
}

func (n *memNotifier) NotifyOnce(_ context.Context, memberID, ntype, _, _, dedupeKey string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.keys[dedupeKey] {
		return false
	}
	n.keys[dedupeKey] = true
	n.sent = append(n.sent, sentNote{MemberID: memberID, Type: ntype})
	return true
}

func (n *memNotifier) countType(ntype string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.Type == ntype {
			count++
		}
	}
	return count
}

// memLedger records credits without real level math side effects.
type memLedger struct {
	mu       sync.Mutex
	credits  map[string]int
	unlocked int
	fail     bool
}

func newMemLedger() *memLedger {
	return &memLedger{credits: make(map[string]int)}
}

func (l *memLedger) CreditXP(_ context.Context, memberID string, amount int) (gamification.LevelUp, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credits[memberID] += amount
	return gamification.LevelUp{OldLevel: 1, NewLevel: 1}, nil
}

func (l *memLedger) UnlockBadges(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (l *memLedger) SweepBadges(_ context.Context) (int, error) {
	if l.fail {
		return 0, fmt.Errorf("badge store down")
	}
	l.unlocked++
	return 1, nil
}

func (l *memLedger) DecayInactivePoints(_ context.Context, _ time.Time, _ int) (int, error) {
	return 2, nil
}

func (l *memLedger) RefreshLeaderboard(_ context.Context) (int, error) {
	return 3, nil
}

func (l *memLedger) RecomputeVolunteerReputation(_ context.Context) (int, error) {
	return 4, nil
}

type memPayments struct {
	mu   sync.Mutex
	rows map[string]*domain.Payment
}

func newMemPayments(rows ...*domain.Payment) *memPayments {
	s := &memPayments{rows: make(map[string]*domain.Payment)}
	for _, p := range rows {
		s.rows[p.ID] = p
	}
	return s
}

func (s *memPayments) ListPendingDueBefore(_ context.Context, t time.Time) ([]domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payment
	for _, p := range s.rows {
		if p.Status == domain.PaymentPending && p.DueDate.Before(t) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memPayments) MarkOverdue(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok || p.Status != domain.PaymentPending {
		return repository.ErrInvalidTransition
	}
	p.Status = domain.PaymentOverdue
	return nil
}
