package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"boathouse/internal/domain"
	"boathouse/internal/eligibility"
	"boathouse/internal/recommend"
	"boathouse/internal/repository"
	"boathouse/internal/service"

	"github.com/rs/zerolog"
)

func testEngine() *recommend.Engine {
	return recommend.New(eligibility.New(eligibility.DefaultRequirements()), recommend.DefaultWeights())
}

func eligibleMember(id string) *domain.Member {
	return &domain.Member{ID: id, Level: 5, OutdoorWorkouts: 50, TankWorkouts: 10}
}

type lifecycleFixture struct {
	svc          *service.ReservationService
	reservations *memReservations
	boats        *memBoats
	members      *memMembers
	ledger       *memLedger
	notifier     *memNotifier
}

func newLifecycleFixture(reservations *memReservations, boats *memBoats, members *memMembers) *lifecycleFixture {
	reservations.boats = boats
	ledger := newMemLedger()
	notifier := newMemNotifier()
	return &lifecycleFixture{
		svc: service.NewReservationService(
			reservations, boats, members, testEngine(), ledger, notifier, zerolog.Nop()),
		reservations: reservations,
		boats:        boats,
		members:      members,
		ledger:       ledger,
		notifier:     notifier,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 5, 14, hour, minute, 0, 0, time.UTC)
}

func TestBook(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(),
		newMemBoats(&domain.Boat{ID: "b1", Name: "Kingfisher", Class: domain.ClassEight, Status: domain.BoatAvailable}),
		newMemMembers(eligibleMember("m1")),
	)

	r, err := f.svc.Book(ctx, "m1", "b1", at(9, 0), 60)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != domain.ReservationConfirmed {
		t.Errorf("status = %s, want CONFIRMED", r.Status)
	}
	if !r.EndTime.Equal(at(10, 0)) {
		t.Errorf("end time = %v, want 10:00", r.EndTime)
	}
	if f.notifier.countType("booking") != 1 {
		t.Error("booking must notify the member")
	}
}

func TestBookDeniedForIneligibleMember(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassSingleScull, Status: domain.BoatAvailable}),
		newMemMembers(&domain.Member{ID: "m1", Level: 3, OutdoorWorkouts: 20, TankWorkouts: 0}),
	)

	_, err := f.svc.Book(ctx, "m1", "b1", at(9, 0), 60)
	var denied *service.EligibilityError
	if !errors.As(err, &denied) {
		t.Fatalf("expected EligibilityError, got %v", err)
	}
	// Booking applies the hard tank check, unlike suggestions.
	if denied.Result.Check != eligibility.CheckTank {
		t.Errorf("Check = %q, want tank_experience", denied.Result.Check)
	}
}

func TestBookConflictOnOccupiedWindow(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(&domain.Reservation{
			ID: "r1", MemberID: "other", BoatID: "b1",
			StartTime: at(9, 0), EndTime: at(10, 0),
			Status: domain.ReservationConfirmed,
		}),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassEight, Status: domain.BoatAvailable}),
		newMemMembers(eligibleMember("m1")),
	)

	// Overlapping request inside the booked hour.
	_, err := f.svc.Book(ctx, "m1", "b1", at(9, 30), 30)
	if !errors.Is(err, repository.ErrCapacityConflict) {
		t.Fatalf("expected capacity conflict, got %v", err)
	}

	// Adjacent slot right after the booked hour is fine, and a second
	// one on the now-RESERVED boat still books.
	if _, err := f.svc.Book(ctx, "m1", "b1", at(10, 0), 30); err != nil {
		t.Fatalf("adjacent booking should succeed, got %v", err)
	}
	b, _ := f.boats.Get(ctx, "b1")
	if b.Status != domain.BoatReserved {
		t.Errorf("boat status = %s, want RESERVED", b.Status)
	}
	if _, err := f.svc.Book(ctx, "m1", "b1", at(10, 30), 30); err != nil {
		t.Fatalf("booking on a reserved boat with a free window should succeed, got %v", err)
	}
}

func TestBookRejectsMisalignedStart(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassEight, Status: domain.BoatAvailable}),
		newMemMembers(eligibleMember("m1")),
	)

	_, err := f.svc.Book(ctx, "m1", "b1", at(9, 3), 60)
	if err == nil {
		t.Fatal("start times off the slot grid must be rejected")
	}
}

func TestCheckInCheckOut(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(&domain.Reservation{
			ID: "r1", MemberID: "m1", BoatID: "b1",
			StartTime: at(9, 0), EndTime: at(10, 0),
			Status: domain.ReservationConfirmed,
		}),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassEight, Status: domain.BoatReserved}),
		newMemMembers(eligibleMember("m1")),
	)

	if err := f.svc.CheckIn(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	b, _ := f.boats.Get(ctx, "b1")
	if b.Status != domain.BoatInUse {
		t.Errorf("boat status after check-in = %s, want IN_USE", b.Status)
	}

	if _, err := f.svc.CheckOut(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	r, _ := f.reservations.Get(ctx, "r1")
	if r.Status != domain.ReservationCompleted {
		t.Errorf("reservation status = %s, want COMPLETED", r.Status)
	}
	b, _ = f.boats.Get(ctx, "b1")
	if b.Status != domain.BoatAvailable || b.UsageCount != 1 {
		t.Errorf("boat after checkout = %s usage %d, want AVAILABLE usage 1", b.Status, b.UsageCount)
	}
	m, _ := f.members.Get(ctx, "m1")
	if m.LastBoatUsed != "b1" || m.OutdoorWorkouts != 51 {
		t.Errorf("member history not recorded: %+v", m)
	}
	if f.ledger.credits["m1"] == 0 {
		t.Error("checkout must credit XP")
	}
}

func TestCheckInRequiresConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(&domain.Reservation{
			ID: "r1", MemberID: "m1", BoatID: "b1",
			StartTime: at(9, 0), EndTime: at(10, 0),
			Status: domain.ReservationCompleted,
		}),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassEight, Status: domain.BoatAvailable}),
		newMemMembers(eligibleMember("m1")),
	)

	if err := f.svc.CheckIn(ctx, "r1"); !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("terminal states must not regress, got %v", err)
	}
}

func TestSweepOverdue(t *testing.T) {
	ctx := context.Background()
	now := at(14, 0)
	f := newLifecycleFixture(
		newMemReservations(
			// Ended two hours ago, still checked in: must be swept.
			&domain.Reservation{ID: "late", MemberID: "m1", BoatID: "b1",
				StartTime: at(11, 0), EndTime: at(12, 0), Status: domain.ReservationCheckedIn},
			// Still on the water inside its window: untouched.
			&domain.Reservation{ID: "ok", MemberID: "m2", BoatID: "b2",
				StartTime: at(13, 0), EndTime: at(15, 0), Status: domain.ReservationCheckedIn},
			// Already overdue from a prior run: excluded by status.
			&domain.Reservation{ID: "old", MemberID: "m3", BoatID: "b3",
				StartTime: at(8, 0), EndTime: at(9, 0), Status: domain.ReservationOverdue},
		),
		newMemBoats(),
		newMemMembers(),
	)

	n, err := f.svc.SweepOverdue(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("swept %d reservations, want 1", n)
	}
	r, _ := f.reservations.Get(ctx, "late")
	if r.Status != domain.ReservationOverdue {
		t.Errorf("late reservation = %s, want OVERDUE", r.Status)
	}
	if f.notifier.countType("overdue") != 1 {
		t.Errorf("overdue notifications = %d, want exactly 1", f.notifier.countType("overdue"))
	}

	// Second run with the same clock is a no-op.
	n, err = f.svc.SweepOverdue(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second sweep transitioned %d reservations, want 0", n)
	}
	if f.notifier.countType("overdue") != 1 {
		t.Error("second sweep must not re-notify")
	}
}

func TestSweepUpcomingRemindersDedupes(t *testing.T) {
	ctx := context.Background()
	now := at(14, 0)
	tomorrow := now.Add(20 * time.Hour) // 10:00 the next day
	f := newLifecycleFixture(
		newMemReservations(
			&domain.Reservation{ID: "r1", MemberID: "m1", BoatID: "b1",
				StartTime: tomorrow, EndTime: tomorrow.Add(time.Hour), Status: domain.ReservationConfirmed},
			// Starts today, not tomorrow: no reminder.
			&domain.Reservation{ID: "r2", MemberID: "m2", BoatID: "b2",
				StartTime: now.Add(2 * time.Hour), EndTime: now.Add(3 * time.Hour), Status: domain.ReservationConfirmed},
		),
		newMemBoats(),
		newMemMembers(),
	)

	n, err := f.svc.SweepUpcomingReminders(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("sent %d reminders, want 1", n)
	}

	// Rerunning the same day is deduped by the idempotency key.
	n, err = f.svc.SweepUpcomingReminders(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second run sent %d reminders, want 0", n)
	}
	if f.notifier.countType("reminder") != 1 {
		t.Errorf("reminder notifications = %d, want 1", f.notifier.countType("reminder"))
	}
}

func TestCancelReleasesBoat(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(&domain.Reservation{
			ID: "r1", MemberID: "m1", BoatID: "b1",
			StartTime: at(9, 0), EndTime: at(10, 0),
			Status: domain.ReservationConfirmed,
		}),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassEight, Status: domain.BoatReserved}),
		newMemMembers(eligibleMember("m1")),
	)

	if err := f.svc.Cancel(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	r, _ := f.reservations.Get(ctx, "r1")
	if r.Status != domain.ReservationCancelled {
		t.Errorf("status = %s, want CANCELLED", r.Status)
	}
	b, _ := f.boats.Get(ctx, "b1")
	if b.Status != domain.BoatAvailable {
		t.Errorf("boat = %s, want released to AVAILABLE", b.Status)
	}
}

func TestAvailableSlotsExcludesBookedWindow(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(
		newMemReservations(&domain.Reservation{
			ID: "r1", MemberID: "m1", BoatID: "b1",
			StartTime: at(9, 0), EndTime: at(10, 0),
			Status: domain.ReservationConfirmed,
		}),
		newMemBoats(&domain.Boat{ID: "b1", Class: domain.ClassEight, Status: domain.BoatReserved}),
		newMemMembers(eligibleMember("m1")),
	)

	free, err := f.svc.AvailableSlots(ctx, "b1", at(0, 0), 30)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range free {
		if s >= "08:35" && s < "10:00" {
			t.Errorf("start %s would overlap the 09:00-10:00 booking", s)
		}
	}
	found := false
	for _, s := range free {
		if s == "10:00" {
			found = true
		}
	}
	if !found {
		t.Error("10:00 should be free immediately after the booking ends")
	}
}
