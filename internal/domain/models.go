package domain

import (
	"time"
)

// BoatClass is the fixed set of shell classes the club operates.
type BoatClass string

const (
	ClassSingleScull BoatClass = "single_scull"
	ClassCoxlessPair BoatClass = "coxless_pair"
	ClassDoubleScull BoatClass = "double_scull"
	ClassCoxlessFour BoatClass = "coxless_four"
	ClassQuadScull   BoatClass = "quad_scull"
	ClassEight       BoatClass = "eight"
)

// Classes lists every boat class in display order.
func Classes() []BoatClass {
	return []BoatClass{
		ClassSingleScull,
		ClassCoxlessPair,
		ClassDoubleScull,
		ClassCoxlessFour,
		ClassQuadScull,
		ClassEight,
	}
}

func (c BoatClass) Valid() bool {
	switch c {
	case ClassSingleScull, ClassCoxlessPair, ClassDoubleScull,
		ClassCoxlessFour, ClassQuadScull, ClassEight:
		return true
	}
	return false
}

type BoatStatus string

const (
	BoatAvailable   BoatStatus = "AVAILABLE"
	BoatReserved    BoatStatus = "RESERVED"
	BoatInUse       BoatStatus = "IN_USE"
	BoatMaintenance BoatStatus = "MAINTENANCE"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCheckedIn ReservationStatus = "CHECKED_IN"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationOverdue   ReservationStatus = "OVERDUE"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
// OVERDUE requires manual resolution outside this core.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationCompleted, ReservationOverdue, ReservationCancelled:
		return true
	}
	return false
}

// CanTransition enforces the one-directional reservation state machine:
// PENDING -> CONFIRMED -> CHECKED_IN -> {COMPLETED, OVERDUE}, with
// CANCELLED reachable from PENDING and CONFIRMED only.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return to == ReservationConfirmed || to == ReservationCancelled
	case ReservationConfirmed:
		return to == ReservationCheckedIn || to == ReservationCancelled
	case ReservationCheckedIn:
		return to == ReservationCompleted || to == ReservationOverdue
	}
	return false
}

type Member struct {
	ID               string
	Name             string
	Level            int
	Points           int
	OutdoorWorkouts  int
	TankWorkouts     int
	PreferredClasses []BoatClass
	LastBoatUsed     string
	VolunteerTasks   int
	VolunteerHours   float64
	Reputation       string
	Rank             int
	JoinedAt         time.Time
	LastLoginAt      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Prefers reports whether the member listed the class as a preference.
func (m *Member) Prefers(class BoatClass) bool {
	for _, c := range m.PreferredClasses {
		if c == class {
			return true
		}
	}
	return false
}

type Boat struct {
	ID              string
	Name            string
	Class           BoatClass
	Status          BoatStatus
	UsageCount      int
	LastMaintenance time.Time
	NextMaintenance time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Reservation struct {
	ID        string
	MemberID  string
	BoatID    string
	StartTime time.Time
	EndTime   time.Time
	Status    ReservationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the reservation's window intersects [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// Conditions is a point-in-time snapshot from the weather feed. It is
// consumed fresh per recommendation call and never persisted.
type Conditions struct {
	WindSpeed     float64
	WaveHeight    float64
	Precipitation bool
}

type Badge struct {
	ID        string
	MemberID  string
	Code      string
	Name      string
	Points    int
	AwardedAt time.Time
}

type Notification struct {
	ID        string
	MemberID  string
	Type      string
	Title     string
	Message   string
	DedupeKey string
	CreatedAt time.Time
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentOverdue PaymentStatus = "OVERDUE"
)

type Payment struct {
	ID          string
	MemberID    string
	AmountCents int
	Description string
	DueDate     time.Time
	Status      PaymentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClassRequirement is one row of the static eligibility table: what a
// member must have done before taking out a given boat class.
type ClassRequirement struct {
	MinLevel           int
	MinOutdoorWorkouts int
	TankRequired       bool
	CrewSize           int
}
