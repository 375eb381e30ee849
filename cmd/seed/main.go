// Command seed loads a small demo fleet, membership, and dues ledger
// into the configured database. Safe to rerun: rows that already exist
// are left alone.
package main

import (
	"context"
	"errors"
	"time"

	"boathouse/internal/config"
	"boathouse/internal/database"
	"boathouse/internal/domain"
	"boathouse/internal/logger"
	"boathouse/internal/repository"

	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx := context.Background()
	members := repository.NewMemberRepository(db, log)
	boats := repository.NewBoatRepository(db, log)
	payments := repository.NewPaymentRepository(db, log)

	now := time.Now()
	seeded := 0
	created := make(map[string]bool)

	for _, m := range demoMembers(now) {
		if _, err := members.Get(ctx, m.ID); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatal().Err(err).Str("member_id", m.ID).Msg("check member")
		}
		if err := members.Create(ctx, m); err != nil {
			log.Fatal().Err(err).Str("member_id", m.ID).Msg("seed member")
		}
		created[m.ID] = true
		seeded++
	}

	for _, b := range demoBoats(now) {
		if _, err := boats.Get(ctx, b.ID); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatal().Err(err).Str("boat_id", b.ID).Msg("check boat")
		}
		if err := boats.Create(ctx, b); err != nil {
			log.Fatal().Err(err).Str("boat_id", b.ID).Msg("seed boat")
		}
		seeded++
	}

	seeded += seedPayments(ctx, payments, created, now, log)

	log.Info().Int("rows", seeded).Msg("seed complete")
}

func demoMembers(now time.Time) []*domain.Member {
	return []*domain.Member{
		{
			ID: "member-novice", Name: "Jo Tanner",
			Level: 1, OutdoorWorkouts: 2, TankWorkouts: 1,
			Reputation: "new",
			JoinedAt:   now.AddDate(0, -1, 0), LastLoginAt: now,
		},
		{
			ID: "member-regular", Name: "Sam Hollis",
			Level: 2, Points: 400, OutdoorWorkouts: 14, TankWorkouts: 2,
			PreferredClasses: []domain.BoatClass{domain.ClassDoubleScull},
			Reputation:       "bronze", VolunteerTasks: 2, VolunteerHours: 6,
			JoinedAt: now.AddDate(-1, -2, 0), LastLoginAt: now,
		},
		{
			ID: "member-sculler", Name: "Ren Okafor",
			Level: 4, Points: 1800, OutdoorWorkouts: 40, TankWorkouts: 6,
			PreferredClasses: []domain.BoatClass{domain.ClassSingleScull, domain.ClassDoubleScull},
			LastBoatUsed:     "boat-skiff", Reputation: "silver",
			VolunteerTasks: 11, VolunteerHours: 30,
			JoinedAt:       now.AddDate(-3, 0, 0), LastLoginAt: now,
		},
	}
}

func demoBoats(now time.Time) []*domain.Boat {
	maintained := now.AddDate(0, -1, 0)
	due := now.AddDate(0, 5, 0)
	return []*domain.Boat{
		{ID: "boat-skiff", Name: "Kingfisher", Class: domain.ClassSingleScull,
			Status: domain.BoatAvailable, UsageCount: 40,
			LastMaintenance: maintained, NextMaintenance: due},
		{ID: "boat-double", Name: "Heron", Class: domain.ClassDoubleScull,
			Status: domain.BoatAvailable, UsageCount: 120,
			LastMaintenance: maintained, NextMaintenance: due},
		{ID: "boat-four", Name: "Cormorant", Class: domain.ClassCoxlessFour,
			Status: domain.BoatAvailable, UsageCount: 230,
			LastMaintenance: maintained, NextMaintenance: due},
		{ID: "boat-eight", Name: "Osprey", Class: domain.ClassEight,
			Status: domain.BoatMaintenance, UsageCount: 310,
			LastMaintenance: now.AddDate(0, -7, 0), NextMaintenance: now.AddDate(0, 0, 7)},
	}
}

// seedPayments writes one dues row per member created this run, so a
// rerun against an existing database inserts nothing.
func seedPayments(ctx context.Context, payments *repository.PaymentRepository, created map[string]bool, now time.Time, log zerolog.Logger) int {
	due := []domain.Payment{
		{ID: "dues-novice", MemberID: "member-novice", AmountCents: 12500,
			Description: "annual membership", DueDate: now.AddDate(0, 1, 0),
			Status: domain.PaymentPending},
		{ID: "dues-regular", MemberID: "member-regular", AmountCents: 12500,
			Description: "annual membership", DueDate: now.AddDate(0, 0, -14),
			Status: domain.PaymentPending},
	}

	seeded := 0
	for i := range due {
		if !created[due[i].MemberID] {
			continue
		}
		if err := payments.Create(ctx, &due[i]); err != nil {
			log.Fatal().Err(err).Str("payment_id", due[i].ID).Msg("seed payment")
		}
		seeded++
	}
	return seeded
}
