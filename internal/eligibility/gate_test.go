package eligibility_test

import (
	"testing"

	"boathouse/internal/domain"
	"boathouse/internal/eligibility"
)

func TestEvaluate(t *testing.T) {
	gate := eligibility.New(eligibility.DefaultRequirements())

	tests := []struct {
		name        string
		member      domain.Member
		class       domain.BoatClass
		wantAllowed bool
		wantCheck   eligibility.Check
	}{
		{
			name:        "level too low for coxless pair",
			member:      domain.Member{Level: 2, OutdoorWorkouts: 12},
			class:       domain.ClassCoxlessPair,
			wantAllowed: false,
			wantCheck:   eligibility.CheckLevel,
		},
		{
			name:        "level failure reported before workout failure",
			member:      domain.Member{Level: 1, OutdoorWorkouts: 0},
			class:       domain.ClassSingleScull,
			wantAllowed: false,
			wantCheck:   eligibility.CheckLevel,
		},
		{
			name:        "workout failure reported before tank failure",
			member:      domain.Member{Level: 3, OutdoorWorkouts: 5, TankWorkouts: 0},
			class:       domain.ClassSingleScull,
			wantAllowed: false,
			wantCheck:   eligibility.CheckWorkouts,
		},
		{
			name:        "tank failure last",
			member:      domain.Member{Level: 3, OutdoorWorkouts: 20, TankWorkouts: 2},
			class:       domain.ClassSingleScull,
			wantAllowed: false,
			wantCheck:   eligibility.CheckTank,
		},
		{
			name:        "all checks pass",
			member:      domain.Member{Level: 3, OutdoorWorkouts: 20, TankWorkouts: 3},
			class:       domain.ClassSingleScull,
			wantAllowed: true,
			wantCheck:   eligibility.CheckNone,
		},
		{
			name:        "tank not required for eight",
			member:      domain.Member{Level: 1, OutdoorWorkouts: 5, TankWorkouts: 0},
			class:       domain.ClassEight,
			wantAllowed: true,
			wantCheck:   eligibility.CheckNone,
		},
		{
			name:        "unknown class fails closed",
			member:      domain.Member{Level: 10, OutdoorWorkouts: 100, TankWorkouts: 100},
			class:       domain.BoatClass("canoe"),
			wantAllowed: false,
			wantCheck:   eligibility.CheckUnknownClass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.Evaluate(&tt.member, tt.class)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (reason %q)", got.Allowed, tt.wantAllowed, got.Reason)
			}
			if got.Check != tt.wantCheck {
				t.Errorf("Check = %q, want %q", got.Check, tt.wantCheck)
			}
			if !got.Allowed && got.Reason == "" {
				t.Error("denial must carry a reason")
			}
		})
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	gate := eligibility.New(eligibility.DefaultRequirements())
	m := domain.Member{Level: 2, OutdoorWorkouts: 12}

	first := gate.Evaluate(&m, domain.ClassCoxlessPair)
	for i := 0; i < 10; i++ {
		got := gate.Evaluate(&m, domain.ClassCoxlessPair)
		if got != first {
			t.Fatalf("evaluation not deterministic: %+v vs %+v", got, first)
		}
	}
}
