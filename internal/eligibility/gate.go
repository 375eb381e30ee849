// Package eligibility decides whether a member may take out a given
// boat class, based on the club's static requirement table.
package eligibility

import (
	"fmt"

	"boathouse/internal/domain"
)

// Check identifies which requirement an evaluation failed on.
type Check string

const (
	CheckNone         Check = ""
	CheckUnknownClass Check = "unknown_class"
	CheckLevel        Check = "level"
	CheckWorkouts     Check = "workouts"
	CheckTank         Check = "tank_experience"
)

// TankWorkoutsRequired is the minimum tank sessions for classes that
// mandate indoor experience.
const TankWorkoutsRequired = 3

// Result is a structured allow/deny outcome. Denial is an expected,
// common case and is not modelled as an error.
type Result struct {
	Allowed bool
	Check   Check
	Reason  string
}

// Gate evaluates members against an immutable requirement table. The
// table is injected so tests can supply alternate policies.
type Gate struct {
	requirements map[domain.BoatClass]domain.ClassRequirement
}

func New(requirements map[domain.BoatClass]domain.ClassRequirement) *Gate {
	return &Gate{requirements: requirements}
}

// DefaultRequirements is the club's standing policy table.
func DefaultRequirements() map[domain.BoatClass]domain.ClassRequirement {
	return map[domain.BoatClass]domain.ClassRequirement{
		domain.ClassSingleScull: {MinLevel: 3, MinOutdoorWorkouts: 15, TankRequired: true, CrewSize: 1},
		domain.ClassCoxlessPair: {MinLevel: 3, MinOutdoorWorkouts: 12, TankRequired: true, CrewSize: 2},
		domain.ClassDoubleScull: {MinLevel: 2, MinOutdoorWorkouts: 10, TankRequired: false, CrewSize: 2},
		domain.ClassCoxlessFour: {MinLevel: 2, MinOutdoorWorkouts: 8, TankRequired: false, CrewSize: 4},
		domain.ClassQuadScull:   {MinLevel: 2, MinOutdoorWorkouts: 8, TankRequired: false, CrewSize: 4},
		domain.ClassEight:       {MinLevel: 1, MinOutdoorWorkouts: 5, TankRequired: false, CrewSize: 9},
	}
}

// Evaluate checks the member against the class requirements in a fixed
// order: level, outdoor workouts, tank experience. The first failing
// check is the one reported, so callers always see the most fundamental
// blocker. Unknown classes fail closed.
func (g *Gate) Evaluate(m *domain.Member, class domain.BoatClass) Result {
	req, ok := g.requirements[class]
	if !ok {
		return Result{
			Check:  CheckUnknownClass,
			Reason: fmt.Sprintf("unknown boat class %q", class),
		}
	}

	if m.Level < req.MinLevel {
		return Result{
			Check:  CheckLevel,
			Reason: fmt.Sprintf("requires level %d, you are level %d", req.MinLevel, m.Level),
		}
	}
	if m.OutdoorWorkouts < req.MinOutdoorWorkouts {
		return Result{
			Check:  CheckWorkouts,
			Reason: fmt.Sprintf("requires %d outdoor workouts, you have %d", req.MinOutdoorWorkouts, m.OutdoorWorkouts),
		}
	}
	if req.TankRequired && m.TankWorkouts < TankWorkoutsRequired {
		return Result{
			Check:  CheckTank,
			Reason: fmt.Sprintf("requires %d tank sessions, you have %d", TankWorkoutsRequired, m.TankWorkouts),
		}
	}

	return Result{Allowed: true}
}

// Requirement returns the table row for a class.
func (g *Gate) Requirement(class domain.BoatClass) (domain.ClassRequirement, bool) {
	req, ok := g.requirements[class]
	return req, ok
}
