// Package recommend ranks available boats for a member by combining
// eligibility, familiarity, boat condition, and current water
// conditions into a single 0-100 score.
package recommend

import (
	"sort"

	"boathouse/internal/domain"
	"boathouse/internal/eligibility"
)

// Weights caps each scoring term. Injected so alternate policies can be
// tested without touching the engine.
type Weights struct {
	Skill        int
	Availability int
	Familiarity  int
	Preferred    int
	Condition    int
	Weather      int
	WindPenalty  int
}

func DefaultWeights() Weights {
	return Weights{
		Skill:        30,
		Availability: 25,
		Familiarity:  15,
		Preferred:    10,
		Condition:    20,
		Weather:      10,
		WindPenalty:  10,
	}
}

// Calm-water thresholds for the full weather term.
const (
	calmWindSpeed  = 20.0
	calmWaveHeight = 0.5

	// Above this wind speed a single scull takes an extra penalty;
	// they are materially harder to control in wind.
	scullWindLimit = 15.0
)

// Boat condition tiers by lifetime usage.
const (
	conditionWornUses  = 100
	conditionHeavyUses = 200
)

// Suggestion is one ranked candidate. Factors lists every contributing
// positive factor in evaluation order; Reason is the single most
// salient one, chosen by priority (preferred class, then familiarity,
// then skill match).
type Suggestion struct {
	BoatID   string
	BoatName string
	Class    domain.BoatClass
	Score    int
	Reason   string
	Factors  []string
	Warnings []string
}

type Engine struct {
	gate    *eligibility.Gate
	weights Weights
}

func New(gate *eligibility.Gate, weights Weights) *Engine {
	return &Engine{gate: gate, weights: weights}
}

// Suggest scores every bookable boat for the member. Boats that are not
// AVAILABLE, or that the member fails the level or workout checks for,
// are excluded outright. A tank-experience shortfall only attaches a
// warning: in this call path it is guidance, not a hard prerequisite,
// unlike CanReserve. env may be nil, in which case the weather term is
// skipped entirely.
func (e *Engine) Suggest(m *domain.Member, boats []domain.Boat, env *domain.Conditions) []Suggestion {
	var out []Suggestion
	for _, boat := range boats {
		if boat.Status != domain.BoatAvailable {
			continue
		}

		res := e.gate.Evaluate(m, boat.Class)
		if !res.Allowed && res.Check != eligibility.CheckTank {
			continue
		}

		s := Suggestion{
			BoatID:   boat.ID,
			BoatName: boat.Name,
			Class:    boat.Class,
		}

		if res.Allowed {
			s.Score += e.weights.Skill
			s.addFactor("matches your skill level")
			s.Reason = "matches your skill level"
		} else {
			s.Warnings = append(s.Warnings, res.Reason)
		}

		// Every candidate reaching this point is AVAILABLE.
		s.Score += e.weights.Availability
		s.addFactor("available now")

		if boat.ID == m.LastBoatUsed {
			s.Score += e.weights.Familiarity
			s.addFactor("you rowed this boat last")
			s.Reason = "you rowed this boat last"
		}

		if m.Prefers(boat.Class) {
			s.Score += e.weights.Preferred
			s.addFactor("matches your preferred class")
			s.Reason = "matches your preferred class"
		}

		s.Score += e.conditionScore(&s, boat.UsageCount)
		if env != nil {
			s.Score += e.weatherScore(&s, boat.Class, env)
		}

		if s.Score > 100 {
			s.Score = 100
		}
		if s.Score < 0 {
			s.Score = 0
		}
		if s.Reason == "" {
			s.Reason = "available now"
		}

		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].BoatID < out[j].BoatID
	})
	return out
}

func (s *Suggestion) addFactor(f string) {
	s.Factors = append(s.Factors, f)
}

func (e *Engine) conditionScore(s *Suggestion, usage int) int {
	switch {
	case usage < conditionWornUses:
		s.addFactor("boat in good condition")
		return e.weights.Condition
	case usage < conditionHeavyUses:
		return e.weights.Condition * 70 / 100
	default:
		s.Warnings = append(s.Warnings, "boat is heavily used, inspect before launch")
		return e.weights.Condition * 40 / 100
	}
}

func (e *Engine) weatherScore(s *Suggestion, class domain.BoatClass, env *domain.Conditions) int {
	if env.WindSpeed < calmWindSpeed && env.WaveHeight < calmWaveHeight && !env.Precipitation {
		s.addFactor("good conditions on the water")
		return e.weights.Weather
	}

	score := 0
	if class == domain.ClassSingleScull && env.WindSpeed > scullWindLimit {
		score -= e.weights.WindPenalty
		s.Warnings = append(s.Warnings, "strong wind, single sculls are hard to control")
	}
	return score
}

// CanReserve is the authoritative pre-booking gate. Unlike Suggest it
// applies the tank-experience requirement as a hard check, because the
// full eligibility table governs an actual commitment of the boat.
func (e *Engine) CanReserve(m *domain.Member, class domain.BoatClass) eligibility.Result {
	return e.gate.Evaluate(m, class)
}
