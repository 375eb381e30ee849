package service

import (
	"context"
	"errors"
	"fmt"

	"boathouse/internal/constants"
	"boathouse/internal/domain"
	"boathouse/internal/recommend"
	"boathouse/internal/weather"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SuggestionService assembles the inputs the recommendation engine
// needs and degrades gracefully when the weather feed is unavailable.
type SuggestionService struct {
	members    MemberStore
	boats      BoatStore
	conditions ConditionsSource
	engine     *recommend.Engine
	logger     zerolog.Logger
}

func NewSuggestionService(
	members MemberStore,
	boats BoatStore,
	conditions ConditionsSource,
	engine *recommend.Engine,
	logger zerolog.Logger,
) *SuggestionService {
	return &SuggestionService{
		members:    members,
		boats:      boats,
		conditions: conditions,
		engine:     engine,
		logger:     logger,
	}
}

// Suggest ranks the currently bookable fleet for the member. Member,
// fleet, and conditions are fetched concurrently; a dead or
// unconfigured weather feed drops the weather term rather than failing
// the call.
func (s *SuggestionService) Suggest(ctx context.Context, memberID string) ([]recommend.Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	var (
		member *domain.Member
		fleet  []domain.Boat
		env    *domain.Conditions
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.members.Get(gctx, memberID)
		if err != nil {
			return fmt.Errorf("load member: %w", err)
		}
		member = m
		return nil
	})
	g.Go(func() error {
		boats, err := s.boats.ListByStatus(gctx, domain.BoatAvailable)
		if err != nil {
			return fmt.Errorf("load fleet: %w", err)
		}
		fleet = boats
		return nil
	})
	g.Go(func() error {
		c, err := s.conditions.Current(gctx)
		if err != nil {
			if !errors.Is(err, weather.ErrDisabled) {
				s.logger.Warn().Err(err).Msg("weather feed unavailable, scoring without conditions")
			}
			return nil
		}
		env = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	suggestions := s.engine.Suggest(member, fleet, env)
	s.logger.Debug().
		Str("member_id", memberID).
		Int("candidates", len(fleet)).
		Int("suggestions", len(suggestions)).
		Bool("weather", env != nil).
		Msg("suggestions computed")
	return suggestions, nil
}
