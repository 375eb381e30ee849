package service

import (
	"context"
	"fmt"

	"boathouse/internal/constants"
	"boathouse/internal/domain"
	"boathouse/internal/gamification"

	"github.com/rs/zerolog"
)

// Progress is the member-facing gamification summary.
type Progress struct {
	MemberID      string
	Level         int
	Points        int
	ProgressPct   int
	XPToNextLevel int
	Rank          int
	Reputation    string
	Badges        []domain.Badge
}

type MemberService struct {
	members       MemberStore
	badges        BadgeStore
	notifications NotificationReader
	logger        zerolog.Logger
}

func NewMemberService(members MemberStore, badges BadgeStore, notifications NotificationReader, logger zerolog.Logger) *MemberService {
	return &MemberService{members: members, badges: badges, notifications: notifications, logger: logger}
}

func (s *MemberService) Progress(ctx context.Context, memberID string) (*Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	m, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	badges, err := s.badges.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("load badges: %w", err)
	}

	return &Progress{
		MemberID:      m.ID,
		Level:         gamification.Level(m.Points),
		Points:        m.Points,
		ProgressPct:   gamification.Progress(m.Points),
		XPToNextLevel: gamification.XPToNextLevel(m.Points),
		Rank:          m.Rank,
		Reputation:    m.Reputation,
		Badges:        badges,
	}, nil
}

const notificationPageSize = 50

// NotificationFeed is one page of a member's notifications plus the
// total on record, so clients can tell when older entries exist.
type NotificationFeed struct {
	Items []domain.Notification
	Total int
}

// Notifications returns the member's most recent notifications.
func (s *MemberService) Notifications(ctx context.Context, memberID string) (*NotificationFeed, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if _, err := s.members.Get(ctx, memberID); err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}

	items, err := s.notifications.ListByMember(ctx, memberID, notificationPageSize)
	if err != nil {
		return nil, err
	}
	total, err := s.notifications.CountForMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &NotificationFeed{Items: items, Total: total}, nil
}
