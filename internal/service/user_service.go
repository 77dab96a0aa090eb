package service

import (
	"context"
	"fmt"

	"whisperlink/internal/domain"
)

// PresenceSource reports live connectivity for a user. Satisfied by
// realtime.Tracker.
type PresenceSource interface {
	IsOnline(userID string) bool
	Snapshot(userID string) domain.PresenceRecord
}

// UserService covers profile reads, updates and contact search.
type UserService struct {
	users    domain.UserRepository
	presence PresenceSource
}

func NewUserService(users domain.UserRepository, presence PresenceSource) *UserService {
	return &UserService{users: users, presence: presence}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.decorate(user)
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	if upd.DisplayName != nil && *upd.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name cannot be empty", domain.ErrInvalidInput)
	}
	if err := s.users.UpdateProfile(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Search finds public users by username prefix or fragment. Secret
// accounts never appear in results and never see any: for them the
// search surface is empty in both directions.
func (s *UserService) Search(ctx context.Context, callerID, query string, limit int) ([]*domain.User, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.IsSecret() {
		return []*domain.User{}, nil
	}
	if query == "" {
		return []*domain.User{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	found, err := s.users.Search(ctx, query, callerID, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	results := make([]*domain.User, 0, len(found))
	for _, u := range found {
		if u.IsSecret() {
			continue
		}
		s.decorate(u)
		results = append(results, u)
	}
	return results, nil
}

func (s *UserService) decorate(u *domain.User) {
	if s.presence == nil {
		return
	}
	rec := s.presence.Snapshot(u.ID)
	u.IsOnline = rec.IsOnline
	if !rec.LastSeen.IsZero() {
		u.LastSeen = rec.LastSeen
	}
}
