package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"whisperlink/internal/domain"
	"whisperlink/internal/service"
)

type stubPresence struct {
	online   map[string]bool
	lastSeen map[string]time.Time
}

func (s *stubPresence) IsOnline(userID string) bool { return s.online[userID] }

func (s *stubPresence) Snapshot(userID string) domain.PresenceRecord {
	return domain.PresenceRecord{
		UserID:   userID,
		IsOnline: s.online[userID],
		LastSeen: s.lastSeen[userID],
	}
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("FiltersSecretAccounts", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users, &stubPresence{})

		users.On("GetByID", mock.Anything, "alice-id").Return(publicUser("alice-id", "alice"), nil)
		users.On("Search", mock.Anything, "b", "alice-id", 20).Return([]*domain.User{
			publicUser("bob-id", "bob"),
			secretUser("hidden-id", "bobby", "partner-id"),
		}, nil)

		got, err := svc.Search(ctx, "alice-id", "b", 0)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "bob-id", got[0].ID)
	})

	t.Run("SecretCallerSeesNothing", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users, &stubPresence{})

		users.On("GetByID", mock.Anything, "hidden-id").Return(secretUser("hidden-id", "hidden", "partner-id"), nil)

		got, err := svc.Search(ctx, "hidden-id", "anyone", 0)
		assert.NoError(t, err)
		assert.Empty(t, got)
		users.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users, &stubPresence{})

		users.On("GetByID", mock.Anything, "alice-id").Return(publicUser("alice-id", "alice"), nil)

		got, err := svc.Search(ctx, "alice-id", "", 0)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("DecoratesPresence", func(t *testing.T) {
		users := new(MockUserRepo)
		lastSeen := time.Now().UTC().Add(-time.Minute)
		presence := &stubPresence{
			online:   map[string]bool{"bob-id": true},
			lastSeen: map[string]time.Time{"bob-id": lastSeen},
		}
		svc := service.NewUserService(users, presence)

		users.On("GetByID", mock.Anything, "alice-id").Return(publicUser("alice-id", "alice"), nil)
		users.On("Search", mock.Anything, "bob", "alice-id", 20).Return([]*domain.User{
			publicUser("bob-id", "bob"),
		}, nil)

		got, err := svc.Search(ctx, "alice-id", "bob", 0)
		assert.NoError(t, err)
		assert.True(t, got[0].IsOnline)
		assert.Equal(t, lastSeen, got[0].LastSeen)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		svc := service.NewUserService(users, &stubPresence{})

		updated := publicUser("alice-id", "alice")
		updated.Theme = "dark"
		users.On("UpdateProfile", mock.Anything, "alice-id", mock.MatchedBy(func(p domain.ProfileUpdate) bool {
			return p.Theme != nil && *p.Theme == "dark"
		})).Return(nil)
		users.On("GetByID", mock.Anything, "alice-id").Return(updated, nil)

		theme := "dark"
		got, err := svc.UpdateProfile(ctx, "alice-id", domain.ProfileUpdate{Theme: &theme})
		assert.NoError(t, err)
		assert.Equal(t, "dark", got.Theme)
	})

	t.Run("EmptyDisplayName", func(t *testing.T) {
		svc := service.NewUserService(new(MockUserRepo), &stubPresence{})

		empty := ""
		_, err := svc.UpdateProfile(ctx, "alice-id", domain.ProfileUpdate{DisplayName: &empty})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
