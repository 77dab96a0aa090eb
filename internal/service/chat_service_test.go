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

func TestListChats(t *testing.T) {
	ctx := context.Background()

	t.Run("BuildsSummaries", func(t *testing.T) {
		chats := new(MockChatRepo)
		users := new(MockUserRepo)
		store := new(MockMessageStore)
		presence := &stubPresence{online: map[string]bool{"bob-id": true}}
		svc := service.NewChatService(chats, users, store, presence)

		wallpaper := "/api/uploads/wallpapers/w.png"
		chats.On("ListForUser", mock.Anything, "alice-id", 100).Return([]*domain.Chat{
			{ID: "chat-1", UserA: "alice-id", UserB: "bob-id", Wallpaper: &wallpaper, LastMessageAt: time.Now()},
		}, nil)
		users.On("GetByID", mock.Anything, "bob-id").Return(publicUser("bob-id", "bob"), nil)
		chats.On("GetNickname", mock.Anything, "chat-1", "bob-id").Return("bobby", nil)
		last := &domain.Message{ID: "m1", SenderID: "bob-id", ReceiverID: "alice-id", Content: "hey"}
		store.On("LastMessage", mock.Anything, "alice-id", "bob-id").Return(last, nil)

		got, err := svc.ListForUser(ctx, "alice-id", 0)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, "chat-1", got[0].ChatID)
		assert.Equal(t, "bob-id", got[0].User.ID)
		assert.True(t, got[0].User.IsOnline)
		assert.Equal(t, "bobby", *got[0].Nickname)
		assert.Equal(t, &wallpaper, got[0].Wallpaper)
		assert.Equal(t, "m1", got[0].LastMessage.ID)
	})

	t.Run("NoNicknameIsOmitted", func(t *testing.T) {
		chats := new(MockChatRepo)
		users := new(MockUserRepo)
		store := new(MockMessageStore)
		svc := service.NewChatService(chats, users, store, &stubPresence{})

		chats.On("ListForUser", mock.Anything, "alice-id", 100).Return([]*domain.Chat{
			{ID: "chat-1", UserA: "alice-id", UserB: "bob-id"},
		}, nil)
		users.On("GetByID", mock.Anything, "bob-id").Return(publicUser("bob-id", "bob"), nil)
		chats.On("GetNickname", mock.Anything, "chat-1", "bob-id").Return("", domain.ErrNotFound)
		store.On("LastMessage", mock.Anything, "alice-id", "bob-id").Return(nil, nil)

		got, err := svc.ListForUser(ctx, "alice-id", 0)
		assert.NoError(t, err)
		assert.Nil(t, got[0].Nickname)
		assert.Nil(t, got[0].LastMessage)
	})
}

func TestSetNickname(t *testing.T) {
	ctx := context.Background()

	t.Run("NicknameTargetsOtherParticipant", func(t *testing.T) {
		chats := new(MockChatRepo)
		svc := service.NewChatService(chats, new(MockUserRepo), new(MockMessageStore), &stubPresence{})

		chats.On("GetByID", mock.Anything, "chat-1").Return(&domain.Chat{
			ID: "chat-1", UserA: "alice-id", UserB: "bob-id",
		}, nil)
		chats.On("SetNickname", mock.Anything, "chat-1", "bob-id", "bobby", "alice-id").Return(nil)

		err := svc.SetNickname(ctx, "chat-1", "alice-id", "bobby")
		assert.NoError(t, err)
		chats.AssertExpectations(t)
	})

	t.Run("NonParticipantForbidden", func(t *testing.T) {
		chats := new(MockChatRepo)
		svc := service.NewChatService(chats, new(MockUserRepo), new(MockMessageStore), &stubPresence{})

		chats.On("GetByID", mock.Anything, "chat-1").Return(&domain.Chat{
			ID: "chat-1", UserA: "alice-id", UserB: "bob-id",
		}, nil)

		err := svc.SetNickname(ctx, "chat-1", "carol-id", "what")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("EmptyNickname", func(t *testing.T) {
		svc := service.NewChatService(new(MockChatRepo), new(MockUserRepo), new(MockMessageStore), &stubPresence{})
		err := svc.SetNickname(ctx, "chat-1", "alice-id", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSetWallpaper(t *testing.T) {
	ctx := context.Background()

	t.Run("ParticipantCanSet", func(t *testing.T) {
		chats := new(MockChatRepo)
		svc := service.NewChatService(chats, new(MockUserRepo), new(MockMessageStore), &stubPresence{})

		chats.On("GetByID", mock.Anything, "chat-1").Return(&domain.Chat{
			ID: "chat-1", UserA: "alice-id", UserB: "bob-id",
		}, nil)
		chats.On("SetWallpaper", mock.Anything, "chat-1", "/api/uploads/wallpapers/w.png").Return(nil)

		err := svc.SetWallpaper(ctx, "chat-1", "bob-id", "/api/uploads/wallpapers/w.png")
		assert.NoError(t, err)
	})

	t.Run("NonParticipantForbidden", func(t *testing.T) {
		chats := new(MockChatRepo)
		svc := service.NewChatService(chats, new(MockUserRepo), new(MockMessageStore), &stubPresence{})

		chats.On("GetByID", mock.Anything, "chat-1").Return(&domain.Chat{
			ID: "chat-1", UserA: "alice-id", UserB: "bob-id",
		}, nil)

		err := svc.SetWallpaper(ctx, "chat-1", "carol-id", "x")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
