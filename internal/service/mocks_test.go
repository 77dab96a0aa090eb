package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"whisperlink/internal/domain"
	"whisperlink/internal/realtime"
)

// Mock mocks
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) CreateSecretPaired(ctx context.Context, u *domain.User, partnerID string) error {
	args := m.Called(ctx, u, partnerID)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) Search(ctx context.Context, query, excludeID string, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, query, excludeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}

func (m *MockUserRepo) SetLastSeen(ctx context.Context, id string, t time.Time) error {
	args := m.Called(ctx, id, t)
	return args.Error(0)
}

type MockChatRepo struct {
	mock.Mock
}

func (m *MockChatRepo) Ensure(ctx context.Context, userA, userB string, secretRoom bool) (*domain.Chat, error) {
	args := m.Called(ctx, userA, userB, secretRoom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepo) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Chat, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chat), args.Error(1)
}

func (m *MockChatRepo) TouchLastMessage(ctx context.Context, id string, t time.Time) error {
	args := m.Called(ctx, id, t)
	return args.Error(0)
}

func (m *MockChatRepo) SetWallpaper(ctx context.Context, id, wallpaperURL string) error {
	args := m.Called(ctx, id, wallpaperURL)
	return args.Error(0)
}

func (m *MockChatRepo) SetNickname(ctx context.Context, chatID, userID, nickname, setBy string) error {
	args := m.Called(ctx, chatID, userID, nickname, setBy)
	return args.Error(0)
}

func (m *MockChatRepo) GetNickname(ctx context.Context, chatID, userID string) (string, error) {
	args := m.Called(ctx, chatID, userID)
	return args.String(0), args.Error(1)
}

func (m *MockChatRepo) KnownContacts(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) Append(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageStore) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageStore) SetReaction(ctx context.Context, messageID, userID, emoji string) (*domain.Message, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageStore) MarkRead(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageStore) MarkAllRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessageStore) MarkDelivered(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockMessageStore) History(ctx context.Context, userA, userB string, skip, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, userA, userB, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageStore) LastMessage(ctx context.Context, userA, userB string) (*domain.Message, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

type MockEventRouter struct {
	mock.Mock
}

func (m *MockEventRouter) RouteNewMessage(ctx context.Context, msg *domain.Message, sender *realtime.SenderInfo) error {
	args := m.Called(ctx, msg, sender)
	return args.Error(0)
}

func (m *MockEventRouter) RouteReaction(ctx context.Context, messageID, actorID, emoji string) (*domain.Message, error) {
	args := m.Called(ctx, messageID, actorID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockEventRouter) RouteReadReceipt(ctx context.Context, readerID, senderID string) (int64, error) {
	args := m.Called(ctx, readerID, senderID)
	return args.Get(0).(int64), args.Error(1)
}
