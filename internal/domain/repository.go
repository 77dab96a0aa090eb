package domain

import (
	"context"
	"time"
)

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	DisplayName    *string
	ProfilePicture *string
	Theme          *string
}

// UserRepository defines persistence operations for the user directory.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	// CreateSecretPaired inserts u and links it with the partner in a
	// single transaction: both rows end up as secret accounts pointing
	// at each other, or neither does.
	CreateSecretPaired(ctx context.Context, u *User, partnerID string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Search matches public accounts by username substring, excluding
	// excludeID. Secret accounts never appear in results.
	Search(ctx context.Context, query, excludeID string, limit int) ([]*User, error)
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) error
	SetLastSeen(ctx context.Context, id string, t time.Time) error
}

// MessageStore is the durable message adapter. The realtime core never
// reaches storage except through this interface.
type MessageStore interface {
	// Append persists m, assigning id, sequence number, and timestamp.
	// The sequence number is the ordering authority for delivery.
	Append(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// SetReaction records userID's reaction on a message, one per user,
	// last write wins. An empty emoji removes the reaction.
	SetReaction(ctx context.Context, messageID, userID, emoji string) (*Message, error)
	// MarkRead flips a single message to read. Returns ErrNotFound for
	// an unknown id.
	MarkRead(ctx context.Context, messageID string) (*Message, error)
	// MarkAllRead marks every unread message sender->receiver as read
	// and returns how many rows changed (zero means nothing to do).
	MarkAllRead(ctx context.Context, senderID, receiverID string) (int64, error)
	MarkDelivered(ctx context.Context, messageID string) error
	// History returns messages between a and b ordered by sequence,
	// newest-last, honoring skip/limit over the newest messages.
	History(ctx context.Context, userA, userB string, skip, limit int) ([]*Message, error)
	LastMessage(ctx context.Context, userA, userB string) (*Message, error)
}

// ChatRepository defines persistence for chat rows and their
// per-chat customization (wallpaper, nicknames).
type ChatRepository interface {
	// Ensure returns the chat for the pair, creating it if missing.
	Ensure(ctx context.Context, userA, userB string, secretRoom bool) (*Chat, error)
	GetByID(ctx context.Context, id string) (*Chat, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]*Chat, error)
	TouchLastMessage(ctx context.Context, id string, t time.Time) error
	SetWallpaper(ctx context.Context, id, wallpaperURL string) error
	// SetNickname stores setBy's nickname for userID within the chat.
	SetNickname(ctx context.Context, chatID, userID, nickname, setBy string) error
	GetNickname(ctx context.Context, chatID, userID string) (string, error)
	// KnownContacts returns the ids of everyone the user shares a chat
	// with; used to scope presence broadcasts.
	KnownContacts(ctx context.Context, userID string) ([]string, error)
}
