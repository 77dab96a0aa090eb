package domain

import "time"

// AccountKind distinguishes regular public accounts from secret-room
// accounts that are permanently paired with a single partner.
type AccountKind string

const (
	AccountPublic AccountKind = "public"
	AccountSecret AccountKind = "secret"
)

// MessageKind tags the payload carried by a message.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageVoice MessageKind = "voice"
	MessageFile  MessageKind = "file"
)

// Valid reports whether k is one of the known message kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageText, MessageImage, MessageVoice, MessageFile:
		return true
	}
	return false
}

// User represents an application user.
type User struct {
	ID              string      `db:"id" json:"id"`
	Username        string      `db:"username" json:"username"`
	DisplayName     string      `db:"display_name" json:"display_name"`
	HashedPassword  string      `db:"hashed_password" json:"-"`
	ProfilePicture  *string     `db:"profile_picture" json:"profile_picture,omitempty"`
	AccountKind     AccountKind `db:"account_kind" json:"account_type"`
	SecretPartnerID *string     `db:"secret_partner_id" json:"secret_partner_id,omitempty"`
	Theme           string      `db:"theme" json:"theme"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	LastSeen        time.Time   `db:"last_seen" json:"last_seen"`
	IsOnline        bool        `db:"-" json:"is_online"`
}

// IsSecret reports whether u is a secret-room account.
func (u *User) IsSecret() bool { return u.AccountKind == AccountSecret }

// CanChatWith applies the secret-account access rule: a secret account
// talks only to its partner, and nobody else talks to a secret account.
func (u *User) CanChatWith(other *User) bool {
	if u.IsSecret() {
		return u.SecretPartnerID != nil && *u.SecretPartnerID == other.ID
	}
	if other.IsSecret() {
		return other.SecretPartnerID != nil && *other.SecretPartnerID == u.ID
	}
	return true
}

// Message represents a single chat message between two users.
//
// Seq is the store-assigned sequence number and is the ordering
// authority for delivery; client send time is never trusted.
// Reactions maps reactor user id to emoji, one reaction per user.
type Message struct {
	ID            string            `db:"id" json:"id"`
	Seq           int64             `db:"seq" json:"-"`
	SenderID      string            `db:"sender_id" json:"sender_id"`
	ReceiverID    string            `db:"receiver_id" json:"receiver_id"`
	Content       string            `db:"content" json:"content"`
	Kind          MessageKind       `db:"kind" json:"message_type"`
	FileURL       *string           `db:"file_url" json:"file_url,omitempty"`
	FileName      *string           `db:"file_name" json:"file_name,omitempty"`
	FileSize      *int64            `db:"file_size" json:"file_size,omitempty"`
	VoiceDuration *float64          `db:"voice_duration" json:"voice_duration,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"timestamp"`
	Delivered     bool              `db:"delivered" json:"delivered"`
	Read          bool              `db:"read" json:"read"`
	ReadAt        *time.Time        `db:"read_at" json:"read_at,omitempty"`
	Reactions     map[string]string `db:"reactions" json:"reactions"`
}

// Counterparty returns the other participant of the message's conversation.
func (m *Message) Counterparty(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Involves reports whether userID is the sender or the receiver.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Chat is the stored pairing of two users. Participants are kept in
// canonical order (UserA < UserB) so each pair maps to exactly one row.
type Chat struct {
	ID            string    `db:"id"`
	UserA         string    `db:"user_a"`
	UserB         string    `db:"user_b"`
	IsSecretRoom  bool      `db:"is_secret_room"`
	Wallpaper     *string   `db:"wallpaper"`
	CreatedAt     time.Time `db:"created_at"`
	LastMessageAt time.Time `db:"last_message_at"`
}

// OtherParticipant returns the participant that is not userID.
func (c *Chat) OtherParticipant(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// PresenceRecord is a snapshot of a user's connectivity.
type PresenceRecord struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}
