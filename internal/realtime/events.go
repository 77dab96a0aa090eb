package realtime

import (
	"time"

	"whisperlink/internal/domain"
)

// Event is the closed set of frames pushed over a connection. Each
// variant carries its own "type" tag so clients can switch on it after
// a single decode.
type Event interface {
	eventType() string
}

// SenderInfo is the sender summary embedded in a message frame.
type SenderInfo struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// MessageEvent pushes a freshly persisted message to the recipient.
type MessageEvent struct {
	Type   string          `json:"type"`
	Data   *domain.Message `json:"data"`
	Sender *SenderInfo     `json:"sender,omitempty"`
}

func NewMessageEvent(m *domain.Message, sender *SenderInfo) MessageEvent {
	return MessageEvent{Type: "message", Data: m, Sender: sender}
}

func (MessageEvent) eventType() string { return "message" }

// ReactionEvent notifies the other party that a reaction changed.
// An empty emoji means the reaction was removed.
type ReactionEvent struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Emoji     string `json:"emoji"`
}

func NewReactionEvent(messageID, userID, emoji string) ReactionEvent {
	return ReactionEvent{Type: "reaction", MessageID: messageID, UserID: userID, Emoji: emoji}
}

func (ReactionEvent) eventType() string { return "reaction" }

// ReadReceiptEvent tells the original sender that the counterparty has
// read their messages. ChatUserID identifies the reader.
type ReadReceiptEvent struct {
	Type       string `json:"type"`
	ChatUserID string `json:"chat_user_id"`
}

func NewReadReceiptEvent(readerID string) ReadReceiptEvent {
	return ReadReceiptEvent{Type: "read_receipt", ChatUserID: readerID}
}

func (ReadReceiptEvent) eventType() string { return "read_receipt" }

// StatusEvent announces an online/offline transition.
type StatusEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

func NewStatusEvent(userID string, isOnline bool, lastSeen time.Time) StatusEvent {
	return StatusEvent{Type: "user_status", UserID: userID, IsOnline: isOnline, LastSeen: lastSeen}
}

func (StatusEvent) eventType() string { return "user_status" }
