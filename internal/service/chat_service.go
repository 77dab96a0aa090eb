package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"whisperlink/internal/domain"
)

// ChatSummary is one entry of a user's chat list.
type ChatSummary struct {
	ChatID       string          `json:"chat_id"`
	User         *domain.User    `json:"user"`
	Nickname     *string         `json:"nickname,omitempty"`
	IsSecretRoom bool            `json:"is_secret_room"`
	Wallpaper    *string         `json:"wallpaper,omitempty"`
	LastMessage  *domain.Message `json:"last_message,omitempty"`
}

// ChatService covers the chat list and per-chat customization.
type ChatService struct {
	chats    domain.ChatRepository
	users    domain.UserRepository
	messages domain.MessageStore
	presence PresenceSource
}

func NewChatService(chats domain.ChatRepository, users domain.UserRepository, messages domain.MessageStore, presence PresenceSource) *ChatService {
	return &ChatService{chats: chats, users: users, messages: messages, presence: presence}
}

// ListForUser returns the caller's chats ordered by most recent
// activity, each decorated with the counterpart's profile, presence,
// the caller's nickname for them, and the latest message.
func (s *ChatService) ListForUser(ctx context.Context, userID string, limit int) ([]*ChatSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	chats, err := s.chats.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, c := range chats {
		otherID := c.OtherParticipant(userID)
		other, err := s.users.GetByID(ctx, otherID)
		if err != nil {
			log.Printf("chats: load participant %s of chat %s: %v", otherID, c.ID, err)
			continue
		}
		if s.presence != nil {
			rec := s.presence.Snapshot(other.ID)
			other.IsOnline = rec.IsOnline
			if !rec.LastSeen.IsZero() {
				other.LastSeen = rec.LastSeen
			}
		}

		sum := &ChatSummary{
			ChatID:       c.ID,
			User:         other,
			IsSecretRoom: c.IsSecretRoom,
			Wallpaper:    c.Wallpaper,
		}

		if nick, err := s.chats.GetNickname(ctx, c.ID, otherID); err == nil {
			sum.Nickname = &nick
		} else if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("chats: nickname for %s in %s: %v", otherID, c.ID, err)
		}

		last, err := s.messages.LastMessage(ctx, userID, otherID)
		if err != nil {
			log.Printf("chats: last message of %s: %v", c.ID, err)
		} else {
			sum.LastMessage = last
		}

		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// SetNickname stores the caller's nickname for the other participant.
// An empty nickname is rejected; callers clear nicknames by setting a
// new one.
func (s *ChatService) SetNickname(ctx context.Context, chatID, callerID, nickname string) error {
	if nickname == "" {
		return fmt.Errorf("%w: nickname cannot be empty", domain.ErrInvalidInput)
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.UserA != callerID && chat.UserB != callerID {
		return domain.ErrForbidden
	}
	target := chat.OtherParticipant(callerID)
	return s.chats.SetNickname(ctx, chatID, target, nickname, callerID)
}

// SetWallpaper changes the chat's shared wallpaper. Both participants
// see the same wallpaper.
func (s *ChatService) SetWallpaper(ctx context.Context, chatID, callerID, wallpaperURL string) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.UserA != callerID && chat.UserB != callerID {
		return domain.ErrForbidden
	}
	return s.chats.SetWallpaper(ctx, chatID, wallpaperURL)
}

// EnsureWith returns the caller's chat with the other user, creating it
// if needed. Secret accounts only ever get their secret room.
func (s *ChatService) EnsureWith(ctx context.Context, callerID, otherID string) (*domain.Chat, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if !caller.CanChatWith(other) {
		return nil, domain.ErrForbidden
	}
	return s.chats.Ensure(ctx, callerID, otherID, caller.IsSecret() || other.IsSecret())
}
