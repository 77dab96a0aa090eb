package service

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"whisperlink/internal/domain"
	"whisperlink/internal/realtime"
)

const maxContentRunes = 5000

// EventRouter is the realtime delivery surface the service layer talks
// to. Satisfied by realtime.Router.
type EventRouter interface {
	RouteNewMessage(ctx context.Context, m *domain.Message, sender *realtime.SenderInfo) error
	RouteReaction(ctx context.Context, messageID, actorID, emoji string) (*domain.Message, error)
	RouteReadReceipt(ctx context.Context, readerID, senderID string) (int64, error)
}

// MessageService validates and dispatches messages, reactions and read
// receipts. Persistence and fan-out happen inside the router so that
// per-pair ordering is kept in one place.
type MessageService struct {
	users  domain.UserRepository
	store  domain.MessageStore
	chats  domain.ChatRepository
	router EventRouter
}

func NewMessageService(users domain.UserRepository, store domain.MessageStore, chats domain.ChatRepository, router EventRouter) *MessageService {
	return &MessageService{users: users, store: store, chats: chats, router: router}
}

type SendInput struct {
	ReceiverID    string
	Content       string
	Kind          domain.MessageKind
	FileURL       *string
	FileName      *string
	FileSize      *int64
	VoiceDuration *float64
}

// Send validates the payload and hands the message to the router. The
// returned message carries the store-assigned id, sequence number and
// delivery state.
func (s *MessageService) Send(ctx context.Context, senderID string, in SendInput) (*domain.Message, error) {
	if in.ReceiverID == "" {
		return nil, fmt.Errorf("%w: receiver id is required", domain.ErrInvalidInput)
	}
	if in.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", domain.ErrInvalidInput)
	}
	kind := in.Kind
	if kind == "" {
		kind = domain.MessageText
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidInput, in.Kind)
	}
	if kind == domain.MessageText && in.Content == "" {
		return nil, fmt.Errorf("%w: message content is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Content) > maxContentRunes {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidInput, maxContentRunes)
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	receiver, err := s.users.GetByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !sender.CanChatWith(receiver) {
		return nil, domain.ErrForbidden
	}

	m := &domain.Message{
		SenderID:      senderID,
		ReceiverID:    in.ReceiverID,
		Content:       in.Content,
		Kind:          kind,
		FileURL:       in.FileURL,
		FileName:      in.FileName,
		FileSize:      in.FileSize,
		VoiceDuration: in.VoiceDuration,
		Reactions:     map[string]string{},
	}

	info := &realtime.SenderInfo{
		ID:             sender.ID,
		Username:       sender.Username,
		DisplayName:    sender.DisplayName,
		ProfilePicture: sender.ProfilePicture,
	}
	if err := s.router.RouteNewMessage(ctx, m, info); err != nil {
		return nil, err
	}

	chat, err := s.chats.Ensure(ctx, senderID, in.ReceiverID, sender.IsSecret() || receiver.IsSecret())
	if err != nil {
		log.Printf("messages: ensure chat %s/%s: %v", senderID, in.ReceiverID, err)
	} else if err := s.chats.TouchLastMessage(ctx, chat.ID, m.CreatedAt); err != nil {
		log.Printf("messages: touch chat %s: %v", chat.ID, err)
	}

	return m, nil
}

// React sets or clears the caller's reaction on a message. Only the two
// participants of the message may react.
func (s *MessageService) React(ctx context.Context, actorID, messageID, emoji string) (*domain.Message, error) {
	m, err := s.store.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !m.Involves(actorID) {
		return nil, domain.ErrForbidden
	}
	return s.router.RouteReaction(ctx, messageID, actorID, emoji)
}

// History returns a page of conversation between the caller and the
// other user, oldest-first within the page. Fetching history marks the
// other side's messages as read, mirroring the conversation being
// opened on screen.
func (s *MessageService) History(ctx context.Context, callerID, otherID string, skip, limit int) ([]*domain.Message, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("get caller: %w", err)
	}
	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if !caller.CanChatWith(other) {
		return nil, domain.ErrForbidden
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if skip < 0 {
		skip = 0
	}

	msgs, err := s.store.History(ctx, callerID, otherID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if _, err := s.router.RouteReadReceipt(ctx, callerID, otherID); err != nil {
		log.Printf("messages: read receipt %s->%s: %v", otherID, callerID, err)
	} else {
		now := time.Now().UTC()
		for _, m := range msgs {
			if m.ReceiverID == callerID && !m.Read {
				m.Read = true
				m.ReadAt = &now
			}
		}
	}
	return msgs, nil
}

// MarkConversationRead marks everything from otherID to callerID as
// read and notifies the sender if anything changed.
func (s *MessageService) MarkConversationRead(ctx context.Context, callerID, otherID string) (int64, error) {
	return s.router.RouteReadReceipt(ctx, callerID, otherID)
}
