package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"whisperlink/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatRepository = (*ChatRepo)(nil)

const chatColumns = `id, user_a, user_b, is_secret_room, wallpaper, created_at, last_message_at`

// canonicalPair orders the two participant ids so each pair maps to
// exactly one chat row.
func canonicalPair(a, b string) (string, string) {
	if strings.Compare(a, b) > 0 {
		return b, a
	}
	return a, b
}

func (r *ChatRepo) Ensure(ctx context.Context, userA, userB string, secretRoom bool) (*domain.Chat, error) {
	a, b := canonicalPair(userA, userB)

	chat, err := r.scanChat(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE user_a = ? AND user_b = ?`, a, b)
	if err == nil {
		return chat, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	chat = &domain.Chat{
		ID:            uuid.NewString(),
		UserA:         a,
		UserB:         b,
		IsSecretRoom:  secretRoom,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	// ON CONFLICT covers a concurrent Ensure for the same pair.
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_a, user_b, is_secret_room, created_at, last_message_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_a, user_b) DO NOTHING
	`, chat.ID, a, b, secretRoom, now, now); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return r.scanChat(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE user_a = ? AND user_b = ?`, a, b)
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	return r.scanChat(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = ?`, id)
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID string, limit int) ([]*domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE user_a = ? OR user_b = ?
		ORDER BY last_message_at DESC
		LIMIT ?
	`, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []*domain.Chat
	for rows.Next() {
		c := &domain.Chat{}
		if err := rows.Scan(&c.ID, &c.UserA, &c.UserB, &c.IsSecretRoom,
			&c.Wallpaper, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) TouchLastMessage(ctx context.Context, id string, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chats SET last_message_at = ? WHERE id = ?`, t.UTC(), id)
	return err
}

func (r *ChatRepo) SetWallpaper(ctx context.Context, id, wallpaperURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chats SET wallpaper = ? WHERE id = ?`, wallpaperURL, id)
	if err != nil {
		return fmt.Errorf("set wallpaper: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatRepo) SetNickname(ctx context.Context, chatID, userID, nickname, setBy string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO nicknames (chat_id, user_id, nickname, set_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET nickname = excluded.nickname, set_by = excluded.set_by
	`, chatID, userID, nickname, setBy)
	if err != nil {
		return fmt.Errorf("set nickname: %w", err)
	}
	return nil
}

func (r *ChatRepo) GetNickname(ctx context.Context, chatID, userID string) (string, error) {
	var nickname string
	err := r.db.QueryRowContext(ctx,
		`SELECT nickname FROM nicknames WHERE chat_id = ? AND user_id = ?`,
		chatID, userID).Scan(&nickname)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get nickname: %w", err)
	}
	return nickname, nil
}

// KnownContacts returns everyone the user shares a chat with; this is
// the presence broadcast audience.
func (r *ChatRepo) KnownContacts(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_b FROM chats WHERE user_a = ?
		UNION
		SELECT user_a FROM chats WHERE user_b = ?
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("known contacts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ChatRepo) scanChat(ctx context.Context, query string, args ...any) (*domain.Chat, error) {
	c := &domain.Chat{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.UserA, &c.UserB, &c.IsSecretRoom, &c.Wallpaper, &c.CreatedAt, &c.LastMessageAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat: %w", err)
	}
	return c, nil
}
