package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"whisperlink/internal/domain"
	"whisperlink/internal/security"
)

// MessageRepo is the durable message store on PostgreSQL. Content is
// encrypted at rest; callers only ever see plaintext.
type MessageRepo struct {
	db        *sql.DB
	encryptor *security.Encryptor
}

func NewMessageRepo(db *sql.DB, encryptor *security.Encryptor) *MessageRepo {
	return &MessageRepo{db: db, encryptor: encryptor}
}

var _ domain.MessageStore = (*MessageRepo)(nil)

const messageColumns = `seq, id, sender_id, receiver_id, content, kind, file_url,
	file_name, file_size, voice_duration, created_at, is_delivered, is_read, read_at, reactions`

func (r *MessageRepo) Append(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	if m.Reactions == nil {
		m.Reactions = map[string]string{}
	}

	encrypted, err := r.encryptor.Encrypt(m.Content)
	if err != nil {
		return fmt.Errorf("encrypt content: %w", err)
	}
	reactions, err := json.Marshal(m.Reactions)
	if err != nil {
		return fmt.Errorf("marshal reactions: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, kind, file_url,
			file_name, file_size, voice_duration, created_at, is_delivered, is_read, reactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq
	`, m.ID, m.SenderID, m.ReceiverID, encrypted, m.Kind, m.FileURL,
		m.FileName, m.FileSize, m.VoiceDuration, m.CreatedAt, m.Delivered, m.Read, string(reactions),
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	return r.scanMessage(r.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

func (r *MessageRepo) SetReaction(ctx context.Context, messageID, userID, emoji string) (*domain.Message, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reaction tx: %w", err)
	}
	defer tx.Rollback()

	m, err := r.scanMessage(tx.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = $1 FOR UPDATE`, messageID))
	if err != nil {
		return nil, err
	}

	// One reaction per user, last write wins; empty emoji removes it.
	if emoji == "" {
		delete(m.Reactions, userID)
	} else {
		m.Reactions[userID] = emoji
	}

	reactions, err := json.Marshal(m.Reactions)
	if err != nil {
		return nil, fmt.Errorf("marshal reactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE messages SET reactions = $1 WHERE id = $2`, string(reactions), messageID); err != nil {
		return nil, fmt.Errorf("update reactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reaction: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, messageID string) (*domain.Message, error) {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE, read_at = $1 WHERE id = $2 AND is_read = FALSE
	`, time.Now().UTC(), messageID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return r.GetByID(ctx, messageID)
}

func (r *MessageRepo) MarkAllRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE, read_at = $1
		WHERE sender_id = $2 AND receiver_id = $3 AND is_read = FALSE
	`, time.Now().UTC(), senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}

func (r *MessageRepo) MarkDelivered(ctx context.Context, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_delivered = TRUE WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// History returns messages between the pair ordered by sequence,
// newest-last. Skip/limit page backwards from the newest message.
func (r *MessageRepo) History(ctx context.Context, userA, userB string, skip, limit int) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY seq DESC
		LIMIT $3 OFFSET $4
	`, userA, userB, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var msgs []*domain.Message
	for rows.Next() {
		m, err := r.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MessageRepo) LastMessage(ctx context.Context, userA, userB string) (*domain.Message, error) {
	m, err := r.scanMessage(r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY seq DESC
		LIMIT 1
	`, userA, userB))
	if err == domain.ErrNotFound {
		return nil, nil
	}
	return m, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MessageRepo) scanMessage(row rowScanner) (*domain.Message, error) {
	m := &domain.Message{}
	var reactions string
	err := row.Scan(
		&m.Seq, &m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Kind, &m.FileURL,
		&m.FileName, &m.FileSize, &m.VoiceDuration, &m.CreatedAt, &m.Delivered,
		&m.Read, &m.ReadAt, &reactions,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}

	if plain, err := r.encryptor.Decrypt(m.Content); err == nil {
		m.Content = plain
	}

	m.Reactions = map[string]string{}
	if reactions != "" {
		if err := json.Unmarshal([]byte(reactions), &m.Reactions); err != nil {
			return nil, fmt.Errorf("unmarshal reactions: %w", err)
		}
	}
	return m, nil
}
