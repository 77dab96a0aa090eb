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

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

const userColumns = `id, username, display_name, hashed_password, profile_picture,
	account_kind, secret_partner_id, theme, created_at, last_seen`

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastSeen = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, hashed_password, profile_picture,
			account_kind, secret_partner_id, theme, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.DisplayName, u.HashedPassword, u.ProfilePicture,
		u.AccountKind, u.SecretPartnerID, u.Theme, u.CreatedAt, u.LastSeen)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// CreateSecretPaired inserts the new secret account and links the
// partner back in one transaction, so the pairing is never half-formed.
func (r *UserRepo) CreateSecretPaired(ctx context.Context, u *domain.User, partnerID string) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastSeen = now
	u.AccountKind = domain.AccountSecret
	u.SecretPartnerID = &partnerID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pairing tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, hashed_password, profile_picture,
			account_kind, secret_partner_id, theme, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.DisplayName, u.HashedPassword, u.ProfilePicture,
		u.AccountKind, u.SecretPartnerID, u.Theme, u.CreatedAt, u.LastSeen); err != nil {
		return fmt.Errorf("insert paired user: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET account_kind = ?, secret_partner_id = ? WHERE id = ?
	`, domain.AccountSecret, u.ID, partnerID)
	if err != nil {
		return fmt.Errorf("link partner: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("link partner: %w", err)
	} else if n == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepo) Search(ctx context.Context, query, excludeID string, limit int) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE account_kind = ? AND id != ? AND username LIKE ? ESCAPE '\'
		ORDER BY username ASC
		LIMIT ?
	`, domain.AccountPublic, excludeID, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return r.scanUsers(rows)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p domain.ProfileUpdate) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if p.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *p.DisplayName)
	}
	if p.ProfilePicture != nil {
		sets = append(sets, "profile_picture = ?")
		args = append(args, *p.ProfilePicture)
	}
	if p.Theme != nil {
		sets = append(sets, "theme = ?")
		args = append(args, *p.Theme)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetLastSeen(ctx context.Context, id string, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, t.UTC(), id)
	return err
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.HashedPassword, &u.ProfilePicture,
		&u.AccountKind, &u.SecretPartnerID, &u.Theme, &u.CreatedAt, &u.LastSeen,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) scanUsers(rows *sql.Rows) ([]*domain.User, error) {
	defer rows.Close()
	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(
			&u.ID, &u.Username, &u.DisplayName, &u.HashedPassword, &u.ProfilePicture,
			&u.AccountKind, &u.SecretPartnerID, &u.Theme, &u.CreatedAt, &u.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
