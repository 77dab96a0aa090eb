package postgres

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
	query := `
		INSERT INTO users (id, username, display_name, hashed_password, profile_picture,
			account_kind, secret_partner_id, theme, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, last_seen
	`
	return r.db.QueryRowContext(ctx, query,
		u.ID, u.Username, u.DisplayName, u.HashedPassword, u.ProfilePicture,
		u.AccountKind, u.SecretPartnerID, u.Theme,
	).Scan(&u.CreatedAt, &u.LastSeen)
}

// CreateSecretPaired inserts the new secret account and links the
// partner back in one transaction, so the pairing is never half-formed.
func (r *UserRepo) CreateSecretPaired(ctx context.Context, u *domain.User, partnerID string) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.AccountKind = domain.AccountSecret
	u.SecretPartnerID = &partnerID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pairing tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO users (id, username, display_name, hashed_password, profile_picture,
			account_kind, secret_partner_id, theme, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, last_seen
	`, u.ID, u.Username, u.DisplayName, u.HashedPassword, u.ProfilePicture,
		u.AccountKind, u.SecretPartnerID, u.Theme,
	).Scan(&u.CreatedAt, &u.LastSeen); err != nil {
		return fmt.Errorf("insert paired user: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET account_kind = $1, secret_partner_id = $2 WHERE id = $3
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
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepo) Search(ctx context.Context, query, excludeID string, limit int) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE account_kind = $1 AND id != $2 AND username ILIKE $3
		ORDER BY username ASC
		LIMIT $4
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
		args = append(args, *p.DisplayName)
		sets = append(sets, fmt.Sprintf("display_name = $%d", len(args)))
	}
	if p.ProfilePicture != nil {
		args = append(args, *p.ProfilePicture)
		sets = append(sets, fmt.Sprintf("profile_picture = $%d", len(args)))
	}
	if p.Theme != nil {
		args = append(args, *p.Theme)
		sets = append(sets, fmt.Sprintf("theme = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SetLastSeen(ctx context.Context, id string, t time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen = $1 WHERE id = $2`, t.UTC(), id)
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
