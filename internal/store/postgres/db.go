package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the whisperlink schema on
// PostgreSQL. messages.seq is the delivery-ordering sequence.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT         PRIMARY KEY,
			username          VARCHAR(50)  UNIQUE NOT NULL,
			display_name      VARCHAR(100) NOT NULL,
			hashed_password   VARCHAR(255) NOT NULL,
			profile_picture   TEXT,
			account_kind      VARCHAR(10)  NOT NULL DEFAULT 'public',
			secret_partner_id TEXT REFERENCES users(id),
			theme             VARCHAR(10)  NOT NULL DEFAULT 'auto',
			created_at        TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			last_seen         TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			seq            BIGSERIAL    PRIMARY KEY,
			id             TEXT         UNIQUE NOT NULL,
			sender_id      TEXT         NOT NULL REFERENCES users(id),
			receiver_id    TEXT         NOT NULL REFERENCES users(id),
			content        TEXT         NOT NULL,
			kind           VARCHAR(10)  NOT NULL,
			file_url       TEXT,
			file_name      TEXT,
			file_size      BIGINT,
			voice_duration DOUBLE PRECISION,
			created_at     TIMESTAMPTZ  NOT NULL,
			is_delivered   BOOLEAN      NOT NULL DEFAULT FALSE,
			is_read        BOOLEAN      NOT NULL DEFAULT FALSE,
			read_at        TIMESTAMPTZ,
			reactions      TEXT         NOT NULL DEFAULT '{}'
		)`,

		`CREATE TABLE IF NOT EXISTS chats (
			id              TEXT        PRIMARY KEY,
			user_a          TEXT        NOT NULL REFERENCES users(id),
			user_b          TEXT        NOT NULL REFERENCES users(id),
			is_secret_room  BOOLEAN     NOT NULL DEFAULT FALSE,
			wallpaper       TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_message_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_a, user_b)
		)`,

		`CREATE TABLE IF NOT EXISTS nicknames (
			chat_id  TEXT         NOT NULL REFERENCES chats(id),
			user_id  TEXT         NOT NULL REFERENCES users(id),
			nickname VARCHAR(100) NOT NULL,
			set_by   TEXT         NOT NULL REFERENCES users(id),
			PRIMARY KEY (chat_id, user_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_users_account_kind ON users(account_kind)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_a ON chats(user_a)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_b ON chats(user_b)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_last_message ON chats(last_message_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
