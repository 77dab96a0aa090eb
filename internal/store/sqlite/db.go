package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate runs an idempotent set of CREATE TABLE / CREATE INDEX
// statements for the whisperlink schema.
//
// messages.seq is the rowid-backed sequence that orders delivery; the
// uuid id column is the external identity.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			username          VARCHAR(50) UNIQUE NOT NULL,
			display_name      VARCHAR(100) NOT NULL,
			hashed_password   VARCHAR(255) NOT NULL,
			profile_picture   TEXT,
			account_kind      VARCHAR(10) NOT NULL DEFAULT 'public',
			secret_partner_id TEXT REFERENCES users(id),
			theme             VARCHAR(10) NOT NULL DEFAULT 'auto',
			created_at        DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_seen         DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			id             TEXT UNIQUE NOT NULL,
			sender_id      TEXT NOT NULL REFERENCES users(id),
			receiver_id    TEXT NOT NULL REFERENCES users(id),
			content        TEXT NOT NULL,
			kind           VARCHAR(10) NOT NULL,
			file_url       TEXT,
			file_name      TEXT,
			file_size      INTEGER,
			voice_duration REAL,
			created_at     DATETIME NOT NULL,
			is_delivered   BOOLEAN DEFAULT 0,
			is_read        BOOLEAN DEFAULT 0,
			read_at        DATETIME,
			reactions      TEXT NOT NULL DEFAULT '{}'
		);`,
		`CREATE TABLE IF NOT EXISTS chats (
			id              TEXT PRIMARY KEY,
			user_a          TEXT NOT NULL REFERENCES users(id),
			user_b          TEXT NOT NULL REFERENCES users(id),
			is_secret_room  BOOLEAN DEFAULT 0,
			wallpaper       TEXT,
			created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_message_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_a, user_b)
		);`,
		`CREATE TABLE IF NOT EXISTS nicknames (
			chat_id  TEXT NOT NULL REFERENCES chats(id),
			user_id  TEXT NOT NULL REFERENCES users(id),
			nickname VARCHAR(100) NOT NULL,
			set_by   TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (chat_id, user_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`,
		`CREATE INDEX IF NOT EXISTS idx_users_account_kind ON users(account_kind);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, is_read);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_a ON chats(user_a);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user_b ON chats(user_b);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_last_message ON chats(last_message_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
