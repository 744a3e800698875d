package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
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

// Migrate creates the users, tasks, and messages collections plus the indexes
// backing the conversation and unread queries. Idempotent.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(100) NOT NULL DEFAULT '',
			email VARCHAR(100) UNIQUE NOT NULL,
			phone_number VARCHAR(30) NOT NULL DEFAULT '',
			department VARCHAR(100) NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'employee',
			access_code VARCHAR(255) NOT NULL DEFAULT '',
			is_verified BOOLEAN NOT NULL DEFAULT 0,
			created_by VARCHAR(64) NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// Tasks
		`CREATE TABLE IF NOT EXISTS tasks (
			id VARCHAR(64) PRIMARY KEY,
			assigned_to VARCHAR(64) NOT NULL,
			name VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(50) NOT NULL DEFAULT '',
			deadline VARCHAR(50) NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// Messages. participant_a/participant_b hold the sorted id pair;
		// conversation_id may be empty for records that predate the field.
		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(64) PRIMARY KEY,
			sender_id VARCHAR(64) NOT NULL,
			receiver_id VARCHAR(64) NOT NULL,
			message TEXT NOT NULL,
			sender_name VARCHAR(100) NOT NULL DEFAULT '',
			sender_role VARCHAR(20) NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL,
			read BOOLEAN NOT NULL DEFAULT 0,
			read_at DATETIME DEFAULT NULL,
			conversation_id VARCHAR(130) NOT NULL DEFAULT '',
			participant_a VARCHAR(64) NOT NULL,
			participant_b VARCHAR(64) NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_receiver_read ON messages(receiver_id, read);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_participants ON messages(participant_a, participant_b);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
