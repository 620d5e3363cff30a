package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

func Connect(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	return &DB{db}, nil
}

// migrations run in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_admin   BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id               UUID PRIMARY KEY,
		rawg_id          BIGINT NOT NULL UNIQUE,
		name             TEXT NOT NULL,
		slug             TEXT NOT NULL UNIQUE,
		background_image TEXT,
		release_date     DATE,
		metacritic       INTEGER,
		rating           DOUBLE PRECISION,
		platforms        TEXT[] NOT NULL DEFAULT '{}',
		genres           TEXT[] NOT NULL DEFAULT '{}',
		description      TEXT,
		last_updated     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_release_date ON games(release_date)`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		id               UUID PRIMARY KEY,
		user_id          TEXT NOT NULL,
		rawg_id          BIGINT NOT NULL,
		game_name        TEXT NOT NULL,
		background_image TEXT,
		release_date     DATE,
		platforms        TEXT[] NOT NULL DEFAULT '{}',
		added_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		notify           BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (user_id, rawg_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlist_release_date ON watchlist(release_date)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlist_added_at ON watchlist(added_at)`,
}

func Migrate(db *DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
