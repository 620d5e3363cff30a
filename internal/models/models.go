package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrUnauthenticated is returned by watchlist writes when no owner
	// identity was resolved for the call.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrNotFound is returned by the catalog gateway when the upstream
	// source has no record for the requested id or slug. Local point
	// lookups returning no rows are not an error and do not use this.
	ErrNotFound = errors.New("not found")
)

// ──────────────────── User / Session ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Session struct {
	Token     string `json:"-" db:"token"`
	UserID    string `json:"user_id" db:"user_id"`
	IsAdmin   bool   `json:"is_admin" db:"is_admin"`
	ExpiresAt int64  `json:"expires_at" db:"expires_at"`
}

// ──────────────────── Catalog ────────────────────

// GameRecord is a game mirrored from the RAWG catalog. At most one record
// exists per RawgID, and slugs are unique across the cache. Records are
// created and refreshed by upserts and never deleted.
type GameRecord struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	RawgID          int64          `json:"rawg_id" db:"rawg_id"`
	Name            string         `json:"name" db:"name"`
	Slug            string         `json:"slug" db:"slug"`
	BackgroundImage *string        `json:"background_image,omitempty" db:"background_image"`
	ReleaseDate     *string        `json:"release_date,omitempty" db:"release_date"`
	Metacritic      *int           `json:"metacritic,omitempty" db:"metacritic"`
	Rating          *float64       `json:"rating,omitempty" db:"rating"`
	Platforms       pq.StringArray `json:"platforms" db:"platforms"`
	Genres          pq.StringArray `json:"genres" db:"genres"`
	Description     *string        `json:"description,omitempty" db:"description"`
	LastUpdated     time.Time      `json:"last_updated" db:"last_updated"`
}

// ──────────────────── Watchlist ────────────────────

// WatchlistEntry is one user's intent to track a game's release. The game
// fields are an owned snapshot taken at add time, deliberately not synced
// back to the catalog cache: the entry stays valid even if the cached
// record changes or disappears.
type WatchlistEntry struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	UserID          string         `json:"user_id" db:"user_id"`
	RawgID          int64          `json:"rawg_id" db:"rawg_id"`
	GameName        string         `json:"game_name" db:"game_name"`
	BackgroundImage *string        `json:"background_image,omitempty" db:"background_image"`
	ReleaseDate     *string        `json:"release_date,omitempty" db:"release_date"`
	Platforms       pq.StringArray `json:"platforms" db:"platforms"`
	AddedAt         time.Time      `json:"added_at" db:"added_at"`
	Notify          bool           `json:"notify" db:"notify"`
}

// WatchlistPartition splits a user's entries around today's date. Entries
// with no release date land in Released: unscheduled games are never shown
// as upcoming.
type WatchlistPartition struct {
	Upcoming []*WatchlistEntry `json:"upcoming"`
	Released []*WatchlistEntry `json:"released"`
}
