package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mpwrightt/Game-Release/internal/models"
)

// WatchlistRepository stores each user's tracked games. Every method takes
// the caller's resolved owner identity as an opaque string; an empty owner
// means the caller is unauthenticated. Reads then return empty results and
// writes fail with models.ErrUnauthenticated — reads degrade silently,
// writes never do.
type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

const watchlistColumns = `id, user_id, rawg_id, game_name, background_image,
	       release_date::text, platforms, added_at, notify`

// ListByOwner returns all of the owner's entries, most recently added first.
func (r *WatchlistRepository) ListByOwner(owner string) ([]*models.WatchlistEntry, error) {
	if owner == "" {
		return []*models.WatchlistEntry{}, nil
	}
	rows, err := r.db.Query(`
		SELECT `+watchlistColumns+`
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByReleaseDate partitions the owner's entries into upcoming (release date
// today or later) and released. Entries with no release date count as
// released: unscheduled games stay out of the upcoming bucket.
func (r *WatchlistRepository) ByReleaseDate(owner string) (*models.WatchlistPartition, error) {
	part := &models.WatchlistPartition{
		Upcoming: []*models.WatchlistEntry{},
		Released: []*models.WatchlistEntry{},
	}
	if owner == "" {
		return part, nil
	}

	rows, err := r.db.Query(`
		SELECT `+watchlistColumns+`
		FROM watchlist
		WHERE user_id = $1
		ORDER BY release_date ASC NULLS LAST, added_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	for _, e := range entries {
		if e.ReleaseDate != nil && *e.ReleaseDate >= today {
			part.Upcoming = append(part.Upcoming, e)
		} else {
			part.Released = append(part.Released, e)
		}
	}
	return part, nil
}

// IsMember reports whether the owner tracks the given game.
func (r *WatchlistRepository) IsMember(owner string, rawgID int64) (bool, error) {
	if owner == "" {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM watchlist WHERE user_id = $1 AND rawg_id = $2)`,
		owner, rawgID,
	).Scan(&exists)
	return exists, err
}

// Count returns how many entries the owner has.
func (r *WatchlistRepository) Count(owner string) (int, error) {
	if owner == "" {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM watchlist WHERE user_id = $1`, owner,
	).Scan(&n)
	return n, err
}

// Add inserts a new entry for (owner, entry.RawgID) and reports whether a
// row was actually created. Adding a pair the owner already tracks is a
// no-op returning false: the stored entry is loaded back into entry and
// the new payload's field values are discarded. Notify must be set by the
// caller before the call (it defaults to true at the API edge).
func (r *WatchlistRepository) Add(owner string, entry *models.WatchlistEntry) (bool, error) {
	if owner == "" {
		return false, models.ErrUnauthenticated
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Platforms == nil {
		entry.Platforms = pq.StringArray{}
	}
	entry.UserID = owner

	// The unique (user_id, rawg_id) constraint makes the insert race-safe;
	// a concurrent duplicate simply falls through to the read below.
	err := r.db.QueryRow(`
		INSERT INTO watchlist (id, user_id, rawg_id, game_name, background_image,
		                       release_date, platforms, added_at, notify)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), $8)
		ON CONFLICT (user_id, rawg_id) DO NOTHING
		RETURNING id, added_at`,
		entry.ID, owner, entry.RawgID, entry.GameName, entry.BackgroundImage,
		entry.ReleaseDate, entry.Platforms, entry.Notify,
	).Scan(&entry.ID, &entry.AddedAt)
	if err == nil {
		return true, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	existing, err := r.get(owner, entry.RawgID)
	if err != nil {
		return false, err
	}
	*entry = *existing
	return false, nil
}

// Remove deletes the owner's entry for the given game and reports whether
// anything was deleted. Removing an absent entry returns false, not an
// error.
func (r *WatchlistRepository) Remove(owner string, rawgID int64) (bool, error) {
	if owner == "" {
		return false, models.ErrUnauthenticated
	}
	res, err := r.db.Exec(
		`DELETE FROM watchlist WHERE user_id = $1 AND rawg_id = $2`, owner, rawgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ToggleNotify flips the notify flag on the owner's entry and returns the
// new value. A missing entry returns false without error. The flip happens
// in one statement so concurrent toggles on the same entry serialize on
// the row.
func (r *WatchlistRepository) ToggleNotify(owner string, rawgID int64) (bool, error) {
	if owner == "" {
		return false, models.ErrUnauthenticated
	}
	var notify bool
	err := r.db.QueryRow(`
		UPDATE watchlist SET notify = NOT notify
		WHERE user_id = $1 AND rawg_id = $2
		RETURNING notify`, owner, rawgID,
	).Scan(&notify)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return notify, nil
}

func (r *WatchlistRepository) get(owner string, rawgID int64) (*models.WatchlistEntry, error) {
	e := &models.WatchlistEntry{}
	err := r.db.QueryRow(`
		SELECT `+watchlistColumns+`
		FROM watchlist
		WHERE user_id = $1 AND rawg_id = $2`, owner, rawgID,
	).Scan(&e.ID, &e.UserID, &e.RawgID, &e.GameName, &e.BackgroundImage,
		&e.ReleaseDate, &e.Platforms, &e.AddedAt, &e.Notify)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]*models.WatchlistEntry, error) {
	entries := []*models.WatchlistEntry{}
	for rows.Next() {
		e := &models.WatchlistEntry{}
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.RawgID, &e.GameName, &e.BackgroundImage,
			&e.ReleaseDate, &e.Platforms, &e.AddedAt, &e.Notify,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
