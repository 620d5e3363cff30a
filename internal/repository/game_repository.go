package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mpwrightt/Game-Release/internal/models"
)

// releaseScanWindow bounds how many release-date-ordered rows the upcoming
// and recently-released queries examine before in-process filtering. Large
// catalogs may undercount past this bound; tune rather than remove.
const releaseScanWindow = 200

const (
	defaultListLimit   = 50
	defaultRecentLimit = 20
)

const gameColumns = `id, rawg_id, name, slug, background_image, release_date::text,
	       metacritic, rating, platforms, genres, description, last_updated`

type GameRepository struct {
	db *sql.DB
}

func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{db: db}
}

// Upsert inserts the record or replaces the mutable fields of the existing
// row with the same rawg_id, stamping last_updated either way. The row id
// and timestamp are written back into g. Re-upserting identical data is a
// harmless overwrite, not an error.
//
// Description survives upserts that omit it: list-shaped payloads from the
// catalog gateway carry no description, and a refresh must not erase the
// one fetched from the detail endpoint.
func (r *GameRepository) Upsert(g *models.GameRecord) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Platforms == nil {
		g.Platforms = pq.StringArray{}
	}
	if g.Genres == nil {
		g.Genres = pq.StringArray{}
	}
	query := `
		INSERT INTO games (id, rawg_id, name, slug, background_image, release_date,
		                   metacritic, rating, platforms, genres, description, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (rawg_id) DO UPDATE SET
		    name = EXCLUDED.name,
		    slug = EXCLUDED.slug,
		    background_image = EXCLUDED.background_image,
		    release_date = EXCLUDED.release_date,
		    metacritic = EXCLUDED.metacritic,
		    rating = EXCLUDED.rating,
		    platforms = EXCLUDED.platforms,
		    genres = EXCLUDED.genres,
		    description = COALESCE(EXCLUDED.description, games.description),
		    last_updated = NOW()
		RETURNING id, last_updated`
	err := r.db.QueryRow(query, g.ID, g.RawgID, g.Name, g.Slug, g.BackgroundImage,
		g.ReleaseDate, g.Metacritic, g.Rating, g.Platforms, g.Genres, g.Description).
		Scan(&g.ID, &g.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert game %d: %w", g.RawgID, err)
	}
	return nil
}

// BulkUpsert applies Upsert to each record in input order. Records are
// processed independently: a failure on one never stops the rest. The
// returned ids line up with the input; failed slots hold uuid.Nil and the
// per-record errors come back joined.
func (r *GameRepository) BulkUpsert(games []*models.GameRecord) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(games))
	var errs []error
	for i, g := range games {
		if err := r.Upsert(g); err != nil {
			errs = append(errs, err)
			continue
		}
		ids[i] = g.ID
	}
	return ids, errors.Join(errs...)
}

// List returns cached games by write recency, newest first. A non-empty
// platform filters the fetched page to games whose platform set has a
// case-insensitive substring match, so the result may come up short of
// limit.
func (r *GameRepository) List(platform string, limit int) ([]*models.GameRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.Query(`
		SELECT `+gameColumns+`
		FROM games
		ORDER BY last_updated DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	return filterByPlatform(games, platform), nil
}

// Upcoming returns games releasing today or later, soonest first. The scan
// examines at most releaseScanWindow rows off the release-date index before
// the platform filter and limit apply.
func (r *GameRepository) Upcoming(platform string, limit int) ([]*models.GameRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.Query(`
		SELECT `+gameColumns+`
		FROM games
		WHERE release_date >= CURRENT_DATE
		ORDER BY release_date ASC
		LIMIT $1`, releaseScanWindow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	games = filterByPlatform(games, platform)
	if len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// RecentlyReleased returns games released in the last 30 days, newest
// release first.
func (r *GameRepository) RecentlyReleased(limit int) ([]*models.GameRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := r.db.Query(`
		SELECT `+gameColumns+`
		FROM games
		WHERE release_date <= CURRENT_DATE AND release_date >= CURRENT_DATE - 30
		ORDER BY release_date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGames(rows)
}

// GetBySlug returns the cached game with the given slug, or nil when the
// cache has none. Absence is not an error.
func (r *GameRepository) GetBySlug(slug string) (*models.GameRecord, error) {
	return r.getOne(`SELECT `+gameColumns+` FROM games WHERE slug = $1`, slug)
}

// GetByRawgID returns the cached game with the given upstream id, or nil
// when the cache has none.
func (r *GameRepository) GetByRawgID(rawgID int64) (*models.GameRecord, error) {
	return r.getOne(`SELECT `+gameColumns+` FROM games WHERE rawg_id = $1`, rawgID)
}

func (r *GameRepository) getOne(query string, arg interface{}) (*models.GameRecord, error) {
	g := &models.GameRecord{}
	err := r.db.QueryRow(query, arg).Scan(
		&g.ID, &g.RawgID, &g.Name, &g.Slug, &g.BackgroundImage, &g.ReleaseDate,
		&g.Metacritic, &g.Rating, &g.Platforms, &g.Genres, &g.Description, &g.LastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

func scanGames(rows *sql.Rows) ([]*models.GameRecord, error) {
	var games []*models.GameRecord
	for rows.Next() {
		g := &models.GameRecord{}
		if err := rows.Scan(
			&g.ID, &g.RawgID, &g.Name, &g.Slug, &g.BackgroundImage, &g.ReleaseDate,
			&g.Metacritic, &g.Rating, &g.Platforms, &g.Genres, &g.Description, &g.LastUpdated,
		); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func filterByPlatform(games []*models.GameRecord, platform string) []*models.GameRecord {
	if platform == "" {
		return games
	}
	needle := strings.ToLower(platform)
	var out []*models.GameRecord
	for _, g := range games {
		for _, p := range g.Platforms {
			if strings.Contains(strings.ToLower(p), needle) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}
