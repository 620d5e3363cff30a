package repository

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpwrightt/Game-Release/internal/models"
)

var gameCols = []string{
	"id", "rawg_id", "name", "slug", "background_image", "release_date",
	"metacritic", "rating", "platforms", "genres", "description", "last_updated",
}

func gameRow(id uuid.UUID, rawgID int64, name, slug string, releaseDate interface{}, platforms string) []driverValue {
	return []driverValue{
		id.String(), rawgID, name, slug, nil, releaseDate,
		nil, nil, platforms, "{}", nil, time.Now(),
	}
}

type driverValue = driver.Value

func newGameRepo(t *testing.T) (*GameRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGameRepository(db), mock
}

func TestUpsertAssignsIdentity(t *testing.T) {
	repo, mock := newGameRepo(t)

	stored := uuid.New()
	mock.ExpectQuery("INSERT INTO games").
		WithArgs(sqlmock.AnyArg(), int64(100), "Nova", "nova", nil, "2026-03-01",
			nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_updated"}).
			AddRow(stored.String(), time.Now()))

	date := "2026-03-01"
	g := &models.GameRecord{RawgID: 100, Name: "Nova", Slug: "nova", ReleaseDate: &date}
	require.NoError(t, repo.Upsert(g))
	assert.Equal(t, stored, g.ID)
	assert.False(t, g.LastUpdated.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo, mock := newGameRepo(t)

	stored := uuid.New()
	for range 2 {
		mock.ExpectQuery("INSERT INTO games").
			WillReturnRows(sqlmock.NewRows([]string{"id", "last_updated"}).
				AddRow(stored.String(), time.Now()))
	}

	first := &models.GameRecord{RawgID: 100, Name: "Nova", Slug: "nova"}
	require.NoError(t, repo.Upsert(first))

	second := &models.GameRecord{RawgID: 100, Name: "Nova", Slug: "nova"}
	require.NoError(t, repo.Upsert(second))

	assert.Equal(t, first.ID, second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsertContinuesPastFailures(t *testing.T) {
	repo, mock := newGameRepo(t)

	first := uuid.New()
	third := uuid.New()
	mock.ExpectQuery("INSERT INTO games").
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_updated"}).AddRow(first.String(), time.Now()))
	mock.ExpectQuery("INSERT INTO games").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery("INSERT INTO games").
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_updated"}).AddRow(third.String(), time.Now()))

	ids, err := repo.BulkUpsert([]*models.GameRecord{
		{RawgID: 1, Name: "A", Slug: "a"},
		{RawgID: 2, Name: "B", Slug: "b"},
		{RawgID: 3, Name: "C", Slug: "c"},
	})

	require.Error(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, first, ids[0])
	assert.Equal(t, uuid.Nil, ids[1])
	assert.Equal(t, third, ids[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersPlatformCaseInsensitively(t *testing.T) {
	repo, mock := newGameRepo(t)

	rows := sqlmock.NewRows(gameCols).
		AddRow(gameRow(uuid.New(), 1, "Nova", "nova", nil, "{PlayStation 5,PC}")...).
		AddRow(gameRow(uuid.New(), 2, "Drift", "drift", nil, "{Nintendo Switch}")...).
		AddRow(gameRow(uuid.New(), 3, "Echo", "echo", nil, "{PlayStation 4}")...)
	mock.ExpectQuery("SELECT (.+) FROM games ORDER BY last_updated DESC").
		WithArgs(50).
		WillReturnRows(rows)

	games, err := repo.List("playstation", 0)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Nova", games[0].Name)
	assert.Equal(t, "Echo", games[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpcomingCapsAfterFiltering(t *testing.T) {
	repo, mock := newGameRepo(t)

	rows := sqlmock.NewRows(gameCols)
	for i := int64(1); i <= 3; i++ {
		rows.AddRow(gameRow(uuid.New(), i, "Game", "game", "2099-01-01", "{PC}")...)
	}
	mock.ExpectQuery("SELECT (.+) FROM games WHERE release_date >= CURRENT_DATE").
		WithArgs(releaseScanWindow).
		WillReturnRows(rows)

	games, err := repo.Upcoming("pc", 2)
	require.NoError(t, err)
	assert.Len(t, games, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentlyReleasedDefaultsLimit(t *testing.T) {
	repo, mock := newGameRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM games WHERE release_date <= CURRENT_DATE").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(gameCols).
			AddRow(gameRow(uuid.New(), 9, "Out Now", "out-now", "2026-01-10", "{PC}")...))

	games, err := repo.RecentlyReleased(0)
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.NotNil(t, games[0].ReleaseDate)
	assert.Equal(t, "2026-01-10", *games[0].ReleaseDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySlugAbsentIsNotAnError(t *testing.T) {
	repo, mock := newGameRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM games WHERE slug").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(gameCols))

	game, err := repo.GetBySlug("missing")
	require.NoError(t, err)
	assert.Nil(t, game)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByRawgIDScansArrays(t *testing.T) {
	repo, mock := newGameRepo(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM games WHERE rawg_id").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(gameCols).
			AddRow(gameRow(id, 100, "Nova", "nova", "2026-03-01", "{PlayStation 5,PC}")...))

	game, err := repo.GetByRawgID(100)
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, id, game.ID)
	assert.Equal(t, pq.StringArray{"PlayStation 5", "PC"}, game.Platforms)
	assert.NoError(t, mock.ExpectationsWereMet())
}
