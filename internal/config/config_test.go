package config

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api.rawg.io/api", cfg.RAWGBaseURL)
	assert.Equal(t, "@every 6h", cfg.RefreshSchedule)
	assert.Equal(t, 168, cfg.SessionTTLHours)
	assert.Equal(t, 2, cfg.RefreshPages)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RAWG_API_KEY", "secret")
	t.Setenv("REFRESH_PAGES", "5")

	cfg := Load()
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "secret", cfg.RAWGAPIKey)
	assert.Equal(t, 5, cfg.RefreshPages)
}

func TestLoadIgnoresMalformedInts(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
}

func TestMergeFromDBOverlaysKnownKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT key, value FROM settings").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("rawg_api_key", "db-key").
			AddRow("refresh_pages", "4").
			AddRow("refresh_pages_bogus", "ignored").
			AddRow("session_ttl_hours", "not-a-number"))

	cfg := &Config{RAWGAPIKey: "env-key", RefreshPages: 2, SessionTTLHours: 168}
	cfg.MergeFromDB(db)

	assert.Equal(t, "db-key", cfg.RAWGAPIKey)
	assert.Equal(t, 4, cfg.RefreshPages)
	assert.Equal(t, 168, cfg.SessionTTLHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A fresh install has no settings table yet; the merge must not fail the
// boot sequence.
func TestMergeFromDBToleratesMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT key, value FROM settings").
		WillReturnError(assert.AnError)

	cfg := &Config{RAWGAPIKey: "env-key"}
	cfg.MergeFromDB(db)
	assert.Equal(t, "env-key", cfg.RAWGAPIKey)
}
