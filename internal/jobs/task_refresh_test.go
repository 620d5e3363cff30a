package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpwrightt/Game-Release/internal/config"
	"github.com/mpwrightt/Game-Release/internal/rawg"
	"github.com/mpwrightt/Game-Release/internal/repository"
)

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Broadcast(event string, data interface{}) {
	n.events = append(n.events, event)
}

func upsertReturn() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "last_updated"}).AddRow(uuid.New().String(), time.Now())
}

func TestCatalogRefreshMirrorsBothWindows(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// One record per window, no further pages.
		w.Write([]byte(`{"count": 1, "results": [{"id": 1, "name": "Nova", "slug": "nova"}]}`))
	}))
	defer upstream.Close()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectQuery("INSERT INTO games").WillReturnRows(upsertReturn())
	mock.ExpectQuery("INSERT INTO games").WillReturnRows(upsertReturn())

	notifier := &recordingNotifier{}
	h := NewCatalogRefreshHandler(
		repository.NewGameRepository(sqlDB),
		rawg.NewClient(upstream.URL, "test-key"),
		&config.Config{RefreshPages: 3},
		notifier,
	)

	err = h.ProcessTask(context.Background(), asynq.NewTask(TaskCatalogRefresh, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog:refreshed"}, notifier.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failing upsert is logged and skipped; the refresh still completes.
func TestCatalogRefreshSurvivesUpsertFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 1, "results": [{"id": 1, "name": "Nova", "slug": "nova"}]}`))
	}))
	defer upstream.Close()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectQuery("INSERT INTO games").WillReturnError(assert.AnError)
	mock.ExpectQuery("INSERT INTO games").WillReturnRows(upsertReturn())

	h := NewCatalogRefreshHandler(
		repository.NewGameRepository(sqlDB),
		rawg.NewClient(upstream.URL, "test-key"),
		&config.Config{RefreshPages: 1},
		nil,
	)

	err = h.ProcessTask(context.Background(), asynq.NewTask(TaskCatalogRefresh, nil))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameRefreshFetchesDetail(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/100", r.URL.Path)
		w.Write([]byte(`{"id": 100, "name": "Nova", "slug": "nova", "description_raw": "Full detail."}`))
	}))
	defer upstream.Close()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	mock.ExpectQuery("INSERT INTO games").
		WithArgs(sqlmock.AnyArg(), int64(100), "Nova", "nova", nil, nil,
			nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), "Full detail.").
		WillReturnRows(upsertReturn())

	h := NewGameRefreshHandler(
		repository.NewGameRepository(sqlDB),
		rawg.NewClient(upstream.URL, "test-key"),
	)

	task := asynq.NewTask(TaskGameRefresh, []byte(`{"rawg_id": 100}`))
	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameRefreshRejectsMalformedPayload(t *testing.T) {
	h := NewGameRefreshHandler(nil, nil)
	task := asynq.NewTask(TaskGameRefresh, []byte(`not json`))
	assert.Error(t, h.ProcessTask(context.Background(), task))
}
