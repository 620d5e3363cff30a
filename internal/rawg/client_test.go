package rawg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpwrightt/Game-Release/internal/models"
)

const listBody = `{
	"count": 2,
	"next": "https://example.test/games?page=2",
	"results": [
		{
			"id": 100,
			"name": "Nova Drift",
			"slug": "nova-drift",
			"background_image": "https://img.test/nova.jpg",
			"released": "2026-03-01",
			"metacritic": 84,
			"rating": 4.2,
			"platforms": [
				{"platform": {"name": "PC"}},
				{"platform": {"name": "PlayStation 5"}}
			],
			"genres": [{"name": "Action"}]
		},
		{
			"id": 200,
			"name": "Unscheduled",
			"slug": "unscheduled",
			"released": ""
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *url.Values) {
	t.Helper()
	var captured url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key"), &captured
}

func TestSearchUpcomingWindow(t *testing.T) {
	client, params := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listBody))
	})

	page, err := client.Search(context.Background(), Query{Type: "upcoming", Platform: "PlayStation"})
	require.NoError(t, err)

	today := time.Now().Format("2006-01-02")
	oneYearOut := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	assert.Equal(t, "test-key", params.Get("key"))
	assert.Equal(t, today+","+oneYearOut, params.Get("dates"))
	assert.Equal(t, "released", params.Get("ordering"))
	assert.Equal(t, "187,18,16", params.Get("platforms"))
	assert.Equal(t, "1", params.Get("page"))
	assert.Equal(t, "20", params.Get("page_size"))

	assert.Equal(t, 2, page.Count)
	assert.True(t, page.HasNext)
	require.Len(t, page.Games, 2)

	g := page.Games[0]
	assert.Equal(t, int64(100), g.RawgID)
	assert.Equal(t, "nova-drift", g.Slug)
	require.NotNil(t, g.ReleaseDate)
	assert.Equal(t, "2026-03-01", *g.ReleaseDate)
	require.NotNil(t, g.Metacritic)
	assert.Equal(t, 84, *g.Metacritic)
	assert.Equal(t, pq.StringArray{"PC", "PlayStation 5"}, g.Platforms)
	assert.Equal(t, pq.StringArray{"Action"}, g.Genres)

	// Empty released string normalizes to no release date at all.
	assert.Nil(t, page.Games[1].ReleaseDate)
}

func TestSearchRecentWindow(t *testing.T) {
	client, params := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 0, "results": []}`))
	})

	_, err := client.Search(context.Background(), Query{Type: "recent"})
	require.NoError(t, err)

	today := time.Now().Format("2006-01-02")
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	assert.Equal(t, thirtyDaysAgo+","+today, params.Get("dates"))
	assert.Equal(t, "-released", params.Get("ordering"))
	assert.False(t, params.Has("platforms"))
}

func TestSearchFreeTextDropsWindow(t *testing.T) {
	client, params := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 0, "results": []}`))
	})

	_, err := client.Search(context.Background(), Query{Type: "upcoming", Search: "GTA"})
	require.NoError(t, err)

	assert.Equal(t, "GTA", params.Get("search"))
	assert.False(t, params.Has("dates"))
	assert.False(t, params.Has("ordering"))
}

func TestSearchRequiresAPIKey(t *testing.T) {
	client := NewClient("http://unused.test", "")
	_, err := client.Search(context.Background(), Query{})
	assert.Error(t, err)
}

func TestGetGameNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetGame(context.Background(), "no-such-game")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetGameNormalizesDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/nova-drift", r.URL.Path)
		w.Write([]byte(`{
			"id": 100,
			"name": "Nova Drift",
			"slug": "nova-drift",
			"released": "2026-03-01",
			"description_raw": "A drifting roguelike."
		}`))
	})

	g, err := client.GetGame(context.Background(), "nova-drift")
	require.NoError(t, err)
	require.NotNil(t, g.Description)
	assert.Equal(t, "A drifting roguelike.", *g.Description)
	assert.NotNil(t, g.Platforms)
	assert.Empty(t, g.Platforms)
}

func TestRateLimitRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for seconds")
	}

	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"count": 0, "results": []}`))
	})

	_, err := client.Search(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRateLimitHonorsContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, Query{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
