// Package rawg is the gateway to the upstream RAWG game catalog. It owns
// all network I/O against the catalog and hands back normalized records;
// nothing here touches local storage.
package rawg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/mpwrightt/Game-Release/internal/models"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Query describes one page request against the upstream catalog.
// Type picks the date window ("upcoming" or "recent"); a non-empty Search
// overrides it entirely, dropping dates and ordering so the upstream's own
// relevance ranking applies.
type Query struct {
	Type     string
	Platform string
	Search   string
	Page     int
	PageSize int
}

// Page is one page of normalized results.
type Page struct {
	Games   []*models.GameRecord `json:"games"`
	Count   int                  `json:"count"`
	Page    int                  `json:"page"`
	HasNext bool                 `json:"has_next"`
}

// platformIDs maps a platform bucket to the upstream platform identifiers
// it covers. PC: 4, PS5/PS4/PS3: 187,18,16, Xbox Series/One: 186,1,
// Switch: 7.
var platformIDs = map[string]string{
	"pc":          "4",
	"playstation": "187,18,16",
	"xbox":        "186,1",
	"nintendo":    "7",
}

type rawgPlatform struct {
	Platform struct {
		Name string `json:"name"`
	} `json:"platform"`
}

type rawgGenre struct {
	Name string `json:"name"`
}

type rawgGame struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Slug            string         `json:"slug"`
	BackgroundImage *string        `json:"background_image"`
	Released        string         `json:"released"`
	Metacritic      *int           `json:"metacritic"`
	Rating          *float64       `json:"rating"`
	Platforms       []rawgPlatform `json:"platforms"`
	Genres          []rawgGenre    `json:"genres"`
	DescriptionRaw  *string        `json:"description_raw"`
}

type rawgListResponse struct {
	Count   int        `json:"count"`
	Next    *string    `json:"next"`
	Results []rawgGame `json:"results"`
}

// Search fetches one page of games matching the query.
func (c *Client) Search(ctx context.Context, q Query) (*Page, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("RAWG API key not configured")
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	today := time.Now().Format("2006-01-02")
	switch q.Type {
	case "recent":
		thirtyDaysAgo := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
		params.Set("dates", thirtyDaysAgo+","+today)
		params.Set("ordering", "-released")
	default: // upcoming
		oneYearOut := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
		params.Set("dates", today+","+oneYearOut)
		params.Set("ordering", "released")
	}

	if ids, ok := platformIDs[strings.ToLower(q.Platform)]; ok {
		params.Set("platforms", ids)
	}

	if q.Search != "" {
		// Fuzzy search handles abbreviations like "GTA" better than exact
		// matching; date and ordering constraints would fight the upstream
		// relevance ranking, so they go.
		params.Set("search", q.Search)
		params.Del("ordering")
		params.Del("dates")
	}

	body, err := c.get(ctx, c.baseURL+"/games?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp rawgListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse RAWG response: %w", err)
	}

	result := &Page{
		Count:   resp.Count,
		Page:    page,
		HasNext: resp.Next != nil,
		Games:   make([]*models.GameRecord, 0, len(resp.Results)),
	}
	for i := range resp.Results {
		result.Games = append(result.Games, normalize(&resp.Results[i]))
	}
	return result, nil
}

// GetGame fetches a single game by upstream id or slug. An upstream 404
// comes back as models.ErrNotFound.
func (c *Client) GetGame(ctx context.Context, idOrSlug string) (*models.GameRecord, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("RAWG API key not configured")
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/games/%s?key=%s", c.baseURL, url.PathEscape(idOrSlug), c.apiKey))
	if err != nil {
		return nil, err
	}

	var g rawgGame
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("parse RAWG response: %w", err)
	}
	return normalize(&g), nil
}

// get performs the request, retrying upstream rate limits with exponential
// backoff before giving up.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var resp *http.Response
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("RAWG request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		select {
		case <-time.After(time.Duration(2<<uint(attempt)) * time.Second):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, models.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("RAWG API error: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func normalize(g *rawgGame) *models.GameRecord {
	rec := &models.GameRecord{
		RawgID:          g.ID,
		Name:            g.Name,
		Slug:            g.Slug,
		BackgroundImage: g.BackgroundImage,
		Metacritic:      g.Metacritic,
		Rating:          g.Rating,
		Description:     g.DescriptionRaw,
		Platforms:       make(pq.StringArray, 0, len(g.Platforms)),
		Genres:          make(pq.StringArray, 0, len(g.Genres)),
	}
	if g.Released != "" {
		released := g.Released
		rec.ReleaseDate = &released
	}
	for _, p := range g.Platforms {
		rec.Platforms = append(rec.Platforms, p.Platform.Name)
	}
	for _, ge := range g.Genres {
		rec.Genres = append(rec.Genres, ge.Name)
	}
	return rec
}
