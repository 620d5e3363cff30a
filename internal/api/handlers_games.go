package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/mpwrightt/Game-Release/internal/httputil"
	"github.com/mpwrightt/Game-Release/internal/jobs"
	"github.com/mpwrightt/Game-Release/internal/models"
	"github.com/mpwrightt/Game-Release/internal/rawg"
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.gameRepo.List(r.URL.Query().Get("platform"), queryInt(r, "limit", 0))
	if err != nil {
		log.Printf("API: list games: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list games")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, games)
}

func (s *Server) handleUpcomingGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.gameRepo.Upcoming(r.URL.Query().Get("platform"), queryInt(r, "limit", 0))
	if err != nil {
		log.Printf("API: upcoming games: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list upcoming games")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, games)
}

func (s *Server) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.gameRepo.RecentlyReleased(queryInt(r, "limit", 0))
	if err != nil {
		log.Printf("API: recent games: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list recent games")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, games)
}

// handleSearchGames reads through to the upstream catalog without touching
// the cache: search results are ephemeral and ranked by the upstream.
func (s *Server) handleSearchGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.rawgClient.Search(r.Context(), rawg.Query{
		Type:     q.Get("type"),
		Platform: q.Get("platform"),
		Search:   q.Get("search"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	})
	if err != nil {
		log.Printf("API: search games: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "failed to search upstream catalog")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetGameBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	game, err := s.gameRepo.GetBySlug(slug)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to look up game")
		return
	}
	if game == nil {
		game = s.fetchAndCache(w, r, slug)
		if game == nil {
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, game)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	rawgID, err := strconv.ParseInt(r.PathValue("rawgId"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid game id")
		return
	}

	game, err := s.gameRepo.GetByRawgID(rawgID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to look up game")
		return
	}
	if game == nil {
		game = s.fetchAndCache(w, r, strconv.FormatInt(rawgID, 10))
		if game == nil {
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, game)
}

// fetchAndCache fills a cache miss from the gateway and upserts the result.
// On failure it writes the error response and returns nil.
func (s *Server) fetchAndCache(w http.ResponseWriter, r *http.Request, idOrSlug string) *models.GameRecord {
	game, err := s.rawgClient.GetGame(r.Context(), idOrSlug)
	if err == models.ErrNotFound {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "game not found")
		return nil
	}
	if err != nil {
		log.Printf("API: fetch game %s: %v", idOrSlug, err)
		httputil.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "failed to fetch game")
		return nil
	}

	if err := s.gameRepo.Upsert(game); err != nil {
		log.Printf("API: cache game %s: %v", idOrSlug, err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to cache game")
		return nil
	}
	return game
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	id, err := s.jobQueue.EnqueueUnique(jobs.TaskCatalogRefresh, struct{}{}, jobs.TaskCatalogRefresh)
	if err != nil {
		log.Printf("API: enqueue refresh: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to enqueue refresh")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"task_id": id})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
