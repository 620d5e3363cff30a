package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/mpwrightt/Game-Release/internal/countdown"
	"github.com/mpwrightt/Game-Release/internal/httputil"
	"github.com/mpwrightt/Game-Release/internal/models"
)

type AddWatchlistRequest struct {
	RawgID          int64    `json:"rawg_id"`
	GameName        string   `json:"game_name"`
	BackgroundImage *string  `json:"background_image,omitempty"`
	ReleaseDate     *string  `json:"release_date,omitempty"`
	Platforms       []string `json:"platforms,omitempty"`
	Notify          *bool    `json:"notify,omitempty"`
}

// watchlistItem pairs an entry with its countdown, computed at response
// time. Clients re-derive the ticking remainder locally; this snapshot
// seeds their first render.
type watchlistItem struct {
	*models.WatchlistEntry
	Countdown countdown.State `json:"countdown"`
}

func withCountdowns(entries []*models.WatchlistEntry) []watchlistItem {
	now := time.Now()
	items := make([]watchlistItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, watchlistItem{e, countdown.Until(e.ReleaseDate, now)})
	}
	return items
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.watchRepo.ListByOwner(s.resolveOwner(r))
	if err != nil {
		log.Printf("API: list watchlist: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to list watchlist")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withCountdowns(entries))
}

func (s *Server) handleWatchlistByRelease(w http.ResponseWriter, r *http.Request) {
	part, err := s.watchRepo.ByReleaseDate(s.resolveOwner(r))
	if err != nil {
		log.Printf("API: partition watchlist: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to partition watchlist")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]watchlistItem{
		"upcoming": withCountdowns(part.Upcoming),
		"released": withCountdowns(part.Released),
	})
}

func (s *Server) handleWatchlistCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.watchRepo.Count(s.resolveOwner(r))
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to count watchlist")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleWatchlistMember(w http.ResponseWriter, r *http.Request) {
	rawgID, err := strconv.ParseInt(r.PathValue("rawgId"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid game id")
		return
	}
	member, err := s.watchRepo.IsMember(s.resolveOwner(r), rawgID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to check watchlist")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"member": member})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req AddWatchlistRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.RawgID == 0 || req.GameName == "" {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "rawg_id and game_name are required")
		return
	}

	notify := true
	if req.Notify != nil {
		notify = *req.Notify
	}

	owner := UserFromContext(r.Context()).UserID
	entry := &models.WatchlistEntry{
		RawgID:          req.RawgID,
		GameName:        req.GameName,
		BackgroundImage: req.BackgroundImage,
		ReleaseDate:     req.ReleaseDate,
		Platforms:       pq.StringArray(req.Platforms),
		Notify:          notify,
	}
	created, err := s.watchRepo.Add(owner, entry)
	if err != nil {
		if err == models.ErrUnauthenticated {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		log.Printf("API: add watchlist entry: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to add to watchlist")
		return
	}

	// A duplicate add changed nothing, so no event goes out and the
	// existing entry comes back as 200 instead of 201.
	status := http.StatusOK
	if created {
		s.wsHub.BroadcastTo(owner, "watchlist:add", entry)
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, watchlistItem{entry, countdown.Until(entry.ReleaseDate, time.Now())})
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	rawgID, err := strconv.ParseInt(r.PathValue("rawgId"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid game id")
		return
	}

	owner := UserFromContext(r.Context()).UserID
	removed, err := s.watchRepo.Remove(owner, rawgID)
	if err != nil {
		log.Printf("API: remove watchlist entry: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to remove from watchlist")
		return
	}

	if removed {
		s.wsHub.BroadcastTo(owner, "watchlist:remove", map[string]int64{"rawg_id": rawgID})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleToggleNotify(w http.ResponseWriter, r *http.Request) {
	rawgID, err := strconv.ParseInt(r.PathValue("rawgId"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid game id")
		return
	}

	owner := UserFromContext(r.Context()).UserID
	notify, err := s.watchRepo.ToggleNotify(owner, rawgID)
	if err != nil {
		log.Printf("API: toggle notify: %v", err)
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to toggle notification")
		return
	}

	s.wsHub.BroadcastTo(owner, "watchlist:notify", map[string]interface{}{
		"rawg_id": rawgID, "notify": notify,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"notify": notify})
}
