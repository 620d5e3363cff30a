package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/mpwrightt/Game-Release/internal/config"
	"github.com/mpwrightt/Game-Release/internal/rawg"
	"github.com/mpwrightt/Game-Release/internal/repository"
)

// EventNotifier pushes task events to connected clients.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Catalog Refresh Handler ────────

// CatalogRefreshHandler re-mirrors the upcoming and recently released
// windows of the upstream catalog into the local cache. The mirror is
// best-effort and partial: a failed page or record is logged and skipped,
// never fatal to the rest of the run.
type CatalogRefreshHandler struct {
	gameRepo *repository.GameRepository
	client   *rawg.Client
	cfg      *config.Config
	notifier EventNotifier
}

func NewCatalogRefreshHandler(gameRepo *repository.GameRepository, client *rawg.Client,
	cfg *config.Config, notifier EventNotifier) *CatalogRefreshHandler {
	return &CatalogRefreshHandler{gameRepo: gameRepo, client: client, cfg: cfg, notifier: notifier}
}

func (h *CatalogRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	pages := h.cfg.RefreshPages
	if pages < 1 {
		pages = 1
	}

	total := 0
	for _, window := range []string{"upcoming", "recent"} {
		for page := 1; page <= pages; page++ {
			result, err := h.client.Search(ctx, rawg.Query{Type: window, Page: page, PageSize: 40})
			if err != nil {
				log.Printf("Refresh: fetch %s page %d: %v", window, page, err)
				break
			}

			if _, err := h.gameRepo.BulkUpsert(result.Games); err != nil {
				log.Printf("Refresh: upsert %s page %d: %v", window, page, err)
			}
			total += len(result.Games)

			if !result.HasNext {
				break
			}
		}
	}

	log.Printf("Refresh: mirrored %d records", total)
	if h.notifier != nil {
		h.notifier.Broadcast("catalog:refreshed", map[string]interface{}{
			"records": total,
		})
	}
	return nil
}

// ──────── Single Game Refresh Handler ────────

// GameRefreshHandler re-fetches one game by upstream id, picking up the
// full detail shape (description included) that list pages omit.
type GameRefreshHandler struct {
	gameRepo *repository.GameRepository
	client   *rawg.Client
}

func NewGameRefreshHandler(gameRepo *repository.GameRepository, client *rawg.Client) *GameRefreshHandler {
	return &GameRefreshHandler{gameRepo: gameRepo, client: client}
}

func (h *GameRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		RawgID int64 `json:"rawg_id"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	game, err := h.client.GetGame(ctx, strconv.FormatInt(payload.RawgID, 10))
	if err != nil {
		return fmt.Errorf("fetch game %d: %w", payload.RawgID, err)
	}

	if err := h.gameRepo.Upsert(game); err != nil {
		return fmt.Errorf("upsert game %d: %w", payload.RawgID, err)
	}

	log.Printf("Refresh: updated %q (%d)", game.Name, game.RawgID)
	return nil
}
