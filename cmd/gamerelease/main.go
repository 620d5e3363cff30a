package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mpwrightt/Game-Release/internal/api"
	"github.com/mpwrightt/Game-Release/internal/config"
	"github.com/mpwrightt/Game-Release/internal/db"
	"github.com/mpwrightt/Game-Release/internal/jobs"
	"github.com/mpwrightt/Game-Release/internal/repository"
	"github.com/mpwrightt/Game-Release/internal/scheduler"
	"github.com/mpwrightt/Game-Release/internal/version"
)

func main() {
	ver := version.Load()
	log.Printf("Game Release Tracker %s starting...", ver.Version)

	cfg := config.Load()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)
	if cfg.RAWGAPIKey == "" {
		log.Println("warning: RAWG_API_KEY not set, catalog refresh and search are disabled")
	}

	jobQueue := jobs.NewQueue(cfg.RedisAddr)
	srv := api.NewServer(cfg, database, jobQueue)

	gameRepo := repository.NewGameRepository(database.DB)
	jobQueue.RegisterHandler(jobs.TaskCatalogRefresh,
		jobs.NewCatalogRefreshHandler(gameRepo, srv.RAWGClient(), cfg, srv.WSHub()))
	jobQueue.RegisterHandler(jobs.TaskGameRefresh,
		jobs.NewGameRefreshHandler(gameRepo, srv.RAWGClient()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := jobQueue.Start(ctx); err != nil {
		log.Fatalf("job queue failed to start: %v", err)
	}

	sched := scheduler.New(jobQueue, cfg.RefreshSchedule)
	if err := sched.Start(); err != nil {
		log.Fatalf("scheduler failed to start: %v", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	sched.Stop()
	jobQueue.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}
