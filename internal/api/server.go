package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/mpwrightt/Game-Release/internal/auth"
	"github.com/mpwrightt/Game-Release/internal/config"
	"github.com/mpwrightt/Game-Release/internal/db"
	"github.com/mpwrightt/Game-Release/internal/httputil"
	"github.com/mpwrightt/Game-Release/internal/jobs"
	"github.com/mpwrightt/Game-Release/internal/rawg"
	"github.com/mpwrightt/Game-Release/internal/repository"
)

type contextKey string

const contextUser contextKey = "user"

type ContextUserData struct {
	UserID  string
	IsAdmin bool
}

type Server struct {
	config       *config.Config
	db           *db.DB
	gameRepo     *repository.GameRepository
	watchRepo    *repository.WatchlistRepository
	userRepo     *repository.UserRepository
	sessionRepo  *repository.SessionRepository
	settingsRepo *repository.SettingsRepository
	rawgClient   *rawg.Client
	jobQueue     *jobs.Queue
	wsHub        *WSHub
	router       *http.ServeMux
}

func NewServer(cfg *config.Config, database *db.DB, jobQueue *jobs.Queue) *Server {
	s := &Server{
		config:       cfg,
		db:           database,
		gameRepo:     repository.NewGameRepository(database.DB),
		watchRepo:    repository.NewWatchlistRepository(database.DB),
		userRepo:     repository.NewUserRepository(database.DB),
		sessionRepo:  repository.NewSessionRepository(database.DB),
		settingsRepo: repository.NewSettingsRepository(database.DB),
		rawgClient:   rawg.NewClient(cfg.RAWGBaseURL, cfg.RAWGAPIKey),
		jobQueue:     jobQueue,
		wsHub:        NewWSHub(),
		router:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) GameRepo() *repository.GameRepository {
	return s.gameRepo
}

func (s *Server) RAWGClient() *rawg.Client {
	return s.rawgClient
}

func (s *Server) setupRoutes() {
	// Public
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.router.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/logout", s.requireAuth(s.handleLogout))

	// Catalog (public reads; search is read-through to the gateway)
	s.router.HandleFunc("GET /api/v1/games", s.handleListGames)
	s.router.HandleFunc("GET /api/v1/games/upcoming", s.handleUpcomingGames)
	s.router.HandleFunc("GET /api/v1/games/recent", s.handleRecentGames)
	s.router.HandleFunc("GET /api/v1/games/search", s.handleSearchGames)
	s.router.HandleFunc("GET /api/v1/games/slug/{slug}", s.handleGetGameBySlug)
	s.router.HandleFunc("GET /api/v1/games/{rawgId}", s.handleGetGame)
	s.router.HandleFunc("POST /api/v1/catalog/refresh", s.requireAdmin(s.handleRefreshCatalog))

	// Watchlist: reads resolve the owner if a session is present but never
	// reject the call; writes demand one.
	s.router.HandleFunc("GET /api/v1/watchlist", s.handleWatchlist)
	s.router.HandleFunc("GET /api/v1/watchlist/by-release-date", s.handleWatchlistByRelease)
	s.router.HandleFunc("GET /api/v1/watchlist/count", s.handleWatchlistCount)
	s.router.HandleFunc("GET /api/v1/watchlist/{rawgId}/member", s.handleWatchlistMember)
	s.router.HandleFunc("POST /api/v1/watchlist", s.requireAuth(s.handleAddWatchlist))
	s.router.HandleFunc("DELETE /api/v1/watchlist/{rawgId}", s.requireAuth(s.handleRemoveWatchlist))
	s.router.HandleFunc("POST /api/v1/watchlist/{rawgId}/notify", s.requireAuth(s.handleToggleNotify))

	// WebSocket event stream
	s.router.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	// Admin settings
	s.router.HandleFunc("GET /api/v1/admin/settings", s.requireAdmin(s.handleGetSettings))
	s.router.HandleFunc("PUT /api/v1/admin/settings", s.requireAdmin(s.handleSetSetting))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.securityHeaders(s.cors(s.router)).ServeHTTP(w, r)
}

// ──────────────────── Middleware ────────────────────

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.resolveUser(r)
		if user == nil {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), contextUser, *user)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if user := UserFromContext(r.Context()); user == nil || !user.IsAdmin {
			httputil.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}
		next(w, r)
	})
}

// resolveUser validates the caller's session token if one was sent.
// Returns nil for missing, unknown, or expired tokens; expired sessions
// are reaped on the way out.
func (s *Server) resolveUser(r *http.Request) *ContextUserData {
	token := extractToken(r)
	if token == "" {
		return nil
	}

	session, err := s.sessionRepo.Get(token)
	if err != nil || session == nil {
		return nil
	}
	if auth.IsTokenExpired(session.ExpiresAt) {
		s.sessionRepo.Delete(token)
		return nil
	}
	return &ContextUserData{UserID: session.UserID, IsAdmin: session.IsAdmin}
}

// resolveOwner returns the caller's opaque owner identity, or "" when the
// caller is unauthenticated. Watchlist reads pass the empty identity
// straight through to the store, which answers them with empty results.
func (s *Server) resolveOwner(r *http.Request) string {
	if user := s.resolveUser(r); user != nil {
		return user.UserID
	}
	return ""
}

func UserFromContext(ctx context.Context) *ContextUserData {
	if v, ok := ctx.Value(contextUser).(ContextUserData); ok {
		return &v
	}
	return nil
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
