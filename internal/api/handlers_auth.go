package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpwrightt/Game-Release/internal/auth"
	"github.com/mpwrightt/Game-Release/internal/httputil"
	"github.com/mpwrightt/Game-Release/internal/models"
	"github.com/mpwrightt/Game-Release/internal/version"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":    version.Load().Version,
		"ws_clients": s.wsHub.ClientCount(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "username and email are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err == auth.ErrWeakPassword {
		httputil.WriteError(w, http.StatusBadRequest, "WEAK_PASSWORD", "password does not meet requirements")
		return
	}
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to hash password")
		return
	}

	// First account on a fresh install becomes the admin.
	admins, err := s.userRepo.CountAdmins()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to create user")
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		IsAdmin:      admins == 0,
	}
	if err := s.userRepo.Create(user); err != nil {
		log.Printf("API: create user %q: %v", req.Username, err)
		httputil.WriteError(w, http.StatusConflict, "USER_EXISTS", "username or email already taken")
		return
	}

	user.PasswordHash = ""
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := s.userRepo.GetByUsername(req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create session")
		return
	}

	session := &models.Session{
		Token:     token,
		UserID:    user.ID.String(),
		IsAdmin:   user.IsAdmin,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionTTLHours) * time.Hour).Unix(),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to create session")
		return
	}

	user.PasswordHash = ""
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := extractToken(r); token != "" {
		if err := s.sessionRepo.Delete(token); err != nil {
			log.Printf("API: delete session: %v", err)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
