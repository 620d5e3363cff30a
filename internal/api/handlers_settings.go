package api

import (
	"net/http"

	"github.com/mpwrightt/Game-Release/internal/httputil"
)

type SetSettingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsRepo.GetAll()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to load settings")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req SetSettingRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.Key == "" {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "key and value are required")
		return
	}
	if err := s.settingsRepo.Set(req.Key, req.Value); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "failed to save setting")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{req.Key: req.Value})
}
