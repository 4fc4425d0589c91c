package handlers

import (
	"context"
	"net/http"
	"time"

	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"
)

type BackupHandler struct {
	Service *services.BackupService
}

func NewBackupHandler(s *services.BackupService) *BackupHandler {
	return &BackupHandler{Service: s}
}

func (h *BackupHandler) available(w http.ResponseWriter) bool {
	if h.Service == nil {
		utils.Error(w, http.StatusServiceUnavailable, "Backups are not configured")
		return false
	}
	return true
}

// Backup handles POST /api/admin/backup
func (h *BackupHandler) Backup(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	key, err := h.Service.Backup(ctx, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusCreated, map[string]string{"key": key})
}

// List handles GET /api/admin/backups
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	backups, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, backups)
}

// Restore handles POST /api/admin/restore with an optional {"key": "..."}
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var req struct {
		Key string `json:"key"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	key, err := h.Service.Restore(ctx, req.Key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"restored": key})
}
