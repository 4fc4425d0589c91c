package handlers

import (
	"net/http"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type SafetyHandler struct {
	Service *services.SafetyService
}

func NewSafetyHandler(s *services.SafetyService) *SafetyHandler {
	return &SafetyHandler{Service: s}
}

func (h *SafetyHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	var req models.DeliverSafetyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.Service.Deliver(r.Context(), &req, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusCreated, item)
}

func (h *SafetyHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), r.URL.Query().Get("employeeId"), timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, items)
}

func (h *SafetyHandler) Return(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Return(r.Context(), mux.Vars(r)["id"], timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, item)
}

func (h *SafetyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SafetyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context(), timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}

func (h *SafetyHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	token, err := h.Service.QRToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, r, token)
}
