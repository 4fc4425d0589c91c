package handlers

import (
	"net/http"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type VisitHandler struct {
	Service *services.VisitService
}

func NewVisitHandler(s *services.VisitService) *VisitHandler {
	return &VisitHandler{Service: s}
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVisitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, err := h.Service.Create(r.Context(), &req, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusCreated, v)
}

func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	visits, err := h.Service.List(r.Context(), q.Get("search"), models.VisitStatus(q.Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.CheckIn(r.Context(), mux.Vars(r)["id"], timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, v)
}

func (h *VisitHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.CheckOut(r.Context(), mux.Vars(r)["id"], timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, v)
}

func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
