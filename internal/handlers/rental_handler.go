package handlers

import (
	"net/http"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type RentalHandler struct {
	Service *services.RentalService
}

func NewRentalHandler(s *services.RentalService) *RentalHandler {
	return &RentalHandler{Service: s}
}

func (h *RentalHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRentalMachineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.Service.Register(r.Context(), &req, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusCreated, m)
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	machines, err := h.Service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, machines)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, m)
}

func (h *RentalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentalHandler) Start(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Start(r.Context(), mux.Vars(r)["id"], timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, m)
}

func (h *RentalHandler) Stop(w http.ResponseWriter, r *http.Request) {
	m, session, err := h.Service.Stop(r.Context(), mux.Vars(r)["id"], timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, services.RentalScanResult{
		Action:  services.RentalActionStop,
		Machine: *m,
		Session: session,
	})
}

func (h *RentalHandler) Offline(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.SetOffline(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, m)
}

func (h *RentalHandler) Idle(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.SetIdle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, m)
}

// Scan toggles the machine on the label
func (h *RentalHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.RentalScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.Service.RegisterScan(r.Context(), req.Token, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, res)
}

// Live is display-only and commits nothing
func (h *RentalHandler) Live(w http.ResponseWriter, r *http.Request) {
	live, err := h.Service.LiveSnapshot(r.Context(), timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, live)
}

func (h *RentalHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	period, from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sessions, err := h.Service.SessionsInPeriod(r.Context(), period, from, to, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, sessions)
}

func (h *RentalHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	period, from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summaries, err := h.Service.Summaries(r.Context(), period, from, to, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, summaries)
}
