package handlers

import (
	"net/http"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type AttendanceHandler struct {
	Service *services.AttendanceService
}

func NewAttendanceHandler(s *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{Service: s}
}

// Scan registers the entrance or exit of the card holder
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.AttendanceScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.Service.RegisterScan(r.Context(), req.Token, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusCreated, rec)
}

func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListToday(r.Context(), timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

// ByEmployee returns the latest records and presence of one employee
func (h *AttendanceHandler) ByEmployee(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	records, err := h.Service.ListByEmployee(r.Context(), id, queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, r, err)
		return
	}
	state, err := h.Service.CurrentState(r.Context(), id, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"employeeId": id,
		"state":      state,
		"records":    records,
	})
}
