package handlers

import (
	"net/http"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"
)

type LoanHandler struct {
	Service *services.LoanService
}

func NewLoanHandler(s *services.LoanService) *LoanHandler {
	return &LoanHandler{Service: s}
}

// Scan lends or returns the equipment. The employee card is only needed to lend.
func (h *LoanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req models.LoanScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var employee *qrcode.Ref
	if req.EmployeeToken != "" {
		var err error
		if employee, err = services.EmployeeFromToken(req.EmployeeToken); err != nil {
			writeError(w, r, err)
			return
		}
	}

	res, err := h.Service.RegisterScan(r.Context(), employee, req.EquipmentToken, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, res)
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListRecords(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

func (h *LoanHandler) Open(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListOpen(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

func (h *LoanHandler) Equipment(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListEquipment(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *LoanHandler) AddEquipment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEquipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	eq, err := h.Service.AddEquipment(r.Context(), &req, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusCreated, eq)
}
