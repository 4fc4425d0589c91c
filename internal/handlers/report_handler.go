package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// Export handles GET /api/reports/{kind}/{format}
// kind: attendance|loans|rental|safety, format: csv|pdf
// Query params: period=today|week|month|custom, from, to
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, format := vars["kind"], vars["format"]
	if format != "csv" && format != "pdf" {
		utils.Error(w, http.StatusBadRequest, "format must be csv or pdf")
		return
	}

	period, from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	now := timeutil.Now()
	var data []byte
	switch kind + "/" + format {
	case "attendance/csv":
		data, err = h.Service.AttendanceCSV(ctx, period, from, to, now)
	case "attendance/pdf":
		data, err = h.Service.AttendancePDF(ctx, period, from, to, now)
	case "loans/csv":
		data, err = h.Service.LoansCSV(ctx, period, from, to, now)
	case "loans/pdf":
		data, err = h.Service.LoansPDF(ctx, period, from, to, now)
	case "rental/csv":
		data, err = h.Service.RentalCSV(ctx, period, from, to, now)
	case "rental/pdf":
		data, err = h.Service.RentalPDF(ctx, period, from, to, now)
	case "safety/csv":
		data, err = h.Service.SafetyCSV(ctx, now)
	case "safety/pdf":
		data, err = h.Service.SafetyPDF(ctx, now)
	default:
		utils.Error(w, http.StatusNotFound, "unknown report "+kind)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	filename := fmt.Sprintf("tecnobra_%s_%s.%s", kind, now.Format(timeutil.DateLayout), format)
	utils.Download(w, contentType, filename, data)
}

// Stats handles GET /api/reports/stats
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context(), timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, stats)
}
