package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"tecnobra-backend/internal/cache"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"
)

// statusFor maps service errors onto HTTP statuses
func statusFor(err error) int {
	var decodeErr *qrcode.DecodeError
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidReference), errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrAlreadyRunning),
		errors.Is(err, services.ErrNotRunning),
		errors.Is(err, services.ErrMachineOffline),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInvariantViolation),
		errors.Is(err, services.ErrNoEmployeeSelected):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
		utils.Error(w, status, "Internal server error")
		return
	}
	utils.Error(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// changed drops cached dashboard numbers after a write
func changed(ctx context.Context) {
	cache.InvalidateReports(ctx)
}

// parsePeriod reads ?period=today|week|month|custom&from=YYYY-MM-DD&to=YYYY-MM-DD
func parsePeriod(r *http.Request) (services.Period, time.Time, time.Time, error) {
	q := r.URL.Query()
	period := services.Period(q.Get("period"))
	var from, to time.Time
	var err error
	if s := q.Get("from"); s != "" {
		if from, err = timeutil.ParseInSite(timeutil.DateLayout, s); err != nil {
			return "", from, to, fmt.Errorf("%w: from must be YYYY-MM-DD", services.ErrValidation)
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = timeutil.ParseInSite(timeutil.DateLayout, s); err != nil {
			return "", from, to, fmt.Errorf("%w: to must be YYYY-MM-DD", services.ErrValidation)
		}
	}
	return period, from, to, nil
}

func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}
