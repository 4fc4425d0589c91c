package handlers

import (
	"net/http"

	"tecnobra-backend/internal/models"
	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/timeutil"
	"tecnobra-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type EmployeeHandler struct {
	Service *services.EmployeeService
}

func NewEmployeeHandler(s *services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{Service: s}
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	emp, err := h.Service.Create(r.Context(), &req, timeutil.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusCreated, emp)
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, emp)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.EmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	emp, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	utils.JSON(w, http.StatusOK, emp)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	changed(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// QRToken returns the badge text and an inline image
func (h *EmployeeHandler) QRToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.Service.QRToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	image, err := qrcode.DataURL(token, labelSize(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"token": token, "image": image})
}

func (h *EmployeeHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	token, err := h.Service.QRToken(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePNG(w, r, token)
}

// writePNG renders a label token as a PNG response
func writePNG(w http.ResponseWriter, r *http.Request, token string) {
	img, err := qrcode.PNG(token, labelSize(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// labelSize keeps ?size within what a printed label needs
func labelSize(r *http.Request) int {
	size := queryInt(r, "size", qrcode.DefaultSize)
	if size < 200 {
		return 200
	}
	if size > 2000 {
		return 2000
	}
	return size
}
