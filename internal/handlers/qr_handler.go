package handlers

import (
	"net/http"

	"tecnobra-backend/internal/qrcode"
	"tecnobra-backend/pkg/utils"
)

// QRImage handles GET /api/qr.png?token=... for any printed label
func QRImage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.Error(w, http.StatusBadRequest, "token is required")
		return
	}
	writePNG(w, r, token)
}

// QRDecode handles POST /api/qr/decode and reports what a label holds
func QRDecode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := qrcode.Decode(req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, ok := p.(qrcode.Entity)
	if !ok {
		utils.Error(w, http.StatusUnprocessableEntity, "label carries no identity")
		return
	}
	utils.JSON(w, http.StatusOK, e.Ref())
}
