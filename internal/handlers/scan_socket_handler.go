package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"tecnobra-backend/internal/scanner"
	"tecnobra-backend/internal/timeutil"

	"github.com/gorilla/websocket"
)

// ScanSocketHandler serves /ws/scan. The camera page sends each decoded
// string and receives the toggle result as JSON.
type ScanSocketHandler struct {
	Attendance scanner.Attendance
	Loans      scanner.Loans
	Rental     scanner.Rental
	// Timeout closes the socket when no code arrives in time
	Timeout time.Duration
	// CheckOrigin vets browser origins; nil falls back to same-origin
	CheckOrigin func(*http.Request) bool
}

func NewScanSocketHandler(attendance scanner.Attendance, loans scanner.Loans, rental scanner.Rental, timeout time.Duration) *ScanSocketHandler {
	return &ScanSocketHandler{Attendance: attendance, Loans: loans, Rental: rental, Timeout: timeout}
}

// scanMessage is either {"type":"code","code":"..."} or {"type":"reset"}.
// A frame that is not such an object is taken as the code itself.
type scanMessage struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

func parseScanMessage(data []byte) scanMessage {
	var msg scanMessage
	if err := json.Unmarshal(data, &msg); err == nil && (msg.Type == "code" || msg.Type == "reset") {
		return msg
	}
	return scanMessage{Type: "code", Code: strings.TrimSpace(string(data))}
}

func (h *ScanSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	mode := scanner.Mode(r.URL.Query().Get("mode"))
	term, err := scanner.NewTerminal(mode, h.Attendance, h.Loans, h.Rental)
	if err != nil {
		writeError(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.CheckOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Scan] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	send := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(v)
	}

	codes := make(chan string)
	go func() {
		defer close(codes)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg := parseScanMessage(data)
			if msg.Type == "reset" {
				send(term.Reset())
				continue
			}
			select {
			case codes <- msg.Code:
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := send(scanner.Result{Mode: mode, Step: term.Step(), Event: "ready"}); err != nil {
		return
	}

	for {
		code, err := scanner.Capture(ctx, h.Timeout, codes)
		if err != nil {
			if errors.Is(err, scanner.ErrCaptureTimeout) {
				send(scanner.Result{Mode: mode, Step: term.Step(), Event: "timeout", Error: err.Error(), Code: scanner.ErrorCode(err)})
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan timeout"),
					time.Now().Add(time.Second))
				log.Printf("[Scan] %s session closed after %s without a code", mode, h.Timeout)
			}
			return
		}

		res := term.Handle(ctx, code, timeutil.Now())
		if res.Event != "error" && res.Event != "employee_selected" {
			changed(ctx)
		}
		if err := send(res); err != nil {
			return
		}
	}
}
