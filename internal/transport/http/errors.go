package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/manifest-network/mediaproof/internal/api"
)

const (
	codeNotFound           = "NotFound"
	codeInvalidRequestBody = "InvalidRequestBody"
)

type errorResponse struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	AnchorCode uint32   `json:"anchor_code,omitempty"`
	Logs       []string `json:"logs,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

// writeLedgerError reports err with the status and code api.Classify assigns.
func writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	c := api.Classify(err)
	msg := err.Error()
	if c.HTTPStatus >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeErrorResponse(w, c.HTTPStatus, errorResponse{
		Error:      msg,
		Code:       c.Reason,
		AnchorCode: c.AnchorCode,
		Logs:       c.Logs,
	})
}

func writeErrorResponse(w http.ResponseWriter, status int, body errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(body)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"Internal"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
