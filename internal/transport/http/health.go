package http

import (
	"context"
	"net/http"
)

// SlotReader reports the latest ledger slot.
type SlotReader interface {
	LatestSlot(ctx context.Context) (uint64, error)
}

type healthResponse struct {
	Status string `json:"status"`
	Slot   uint64 `json:"slot"`
}

// HandleHealth reports liveness together with the latest slot. A store that
// cannot be read makes the service unhealthy.
func HandleHealth(ledger SlotReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := ledger.LatestSlot(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Unavailable", "ledger store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Slot: slot})
	}
}
