package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/store"
)

// StatusHandler serves the aggregate engine status.
type StatusHandler struct {
	stores *store.Stores
	logger *zap.Logger
}

// NewStatusHandler builds the handler.
func NewStatusHandler(stores *store.Stores, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{stores: stores, logger: logger}
}

// Get returns entity counts, per-status breakdowns and the last scan time.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	status, err := h.stores.Status(r.Context())
	if err != nil {
		h.logger.Error("status failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, status)
}
