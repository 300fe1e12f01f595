package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/removers"
	"github.com/privacyops/footprint/internal/store"
)

// RemovalHandler serves opt-out submission and per-person removal status.
type RemovalHandler struct {
	orchestrator *removers.Orchestrator
	logger       *zap.Logger
}

// NewRemovalHandler builds the handler.
func NewRemovalHandler(orchestrator *removers.Orchestrator, logger *zap.Logger) *RemovalHandler {
	return &RemovalHandler{orchestrator: orchestrator, logger: logger}
}

type submitRemovalRequest struct {
	PersonID   int64  `json:"person_id"`
	BrokerSlug string `json:"broker_slug"`
}

// Submit runs one opt-out request synchronously and returns the outcome.
// Web form submissions drive a real browser, so this call can take tens of
// seconds.
func (h *RemovalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRemovalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PersonID == 0 || req.BrokerSlug == "" {
		ErrBadRequest(w, "person_id and broker_slug are required")
		return
	}

	outcome, err := h.orchestrator.SubmitRemoval(r.Context(), req.PersonID, req.BrokerSlug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ErrNotFound(w)
			return
		}
		h.logger.Error("submit removal failed",
			zap.Int64("person_id", req.PersonID),
			zap.String("broker", req.BrokerSlug),
			zap.Error(err),
		)
		ErrInternal(w)
		return
	}
	Created(w, outcome)
}

// StatusByPerson returns the removal rollup for one person.
func (h *RemovalHandler) StatusByPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	status, err := h.orchestrator.Status(r.Context(), id)
	if err != nil {
		h.logger.Error("removal status failed", zap.Int64("person_id", id), zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, status)
}
