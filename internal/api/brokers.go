package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/store"
)

// BrokerHandler serves the broker registry read endpoints.
type BrokerHandler struct {
	brokers store.BrokerStore
	logger  *zap.Logger
}

// NewBrokerHandler builds the handler.
func NewBrokerHandler(brokers store.BrokerStore, logger *zap.Logger) *BrokerHandler {
	return &BrokerHandler{brokers: brokers, logger: logger}
}

// List returns brokers, optionally filtered by category, difficulty and
// automatable query parameters.
func (h *BrokerHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.BrokerFilter{
		Category:   r.URL.Query().Get("category"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	if raw := r.URL.Query().Get("automatable"); raw != "" {
		automatable, err := strconv.ParseBool(raw)
		if err != nil {
			ErrBadRequest(w, "automatable must be a boolean")
			return
		}
		filter.Automatable = &automatable
	}

	brokers, err := h.brokers.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list brokers failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, brokers)
}

// Stats returns the aggregate registry breakdown.
func (h *BrokerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.brokers.Stats(r.Context())
	if err != nil {
		h.logger.Error("broker stats failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, stats)
}

// GetBySlug returns one broker by its registry slug.
func (h *BrokerHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	broker, err := h.brokers.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ErrNotFound(w)
			return
		}
		h.logger.Error("get broker failed", zap.String("slug", slug), zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, broker)
}
