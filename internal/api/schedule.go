package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/schedule"
)

// ScheduleHandler exposes the recurring-job schedule.
type ScheduleHandler struct {
	scheduler *schedule.Scheduler
	logger    *zap.Logger
}

// NewScheduleHandler builds the handler.
func NewScheduleHandler(scheduler *schedule.Scheduler, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, logger: logger}
}

// Status returns every job's last run, next due time and recent history.
func (h *ScheduleHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.scheduler.Status(r.Context())
	if err != nil {
		h.logger.Error("schedule status failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, status)
}

// Run executes all overdue jobs synchronously and returns their outcomes.
// Jobs that fail are reported in the outcome list, not as an HTTP error.
func (h *ScheduleHandler) Run(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.scheduler.RunScheduledJobs(r.Context())
	if err != nil {
		h.logger.Error("schedule run failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	if outcomes == nil {
		outcomes = []schedule.RunOutcome{}
	}
	Ok(w, envelope{"ran": len(outcomes), "outcomes": outcomes})
}
