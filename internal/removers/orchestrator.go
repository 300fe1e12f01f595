package removers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/metrics"
	"github.com/privacyops/footprint/internal/store"
)

// Handler is the common submission contract every removal method
// implements.
type Handler interface {
	Submit(ctx context.Context, person PersonContext, broker *db.Broker) Outcome
}

// Orchestrator resolves person and broker, dispatches to the handler for
// the broker's declared opt-out method, and records the submission.
type Orchestrator struct {
	persons  store.PersonStore
	brokers  store.BrokerStore
	removals store.RemovalStore

	email   Handler
	webForm Handler
	manual  Handler

	logger *zap.Logger
	now    func() time.Time
}

// NewOrchestrator wires the method handlers over the store.
func NewOrchestrator(
	persons store.PersonStore,
	brokers store.BrokerStore,
	removals store.RemovalStore,
	email, webForm, manual Handler,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		persons:  persons,
		brokers:  brokers,
		removals: removals,
		email:    email,
		webForm:  webForm,
		manual:   manual,
		logger:   logger.Named("orchestrator"),
		now:      time.Now,
	}
}

// selectHandler routes email and web_form to their handlers; phone, mail
// and anything unrecognized get manual instructions.
func (o *Orchestrator) selectHandler(method string) Handler {
	switch method {
	case "email":
		return o.email
	case "web_form":
		return o.webForm
	default:
		return o.manual
	}
}

// SubmitRemoval runs one opt-out request end to end and persists a Removal
// row with the outcome status. NextCheckAt is only set when the submission
// actually went out; failed and manual outcomes have nothing to verify.
func (o *Orchestrator) SubmitRemoval(ctx context.Context, personID int64, brokerSlug string) (*Outcome, error) {
	person, err := o.persons.GetByID(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("removers: person %d: %w", personID, err)
	}
	broker, err := o.brokers.GetBySlug(ctx, brokerSlug)
	if err != nil {
		return nil, fmt.Errorf("removers: broker %q: %w", brokerSlug, err)
	}

	method := broker.OptOutMethod
	if method == "" {
		method = "manual"
	}
	handler := o.selectHandler(method)
	personCtx := NewPersonContext(person)

	outcome := handler.Submit(ctx, personCtx, broker)

	removal := &db.Removal{
		PersonID:    personID,
		BrokerID:    broker.ID,
		Method:      method,
		Status:      outcome.Status,
		SubmittedAt: outcome.SubmittedAt,
		Notes:       outcome.ReferenceID,
	}
	if outcome.Status == StatusSubmitted {
		next := o.now().Add(time.Duration(broker.RecheckDays) * 24 * time.Hour)
		removal.NextCheckAt = &next
	}
	if err := o.removals.Create(ctx, removal); err != nil {
		return &outcome, fmt.Errorf("removers: record removal: %w", err)
	}
	metrics.RemovalsSubmitted.WithLabelValues(method, outcome.Status).Inc()

	o.logger.Info("removal recorded",
		zap.Int64("person_id", personID),
		zap.String("broker", brokerSlug),
		zap.String("method", method),
		zap.String("status", outcome.Status),
	)
	return &outcome, nil
}

// RemovalStatus is the per-person rollup of removal requests.
type RemovalStatus struct {
	PersonID int64            `json:"person_id"`
	Total    int              `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	Removals []db.Removal     `json:"removals"`
}

// Status returns every removal for a person with counts grouped by status.
func (o *Orchestrator) Status(ctx context.Context, personID int64) (*RemovalStatus, error) {
	removals, err := o.removals.ListByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	counts, err := o.removals.StatusCounts(ctx, personID)
	if err != nil {
		return nil, err
	}
	return &RemovalStatus{
		PersonID: personID,
		Total:    len(removals),
		ByStatus: counts,
		Removals: removals,
	}, nil
}
