package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/pipeline"
	"github.com/privacyops/footprint/internal/store"
)

// PersonHandler serves protected-person resources and the protect
// operation.
type PersonHandler struct {
	stores   *store.Stores
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewPersonHandler builds the handler.
func NewPersonHandler(stores *store.Stores, pl *pipeline.Pipeline, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{stores: stores, pipeline: pl, logger: logger}
}

type personRequest struct {
	Name        string   `json:"name"`
	Relation    string   `json:"relation"`
	Emails      []string `json:"emails"`
	Phones      []string `json:"phones"`
	Addresses   []string `json:"addresses"`
	Usernames   []string `json:"usernames"`
	DateOfBirth *string  `json:"date_of_birth"`
}

// List returns all persons.
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	persons, err := h.stores.Persons.List(r.Context())
	if err != nil {
		h.logger.Error("list persons failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, persons)
}

// Create inserts a new person.
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		ErrBadRequest(w, "name is required")
		return
	}

	person := &db.Person{
		Name:        req.Name,
		Relation:    req.Relation,
		Emails:      db.JSONList(req.Emails),
		Phones:      db.JSONList(req.Phones),
		Addresses:   db.JSONList(req.Addresses),
		Usernames:   db.JSONList(req.Usernames),
		DateOfBirth: req.DateOfBirth,
	}
	if person.Relation == "" {
		person.Relation = "self"
	}
	if err := h.stores.Persons.Create(r.Context(), person); err != nil {
		h.logger.Error("create person failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Created(w, person)
}

// GetByID returns one person.
func (h *PersonHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	person, err := h.stores.Persons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ErrNotFound(w)
			return
		}
		h.logger.Error("get person failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, person)
}

// Update applies a partial update to a person. Absent fields keep their
// stored values.
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	person, err := h.stores.Persons.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ErrNotFound(w)
			return
		}
		ErrInternal(w)
		return
	}

	var req personRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != "" {
		person.Name = req.Name
	}
	if req.Relation != "" {
		person.Relation = req.Relation
	}
	if req.Emails != nil {
		person.Emails = db.JSONList(req.Emails)
	}
	if req.Phones != nil {
		person.Phones = db.JSONList(req.Phones)
	}
	if req.Addresses != nil {
		person.Addresses = db.JSONList(req.Addresses)
	}
	if req.Usernames != nil {
		person.Usernames = db.JSONList(req.Usernames)
	}
	if req.DateOfBirth != nil {
		person.DateOfBirth = req.DateOfBirth
	}

	if err := h.stores.Persons.Update(r.Context(), person); err != nil {
		h.logger.Error("update person failed", zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, person)
}

// Protect runs the full protection pipeline for a person synchronously and
// returns the run result including the rendered report.
func (h *PersonHandler) Protect(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.pipeline.ProtectPerson(r.Context(), id)
	if err != nil {
		h.logger.Error("protect failed", zap.Int64("person_id", id), zap.Error(err))
		ErrInternal(w)
		return
	}
	Ok(w, result)
}

// idParam parses the {id} URL parameter, writing a 400 on garbage.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		ErrBadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
