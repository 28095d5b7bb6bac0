package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dtroode/leads-server/internal/logger"
	"github.com/dtroode/leads-server/internal/model"
	"github.com/dtroode/leads-server/internal/validation"
)

const maxBodyBytes = 1 << 20

// Lead serves the lead endpoints.
type Lead struct {
	service        model.LeadStore
	validator      *validation.Validator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewLead creates a new lead handler.
func NewLead(service model.LeadStore, validator *validation.Validator, contextManager model.ContextManager, logger *logger.Logger) *Lead {
	return &Lead{
		service:        service,
		validator:      validator,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Create validates the captured form and stores a new lead.
func (h *Lead) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	input, err := h.validator.Validate(payload, validation.Full)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	lead, err := h.service.Create(r.Context(), input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// List returns leads matching the optional search query.
func (h *Lead) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, leads)
}

// Export returns the leads List would return as a CSV attachment.
func (h *Lead) Export(w http.ResponseWriter, r *http.Request) {
	csv, err := h.service.Export(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, csv)
}

// Get returns a single lead.
func (h *Lead) Get(w http.ResponseWriter, r *http.Request) {
	lead, found, err := h.service.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if !found {
		writeMessage(w, http.StatusNotFound, MessageLeadNotFound)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Update applies a partial update to a lead.
func (h *Lead) Update(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}

	input, err := h.validator.Validate(payload, validation.Partial)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	id := mux.Vars(r)["id"]
	lead, found, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if !found {
		writeMessage(w, http.StatusNotFound, MessageLeadNotFound)
		return
	}

	admin, _ := h.contextManager.GetAdminFromContext(r.Context())
	h.logger.Info("lead updated", "id", id, "admin", admin)

	writeJSON(w, http.StatusOK, lead)
}

// Delete removes a lead.
func (h *Lead) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if !removed {
		writeMessage(w, http.StatusNotFound, MessageLeadNotFound)
		return
	}

	admin, _ := h.contextManager.GetAdminFromContext(r.Context())
	h.logger.Info("lead deleted", "id", id, "admin", admin)

	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON object body. An empty body is an empty object.
func (h *Lead) decode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeMessage(w, http.StatusRequestEntityTooLarge, MessageInvalidJSON)
			return nil, false
		}
		handleError(w, r, h.logger, err)
		return nil, false
	}

	payload := map[string]any{}
	if strings.TrimSpace(string(raw)) == "" {
		return payload, true
	}

	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		writeMessage(w, http.StatusBadRequest, MessageInvalidJSON)
		return nil, false
	}

	return payload, true
}
