package handler

import (
	"net/http"

	"github.com/dtroode/leads-server/internal/model"
)

// Health reports liveness and the backend currently serving leads.
type Health struct {
	selector model.BackendSelector
}

func NewHealth(selector model.BackendSelector) *Health {
	return &Health{selector: selector}
}

// Check responds with the active backend name.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.selector.Resolve(r.Context()).Name(),
	})
}
