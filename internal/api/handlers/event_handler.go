package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/kochbuch-be/internal/services"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// EventHandler serves the activity log of the authenticated account.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent returns the newest events of the authenticated account.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivityLimit)
	}

	events, err := h.service.GetRecentEventsForUser(r.Context(), id.ID, limit)
	if err != nil {
		serviceError(w, r, err, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
