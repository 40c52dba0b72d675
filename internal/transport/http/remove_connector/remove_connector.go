package removeconnector

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corray333/task-bridge/internal/connector"
)

// RemoveConnector unregisters a connector. Polls already in flight on an
// older registry snapshot finish safely.
func RemoveConnector(w http.ResponseWriter, r *http.Request, registry *connector.Registry) {
	systemID := chi.URLParam(r, "system_id")
	if systemID == "" {
		http.Error(w, "system_id is required", http.StatusBadRequest)
		return
	}

	registry.Unregister(systemID)

	w.WriteHeader(http.StatusNoContent)
}
