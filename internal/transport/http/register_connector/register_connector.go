package registerconnector

import (
	"encoding/json"
	"net/http"

	"github.com/corray333/task-bridge/internal/connector"
)

// Factory builds a connector from a descriptor.
type Factory func(desc connector.Descriptor) *connector.Connector

// RegisterConnector adds or replaces a connector at runtime. The next
// scheduler tick picks it up from a fresh registry snapshot.
func RegisterConnector(w http.ResponseWriter, r *http.Request, registry *connector.Registry, newConnector Factory) {
	var desc connector.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if desc.SystemID == "" || desc.OutboxURL == "" {
		http.Error(w, "system_id and outbox_url are required", http.StatusBadRequest)
		return
	}

	registry.Register(desc.SystemID, newConnector(desc))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(desc)
}
