package listconnectors

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/corray333/task-bridge/internal/connector"
)

// ListConnectors returns the descriptors of all registered connectors.
func ListConnectors(w http.ResponseWriter, _ *http.Request, registry *connector.Registry) {
	snapshot := registry.Snapshot()

	descriptors := make([]connector.Descriptor, 0, len(snapshot))
	for _, c := range snapshot {
		descriptors = append(descriptors, c.Descriptor)
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].SystemID < descriptors[j].SystemID
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(descriptors); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
