package listexhausted

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/corray333/task-bridge/internal/dal/interfaces/ijournalrepo"
)

const defaultLimit = 50

// ListExhausted returns the most recent terminally failed events from the
// sync journal.
func ListExhausted(w http.ResponseWriter, r *http.Request, journal ijournalrepo.IJournalRepository) {
	if journal == nil {
		http.Error(w, "sync journal is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := journal.ListExhausted(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to read journal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
