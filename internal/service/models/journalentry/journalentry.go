package journalentry

import (
	"time"
)

// Outcomes recorded in the sync journal.
const (
	OutcomeApplied   = "applied"
	OutcomeExhausted = "exhausted"
)

// Entry is one row of the sync journal: the final disposition of an outbox
// event for operator inspection.
type Entry struct {
	ID         int64     `json:"id"`
	SystemID   string    `json:"system_id"`
	EventID    int64     `json:"event_id"`
	EventType  string    `json:"event_type"`
	ExternalID string    `json:"external_id"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
