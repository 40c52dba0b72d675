package outboxevent

import (
	"time"
)

// Lifecycle kinds emitted by the process engine.
const (
	TypeCreate   = "CREATE"
	TypeComplete = "COMPLETE"
	TypeDelete   = "DELETE"
)

// Kind selects which slice of the outbox a fetch targets. The value is used
// verbatim as the `type` query parameter of the outbox REST API.
type Kind string

const (
	// KindCreation selects new-task events.
	KindCreation Kind = "CREATE"
	// KindTermination selects terminal events (completions and deletions).
	KindTermination Kind = "COMPLETE,DELETE"
)

// Event is one outbox record as exposed by the outbox REST endpoint.
// The outbox itself is the system of record for retry state; the adapter
// only reads these fields and writes them back through acknowledgement
// calls.
type Event struct {
	ID               int64      `json:"id"`
	Type             string     `json:"type"`
	Created          time.Time  `json:"created"`
	Payload          string     `json:"payload"`
	RemainingRetries int        `json:"remainingRetries"`
	BlockedUntil     *time.Time `json:"blockedUntil"`
	Error            string     `json:"error"`
	ExternalID       string     `json:"externalId"`
}

// Eligible reports whether the event may be processed now: it still has
// retries left and any backoff window has elapsed.
func (e Event) Eligible(now time.Time) bool {
	if e.RemainingRetries <= 0 {
		return false
	}
	return e.BlockedUntil == nil || !e.BlockedUntil.After(now)
}

// Exhausted reports whether the event is terminally failed.
func (e Event) Exhausted() bool {
	return e.RemainingRetries <= 0
}

// KnownType reports whether the lifecycle type is one the adapter handles.
func KnownType(t string) bool {
	switch t {
	case TypeCreate, TypeComplete, TypeDelete:
		return true
	}
	return false
}
