package ioutboxclient

import (
	"context"
	"time"

	"github.com/corray333/task-bridge/internal/service/models/outboxevent"
)

// IOutboxClient talks to one remote engine's outbox REST endpoint. The
// acknowledgement calls are the retry state machine's transitions: the
// outbox record is the system of record, the adapter only computes the new
// values.
type IOutboxClient interface {
	// FetchEvents retrieves the batch of events of the given kind that the
	// outbox considers retrievable.
	FetchEvents(ctx context.Context, kind outboxevent.Kind) ([]outboxevent.Event, error)

	// MarkConsumed acknowledges successful downstream application; the
	// outbox stops returning the event.
	MarkConsumed(ctx context.Context, id int64) error

	// MarkFailed records a failed attempt. remainingRetries is the
	// decremented budget; blockedUntil is nil once the budget is spent.
	MarkFailed(ctx context.Context, id int64, remainingRetries int, blockedUntil *time.Time, cause string) error
}
