package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/corray333/task-bridge/internal/connector"
	"github.com/corray333/task-bridge/internal/service/models/outboxevent"
	"github.com/corray333/task-bridge/internal/service/models/referencedtask"
)

// Decoded pairs a successfully decoded referenced task with the outbox
// event it came from, so the engine can gate on retry state and acknowledge
// the right record.
type Decoded struct {
	Task  referencedtask.ReferencedTask
	Event outboxevent.Event
}

// FetchPending retrieves a batch of outbox events of the given kind from
// the connector and decodes each payload. A record whose payload fails to
// decode is a payload defect, not a transient fault: it is logged and
// skipped, and the rest of the batch is processed. Events with an
// unrecognized lifecycle type are skipped the same way.
func FetchPending(ctx context.Context, conn *connector.Connector, kind outboxevent.Kind) ([]Decoded, error) {
	events, err := conn.Outbox.FetchEvents(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s events from %s: %w", kind, conn.SystemID, err)
	}

	decoded := make([]Decoded, 0, len(events))

	for _, event := range events {
		if !outboxevent.KnownType(event.Type) {
			slog.Warn("Skipping outbox event with unknown type",
				"system_id", conn.SystemID,
				"event_id", event.ID,
				"type", event.Type,
			)
			continue
		}

		var task referencedtask.ReferencedTask
		if err := json.Unmarshal([]byte(event.Payload), &task); err != nil {
			slog.Warn("Skipping outbox event with malformed payload",
				"system_id", conn.SystemID,
				"event_id", event.ID,
				"error", err,
			)
			continue
		}

		if task.ExternalID == "" {
			slog.Warn("Skipping outbox event without external id",
				"system_id", conn.SystemID,
				"event_id", event.ID,
			)
			continue
		}

		task.OutboxEventID = event.ID
		task.OutboxEventType = event.Type
		decoded = append(decoded, Decoded{Task: task, Event: event})
	}

	return decoded, nil
}
