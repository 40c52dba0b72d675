package syncsvc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/corray333/task-bridge/internal/connector"
	"github.com/corray333/task-bridge/internal/dal/interfaces/ijournalrepo"
	"github.com/corray333/task-bridge/internal/dal/interfaces/itaskclient"
	"github.com/corray333/task-bridge/internal/dal/taskrest"
	"github.com/corray333/task-bridge/internal/service/backoff"
	"github.com/corray333/task-bridge/internal/service/mapper"
	"github.com/corray333/task-bridge/internal/service/models/journalentry"
	"github.com/corray333/task-bridge/internal/service/models/outboxevent"
	"github.com/corray333/task-bridge/internal/service/retriever"
)

// SyncService drives probes of one connector's outbox into idempotent
// create/complete calls against the task service. Per-event outcomes are
// independent; retry state lives in the outbox record and is advanced only
// through acknowledgement calls.
type SyncService struct {
	taskClient  itaskclient.ITaskClient
	journal     ijournalrepo.IJournalRepository
	mapper      *mapper.Mapper
	backoff     backoff.Policy
	retryBudget int
	now         func() time.Time
}

// option is a function that configures the SyncService.
type option func(*SyncService)

// MustNewSyncService creates a new SyncService.
func MustNewSyncService(opts ...option) *SyncService {
	budget := viper.GetInt("sync.retry_budget")
	if budget == 0 {
		budget = 5
	}

	s := &SyncService{
		journal:     noopJournal{},
		backoff:     backoff.NewPolicy(),
		retryBudget: budget,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.taskClient == nil {
		panic("syncsvc: task client is required")
	}
	if s.mapper == nil {
		panic("syncsvc: mapper is required")
	}

	return s
}

// WithTaskClient sets the task-service client for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTaskClient(taskClient itaskclient.ITaskClient) option {
	return func(s *SyncService) {
		s.taskClient = taskClient
	}
}

// WithMapper sets the variable mapper for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMapper(m *mapper.Mapper) option {
	return func(s *SyncService) {
		s.mapper = m
	}
}

// WithJournal sets the sync journal for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithJournal(journal ijournalrepo.IJournalRepository) option {
	return func(s *SyncService) {
		if journal != nil {
			s.journal = journal
		}
	}
}

// WithBackoff sets the backoff policy for the SyncService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBackoff(policy backoff.Policy) option {
	return func(s *SyncService) {
		s.backoff = policy
	}
}

// WithRetryBudget sets the initial retry budget outbox producers stamp on
// events, used to derive the attempt number for the backoff curve.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRetryBudget(budget int) option {
	return func(s *SyncService) {
		if budget > 0 {
			s.retryBudget = budget
		}
	}
}

// RunCreationCycle fetches pending CREATE events for the connector and
// creates the corresponding backend tasks.
func (s *SyncService) RunCreationCycle(ctx context.Context, conn *connector.Connector) {
	ctx, span := otel.Tracer("service").Start(ctx, "SyncService.RunCreationCycle")
	defer span.End()

	items, err := retriever.FetchPending(ctx, conn, outboxevent.KindCreation)
	if err != nil {
		slog.Error("Failed to retrieve creation events", "system_id", conn.SystemID, "error", err)
		return
	}

	for _, item := range items {
		if !item.Event.Eligible(s.now()) {
			continue
		}
		s.applyCreate(ctx, conn, item)
	}
}

// RunTerminationCycle fetches pending COMPLETE and DELETE events for the
// connector and completes or cancels the corresponding backend tasks.
func (s *SyncService) RunTerminationCycle(ctx context.Context, conn *connector.Connector) {
	ctx, span := otel.Tracer("service").Start(ctx, "SyncService.RunTerminationCycle")
	defer span.End()

	items, err := retriever.FetchPending(ctx, conn, outboxevent.KindTermination)
	if err != nil {
		slog.Error("Failed to retrieve termination events", "system_id", conn.SystemID, "error", err)
		return
	}

	for _, item := range items {
		if !item.Event.Eligible(s.now()) {
			continue
		}
		s.applyTerminate(ctx, conn, item)
	}
}

// applyCreate processes one CREATE event. A task that already exists with
// the same external id is an already-applied event, not an error.
func (s *SyncService) applyCreate(ctx context.Context, conn *connector.Connector, item retriever.Decoded) {
	existing, err := s.taskClient.FindByExternalID(ctx, item.Task.ExternalID)
	if err != nil {
		s.failEvent(ctx, conn, item.Event, err)
		return
	}
	if existing != nil {
		slog.Info("Task already exists, acknowledging create event",
			"system_id", conn.SystemID,
			"event_id", item.Event.ID,
			"external_id", item.Task.ExternalID,
		)
		s.consumeEvent(ctx, conn, item.Event)
		return
	}

	task := s.mapper.MapToBackendTask(item.Task)

	taskID, err := s.taskClient.Create(ctx, task)
	if err != nil {
		if errors.Is(err, taskrest.ErrDuplicate) {
			s.consumeEvent(ctx, conn, item.Event)
			return
		}
		s.failEvent(ctx, conn, item.Event, err)
		return
	}

	slog.Info("Task created from outbox event",
		"system_id", conn.SystemID,
		"event_id", item.Event.ID,
		"external_id", item.Task.ExternalID,
		"task_id", taskID,
	)
	s.consumeEvent(ctx, conn, item.Event)
}

// applyTerminate processes one COMPLETE or DELETE event. A missing backend
// task means there is nothing to do; the task may have been finished
// through another path.
func (s *SyncService) applyTerminate(ctx context.Context, conn *connector.Connector, item retriever.Decoded) {
	existing, err := s.taskClient.FindByExternalID(ctx, item.Task.ExternalID)
	if err != nil {
		s.failEvent(ctx, conn, item.Event, err)
		return
	}
	if existing == nil {
		slog.Info("No task for terminal event, acknowledging",
			"system_id", conn.SystemID,
			"event_id", item.Event.ID,
			"external_id", item.Task.ExternalID,
		)
		s.consumeEvent(ctx, conn, item.Event)
		return
	}

	if item.Event.Type == outboxevent.TypeDelete {
		err = s.taskClient.Cancel(ctx, existing.ID)
	} else {
		err = s.taskClient.Complete(ctx, existing.ID)
	}
	if err != nil {
		if errors.Is(err, taskrest.ErrNotFound) {
			s.consumeEvent(ctx, conn, item.Event)
			return
		}
		s.failEvent(ctx, conn, item.Event, err)
		return
	}

	slog.Info("Task terminated from outbox event",
		"system_id", conn.SystemID,
		"event_id", item.Event.ID,
		"event_type", item.Event.Type,
		"external_id", item.Task.ExternalID,
		"task_id", existing.ID,
	)
	s.consumeEvent(ctx, conn, item.Event)
}

// consumeEvent acknowledges successful application. The event must not be
// marked consumed unless the backend call was confirmed; callers only reach
// here after success.
func (s *SyncService) consumeEvent(ctx context.Context, conn *connector.Connector, event outboxevent.Event) {
	if err := conn.Outbox.MarkConsumed(ctx, event.ID); err != nil {
		// The event will be refetched; the find-by-external-id precheck
		// keeps the redelivery idempotent.
		slog.Error("Failed to mark event consumed",
			"system_id", conn.SystemID,
			"event_id", event.ID,
			"error", err,
		)
		return
	}

	s.record(ctx, conn, event, journalentry.OutcomeApplied, "")
}

// failEvent runs the retry/backoff failure path: decrement the budget, and
// either block the event until the next attempt or exhaust it. A permanent
// validation rejection exhausts immediately.
func (s *SyncService) failEvent(ctx context.Context, conn *connector.Connector, event outboxevent.Event, cause error) {
	remaining := event.RemainingRetries - 1
	if taskrest.IsPermanent(cause) {
		remaining = 0
	}

	if remaining <= 0 {
		slog.Error("Event exhausted its retry budget",
			"system_id", conn.SystemID,
			"event_id", event.ID,
			"external_id", event.ExternalID,
			"error", cause,
		)

		if err := conn.Outbox.MarkFailed(ctx, event.ID, 0, nil, cause.Error()); err != nil {
			slog.Error("Failed to mark event exhausted", "system_id", conn.SystemID, "event_id", event.ID, "error", err)
			return
		}
		s.record(ctx, conn, event, journalentry.OutcomeExhausted, cause.Error())
		return
	}

	attempt := s.retryBudget - remaining
	blockedUntil := s.now().Add(s.backoff.Delay(attempt))

	slog.Warn("Failed to apply event, will retry",
		"system_id", conn.SystemID,
		"event_id", event.ID,
		"remaining_retries", remaining,
		"blocked_until", blockedUntil,
		"error", cause,
	)

	if err := conn.Outbox.MarkFailed(ctx, event.ID, remaining, &blockedUntil, cause.Error()); err != nil {
		slog.Error("Failed to record event failure", "system_id", conn.SystemID, "event_id", event.ID, "error", err)
	}
}

func (s *SyncService) record(ctx context.Context, conn *connector.Connector, event outboxevent.Event, outcome, cause string) {
	entry := journalentry.Entry{
		SystemID:   conn.SystemID,
		EventID:    event.ID,
		EventType:  event.Type,
		ExternalID: event.ExternalID,
		Outcome:    outcome,
		Error:      cause,
		CreatedAt:  s.now(),
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		slog.Error("Failed to write sync journal entry", "system_id", conn.SystemID, "event_id", event.ID, "error", err)
	}
}

// noopJournal is wired when the journal is disabled by configuration.
type noopJournal struct{}

func (noopJournal) Record(context.Context, journalentry.Entry) error {
	return nil
}

func (noopJournal) ListExhausted(context.Context, int) ([]journalentry.Entry, error) {
	return nil, nil
}
