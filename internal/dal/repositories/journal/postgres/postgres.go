package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/corray333/task-bridge/internal/dal/postgres"
	"github.com/corray333/task-bridge/internal/service/models/journalentry"
)

// JournalRepository implements the sync journal for PostgreSQL.
type JournalRepository struct {
	client *postgres.Client
}

// NewJournalRepository creates a new journal repository.
func NewJournalRepository(client *postgres.Client) *JournalRepository {
	return &JournalRepository{
		client: client,
	}
}

// Record appends one event disposition to the journal.
func (r *JournalRepository) Record(ctx context.Context, entry journalentry.Entry) error {
	query, args, err := sq.Insert("sync_journal").
		Columns(
			"system_id",
			"event_id",
			"event_type",
			"external_id",
			"outcome",
			"error",
			"created_at",
		).
		Values(
			entry.SystemID,
			entry.EventID,
			entry.EventType,
			entry.ExternalID,
			entry.Outcome,
			entry.Error,
			entry.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	_, err = r.client.Pool().Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return nil
}

// ListExhausted returns the most recent terminally failed events for
// operator inspection.
func (r *JournalRepository) ListExhausted(ctx context.Context, limit int) ([]journalentry.Entry, error) {
	query, args, err := sq.Select(
		"id",
		"system_id",
		"event_id",
		"event_type",
		"external_id",
		"outcome",
		"error",
		"created_at",
	).
		From("sync_journal").
		Where(sq.Eq{"outcome": journalentry.OutcomeExhausted}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []journalentry.Entry
	for rows.Next() {
		var entry journalentry.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.SystemID,
			&entry.EventID,
			&entry.EventType,
			&entry.ExternalID,
			&entry.Outcome,
			&entry.Error,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}

	return entries, nil
}
