package ijournalrepo

import (
	"context"

	"github.com/corray333/task-bridge/internal/service/models/journalentry"
)

// IJournalRepository persists final event dispositions for operator
// attention.
type IJournalRepository interface {
	Record(ctx context.Context, entry journalentry.Entry) error
	ListExhausted(ctx context.Context, limit int) ([]journalentry.Entry, error)
}
