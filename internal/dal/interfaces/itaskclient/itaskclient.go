package itaskclient

import (
	"context"

	"github.com/corray333/task-bridge/internal/service/models/backendtask"
)

// ITaskClient is the task-management backend's task service.
type ITaskClient interface {
	// Create creates a task and returns its backend id.
	Create(ctx context.Context, task backendtask.Task) (string, error)

	// Complete transitions the task to COMPLETED.
	Complete(ctx context.Context, id string) error

	// Cancel transitions the task to CANCELLED.
	Cancel(ctx context.Context, id string) error

	// FindByExternalID returns the task with the given external id, or nil
	// if none exists.
	FindByExternalID(ctx context.Context, externalID string) (*backendtask.Task, error)

	// GetByID returns the full task including custom attributes.
	GetByID(ctx context.Context, id string) (*backendtask.Task, error)
}
