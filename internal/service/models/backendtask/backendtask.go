package backendtask

import (
	"time"
)

// ManualPriorityUnset is the sentinel meaning "no priority override".
const ManualPriorityUnset = -1

// NumCustomInts is the number of custom integer slots a task carries.
const NumCustomInts = 8

// Task states reported by the task service.
const (
	StateReady     = "READY"
	StateCompleted = "COMPLETED"
	StateCancelled = "CANCELLED"
)

// Task is the task-management backend's representation of a task. ExternalID
// is the join key back to the originating engine; it is unique per backend.
type Task struct {
	ID                string              `json:"id,omitempty"`
	ExternalID        string              `json:"external_id"`
	BusinessProcessID string              `json:"business_process_id"`
	Name              string              `json:"name"`
	Owner             string              `json:"owner,omitempty"`
	Domain            string              `json:"domain"`
	State             string              `json:"state,omitempty"`
	Planned           time.Time           `json:"planned"`
	Due               *time.Time          `json:"due,omitempty"`
	ManualPriority    int                 `json:"manual_priority"`
	CustomInts        [NumCustomInts]*int `json:"custom_ints"`
	CustomAttributes  map[string]string   `json:"custom_attributes"`
}

// New returns a task with defaults applied: priority sentinel set, custom
// int slots unset and an empty attribute map.
func New(externalID string) Task {
	return Task{
		ExternalID:       externalID,
		ManualPriority:   ManualPriorityUnset,
		CustomAttributes: make(map[string]string),
	}
}
