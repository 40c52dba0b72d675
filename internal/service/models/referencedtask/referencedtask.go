package referencedtask

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Variable is one process variable in Camunda's typed-value format:
// {"type": "long", "value": 555, "valueInfo": null}. Value and ValueInfo are
// kept as raw JSON so that re-serialization reproduces the engine's bytes
// regardless of nesting depth or numeric precision.
type Variable struct {
	Type      string          `json:"type"`
	Value     json.RawMessage `json:"value"`
	ValueInfo json.RawMessage `json:"valueInfo"`
}

var errNotAnInt = errors.New("variable value is not an integer")

// IntValue parses the raw value as an integer. Quoted digits ("555") are
// accepted alongside plain JSON numbers.
func (v Variable) IntValue() (int, error) {
	raw := strings.TrimSpace(string(v.Value))
	if raw == "" || raw == "null" {
		return 0, errNotAnInt
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errNotAnInt
	}
	return n, nil
}

// CanonicalJSON returns the deterministic serialized form of the variable.
// Mapping the same decoded variable always yields identical bytes because
// the raw value is carried through untouched.
func (v Variable) CanonicalJSON() (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReferencedTask is the canonical decoded form of a process-engine task
// snapshot carried in an outbox event payload. Constructed once per decode
// and not mutated afterwards.
type ReferencedTask struct {
	// Identity of the outbox event the task was decoded from, set by the
	// retriever for later acknowledgement.
	OutboxEventID   int64  `json:"-"`
	OutboxEventType string `json:"-"`

	ExternalID        string              `json:"id"`
	Name              string              `json:"name"`
	Assignee          string              `json:"assignee"`
	BusinessProcessID string              `json:"processInstanceId"`
	Domain            string              `json:"domain"`
	Created           *time.Time          `json:"created"`
	Due               *time.Time          `json:"due"`
	Variables         map[string]Variable `json:"variables"`
}
