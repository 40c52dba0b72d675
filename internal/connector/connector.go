package connector

import (
	"sync"

	"github.com/corray333/task-bridge/internal/dal/interfaces/ioutboxclient"
)

// Descriptor identifies one remote process-engine instance and where its
// outbox lives. Descriptors come from configuration at startup or from the
// admin API at runtime.
type Descriptor struct {
	SystemID  string `json:"system_id"  mapstructure:"system_id"`
	EngineURL string `json:"engine_url" mapstructure:"engine_url"`
	OutboxURL string `json:"outbox_url" mapstructure:"outbox_url"`
}

// Connector is the adapter-side handle to one remote engine. The mutex
// serializes synchronization cycles per connector: creation and termination
// never overlap for the same engine, so an externalId is never worked by
// both cycles at once.
type Connector struct {
	Descriptor
	Outbox ioutboxclient.IOutboxClient

	mu sync.Mutex
}

// New creates a connector for the given descriptor and outbox client.
func New(desc Descriptor, outbox ioutboxclient.IOutboxClient) *Connector {
	return &Connector{
		Descriptor: desc,
		Outbox:     outbox,
	}
}

// TryAcquire claims the connector for one cycle. It returns false when a
// cycle is still running, in which case the caller skips this tick.
func (c *Connector) TryAcquire() bool {
	return c.mu.TryLock()
}

// Release ends the cycle claimed by TryAcquire.
func (c *Connector) Release() {
	c.mu.Unlock()
}
