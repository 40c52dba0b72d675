package connector

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndSnapshot(t *testing.T) {
	registry := NewRegistry()

	first := New(Descriptor{SystemID: "camunda-1", OutboxURL: "http://one/outbox"}, nil)
	second := New(Descriptor{SystemID: "camunda-2", OutboxURL: "http://two/outbox"}, nil)

	registry.Register("camunda-1", first)
	registry.Register("camunda-2", second)

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Same(t, first, snapshot["camunda-1"])
	assert.Same(t, second, snapshot["camunda-2"])
}

func TestRegistry_SnapshotIsImmutableUnderMutation(t *testing.T) {
	registry := NewRegistry()
	registry.Register("camunda-1", New(Descriptor{SystemID: "camunda-1"}, nil))

	before := registry.Snapshot()

	registry.Unregister("camunda-1")
	registry.Register("camunda-2", New(Descriptor{SystemID: "camunda-2"}, nil))

	// The old snapshot still sees the world as it was.
	require.Len(t, before, 1)
	assert.Contains(t, before, "camunda-1")

	after := registry.Snapshot()
	require.Len(t, after, 1)
	assert.Contains(t, after, "camunda-2")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := fmt.Sprintf("system-%d", i)
		go func() {
			defer wg.Done()
			registry.Register(id, New(Descriptor{SystemID: id}, nil))
		}()
		go func() {
			defer wg.Done()
			for range registry.Snapshot() {
			}
		}()
	}
	wg.Wait()

	assert.Len(t, registry.Snapshot(), 50)
}

func TestConnector_TryAcquire(t *testing.T) {
	conn := New(Descriptor{SystemID: "camunda-1"}, nil)

	require.True(t, conn.TryAcquire())
	assert.False(t, conn.TryAcquire())

	conn.Release()
	assert.True(t, conn.TryAcquire())
	conn.Release()
}
