package httptransport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/task-bridge/internal/connector"
	"github.com/corray333/task-bridge/internal/dal/interfaces/ijournalrepo"
	"github.com/corray333/task-bridge/internal/service/models/journalentry"
)

type stubJournal struct {
	entries   []journalentry.Entry
	lastLimit int
}

func (s *stubJournal) Record(_ context.Context, entry journalentry.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubJournal) ListExhausted(_ context.Context, limit int) ([]journalentry.Entry, error) {
	s.lastLimit = limit
	return s.entries, nil
}

func newTestTransport(journal ijournalrepo.IJournalRepository) (*HTTPTransport, *connector.Registry, *httptest.Server) {
	registry := connector.NewRegistry()
	factory := func(desc connector.Descriptor) *connector.Connector {
		return connector.New(desc, nil)
	}

	transport := NewHTTPTransport(registry, factory, journal)
	transport.RegisterRoutes()

	return transport, registry, httptest.NewServer(transport.router)
}

func TestHealth(t *testing.T) {
	_, _, server := newTestTransport(nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterConnector(t *testing.T) {
	_, registry, server := newTestTransport(nil)
	defer server.Close()

	body := `{"system_id":"camunda-prod","engine_url":"http://engine:8080","outbox_url":"http://engine:8080/outbox"}`
	resp, err := http.Post(server.URL+"/api/connectors", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	snapshot := registry.Snapshot()
	require.Contains(t, snapshot, "camunda-prod")
	assert.Equal(t, "http://engine:8080/outbox", snapshot["camunda-prod"].OutboxURL)
}

func TestRegisterConnector_MissingFields(t *testing.T) {
	_, registry, server := newTestTransport(nil)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/connectors", "application/json", strings.NewReader(`{"system_id":"camunda-prod"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, registry.Snapshot())
}

func TestListConnectors_Sorted(t *testing.T) {
	_, registry, server := newTestTransport(nil)
	defer server.Close()

	registry.Register("camunda-b", connector.New(connector.Descriptor{SystemID: "camunda-b"}, nil))
	registry.Register("camunda-a", connector.New(connector.Descriptor{SystemID: "camunda-a"}, nil))

	resp, err := http.Get(server.URL + "/api/connectors")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Less(t, strings.Index(body, "camunda-a"), strings.Index(body, "camunda-b"))
}

func TestRemoveConnector(t *testing.T) {
	_, registry, server := newTestTransport(nil)
	defer server.Close()

	registry.Register("camunda-a", connector.New(connector.Descriptor{SystemID: "camunda-a"}, nil))

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/connectors/camunda-a", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotContains(t, registry.Snapshot(), "camunda-a")
}

func TestListExhausted(t *testing.T) {
	journal := &stubJournal{entries: []journalentry.Entry{{
		SystemID:   "camunda-a",
		EventID:    7,
		EventType:  "CREATE",
		ExternalID: "camunda-7",
		Outcome:    journalentry.OutcomeExhausted,
		Error:      "timeout",
		CreatedAt:  time.Now(),
	}}}

	_, _, server := newTestTransport(journal)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/journal/exhausted?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, journal.lastLimit)
}

func TestListExhausted_JournalDisabled(t *testing.T) {
	_, _, server := newTestTransport(nil)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/journal/exhausted")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
