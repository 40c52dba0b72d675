package taskrest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/task-bridge/internal/service/models/backendtask"
)

func TestCreate(t *testing.T) {
	var gotPath string
	var gotTask backendtask.Task
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotTask))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"task-1","external_id":"camunda-42","state":"READY"}`))
	}))
	defer server.Close()

	task := backendtask.New("camunda-42")
	task.Name = "approve invoice"
	task.Domain = "DOMAIN_A"

	client := NewClientWithBaseURL(server.URL)
	id, err := client.Create(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, "task-1", id)
	assert.Equal(t, "/tasks", gotPath)
	assert.Equal(t, "camunda-42", gotTask.ExternalID)
	assert.Equal(t, "approve invoice", gotTask.Name)
	assert.Equal(t, backendtask.ManualPriorityUnset, gotTask.ManualPriority)
}

func TestCreate_ConflictIsDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.Create(context.Background(), backendtask.New("camunda-42"))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreate_UnknownDomainIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"UNKNOWN_DOMAIN","message":"domain DOMAIN_X does not exist"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.Create(context.Background(), backendtask.New("camunda-42"))
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "UNKNOWN_DOMAIN", vErr.Code)
	assert.True(t, IsPermanent(err))
}

func TestCreate_OtherValidationCodeIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"WORKBASKET_BUSY","message":"try later"}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.Create(context.Background(), backendtask.New("camunda-42"))
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestCreate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.Create(context.Background(), backendtask.New("camunda-42"))
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
	assert.Contains(t, err.Error(), "500")
}

func TestComplete(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	require.NoError(t, client.Complete(context.Background(), "task-1"))
	assert.Equal(t, "/tasks/task-1/complete", gotPath)
}

func TestComplete_MissingTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	err := client.Complete(context.Background(), "task-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComplete_AlreadyTerminalIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	assert.NoError(t, client.Complete(context.Background(), "task-1"))
}

func TestCancel(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	require.NoError(t, client.Cancel(context.Background(), "task-1"))
	assert.Equal(t, "/tasks/task-1/cancel", gotPath)
}

func TestFindByExternalID(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"task-1","external_id":"camunda-42","state":"READY"}]`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	task, err := client.FindByExternalID(context.Background(), "camunda-42")
	require.NoError(t, err)

	assert.Equal(t, "external_id=camunda-42", gotQuery)
	require.NotNil(t, task)
	assert.Equal(t, "task-1", task.ID)
}

func TestFindByExternalID_NoMatchIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	task, err := client.FindByExternalID(context.Background(), "camunda-gone")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestGetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/task-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"task-1","external_id":"camunda-42","custom_attributes":{"camunda:amount":"{\"type\":\"long\",\"value\":555,\"valueInfo\":null}"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	task, err := client.GetByID(context.Background(), "task-1")
	require.NoError(t, err)

	assert.Equal(t, "camunda-42", task.ExternalID)
	assert.Equal(t, `{"type":"long","value":555,"valueInfo":null}`, task.CustomAttributes["camunda:amount"])
}

func TestGetByID_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)
	_, err := client.GetByID(context.Background(), "task-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
