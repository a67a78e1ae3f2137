package execution

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/tracing"
)

func testDAG() *models.ExecutionDAG {
	return &models.ExecutionDAG{
		Nodes: map[string]models.DAGNode{
			"query-1":    {Type: "query_node", Parameters: map[string]any{"query": "Hi there!"}},
			"response-1": {Type: "response_node", Parameters: map[string]any{}},
		},
		Edges: []models.DAGEdge{
			{
				From: models.DAGEndpoint{Node: "query-1", Output: "query"},
				To:   models.DAGEndpoint{Node: "response-1", Input: "input"},
			},
		},
	}
}

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, tracing.NoopTracer(), slog.Default())
}

func TestClient_Run_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/execute", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var dag models.ExecutionDAG

		require.NoError(t, json.NewDecoder(r.Body).Decode(&dag))
		assert.Len(t, dag.Nodes, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"executed_nodes": ["query-1", "response-1"],
				"response_inputs": {"response-1": {"input": "Hello!"}}
			}
		}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.NoError(t, err)

	assert.Equal(t, []string{"query-1", "response-1"}, result.ExecutedNodes)
	assert.Equal(t, "Hello!", result.ResponseInputs["response-1"]["input"])
	assert.Empty(t, result.Errors)
}

func TestClient_Run_PartialFailureInBand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"executed_nodes": ["query-1"],
				"response_inputs": {"response-1": {"input": "partial answer"}},
				"errors": {"agent-2": "rate limited"}
			}
		}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.NoError(t, err)

	// A partial failure still delivers the successful branches' results.
	assert.Equal(t, "partial answer", result.ResponseInputs["response-1"]["input"])
	assert.Equal(t, "rate limited", result.Errors["agent-2"])
}

func TestClient_Run_MissingCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{
			"detail": {
				"message": "credentials missing",
				"missing_credentials": {"agent-1": ["OPENAI_API_KEY"]}
			}
		}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.Error(t, err)
	assert.True(t, IsMissingCredentials(err))

	var credErr *MissingCredentialsError

	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, []string{"OPENAI_API_KEY"}, credErr.Credentials["agent-1"])
}

func TestClient_Run_NodeExecutionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{
			"detail": {
				"message": "2 nodes failed",
				"errors": {"agent-1": "model unavailable"},
				"executed_nodes": ["query-1"],
				"skipped_nodes": ["response-1"]
			}
		}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.Error(t, err)
	assert.True(t, IsNodeExecution(err))

	var nodeErr *NodeExecutionError

	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "model unavailable", nodeErr.Errors["agent-1"])
	assert.Equal(t, []string{"query-1"}, nodeErr.ExecutedNodes)
	assert.Equal(t, []string{"response-1"}, nodeErr.SkippedNodes)
}

func TestClient_Run_StringDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "malformed graph"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Contains(t, err.Error(), "malformed graph")
}

func TestClient_Run_UnparseableFailureBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestClient_Run_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := newTestClient(server.URL).Run(context.Background(), testDAG())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestClient_Run_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))

	defer func() {
		close(block)
		server.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).Run(ctx, testDAG())
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}
