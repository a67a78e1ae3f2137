package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/tracing"
)

// Result is the outcome of an engine run. Errors holds per-node failure
// messages when only part of the graph failed; the successful branches'
// response inputs are still present.
type Result struct {
	ExecutedNodes  []string                  `json:"executed_nodes"`
	ResponseInputs map[string]map[string]any `json:"response_inputs"`
	Errors         map[string]string         `json:"errors,omitempty"`
}

// Runner executes a translated DAG against the backend engine.
type Runner interface {
	Run(ctx context.Context, dag *models.ExecutionDAG) (*Result, error)
}

const defaultRunTimeout = 120 * time.Second

// Client is the HTTP Runner. The engine defines no cancellation protocol,
// so the client applies its own timeout and reports expiry as a
// NetworkError.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewClient creates an engine client against baseURL.
func NewClient(baseURL string, tracer trace.Tracer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRunTimeout},
		tracer:  tracer,
		logger:  logger,
	}
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    Result `json:"data"`
}

type failureEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type failureDetail struct {
	Message            string                    `json:"message"`
	MissingCredentials map[string][]string       `json:"missing_credentials"`
	NodeInfo           map[string]map[string]any `json:"node_info"`
	Errors             map[string]string         `json:"errors"`
	ExecutedNodes      []string                  `json:"executed_nodes"`
	SkippedNodes       []string                  `json:"skipped_nodes"`
}

// Run posts the DAG to the engine and maps the response payload shapes onto
// the typed result and error taxonomy.
func (c *Client) Run(ctx context.Context, dag *models.ExecutionDAG) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, c.tracer, "execution.run",
		attribute.Int("flowplane.dag.nodes", len(dag.Nodes)),
		attribute.Int("flowplane.dag.edges", len(dag.Edges)),
	)
	defer span.End()

	payload, err := json.Marshal(dag)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execution request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build execution request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		tracing.RecordError(span, err)

		return nil, &NetworkError{Op: "execute workflow", Err: err}
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close execution response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err)

		return nil, &NetworkError{Op: "read execution response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseFailure(resp.StatusCode, body)
	}

	var envelope successEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode execution response: %w", err)
	}

	c.logger.Info("Workflow executed",
		"executed_nodes", len(envelope.Data.ExecutedNodes),
		"failed_nodes", len(envelope.Data.Errors))

	return &envelope.Data, nil
}

// parseFailure maps a non-2xx body onto the error taxonomy. The detail can
// be a structured object or a plain string; unrecognized shapes degrade to
// a generic message instead of a decode crash.
func (c *Client) parseFailure(status int, body []byte) error {
	var envelope failureEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return &NetworkError{Op: "execute workflow", Err: fmt.Errorf("engine returned status %d", status)}
	}

	var detail failureDetail
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		if len(detail.MissingCredentials) > 0 {
			return &MissingCredentialsError{
				Credentials: detail.MissingCredentials,
				Message:     detail.Message,
			}
		}

		if len(detail.Errors) > 0 {
			return &NodeExecutionError{
				Errors:        detail.Errors,
				ExecutedNodes: detail.ExecutedNodes,
				SkippedNodes:  detail.SkippedNodes,
				Message:       detail.Message,
			}
		}
	}

	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil && message != "" {
		return &NetworkError{Op: "execute workflow", Err: fmt.Errorf("engine returned status %d: %s", status, message)}
	}

	return &NetworkError{Op: "execute workflow", Err: fmt.Errorf("engine returned status %d", status)}
}
