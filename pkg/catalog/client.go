package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/flowplane/flowplane/pkg/execution"
	"github.com/flowplane/flowplane/pkg/models"
)

const fetchTimeout = 15 * time.Second

// Client fetches server-declared schemas and dynamic option sets over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a catalogue client against baseURL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: fetchTimeout},
		logger:  logger,
	}
}

type schemasEnvelope struct {
	Schemas map[string]*models.NodeTypeSchema `json:"schemas"`
}

// FetchSchemas loads the node type catalogue. A failed fetch is a
// non-critical read: it returns an empty map and a NetworkError the caller
// may log and ignore.
func (c *Client) FetchSchemas(ctx context.Context) (map[string]*models.NodeTypeSchema, error) {
	body, err := c.get(ctx, c.baseURL+"/nodes/")
	if err != nil {
		return map[string]*models.NodeTypeSchema{}, err
	}

	var envelope schemasEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return map[string]*models.NodeTypeSchema{}, &execution.NetworkError{
			Op:  "decode node catalogue",
			Err: err,
		}
	}

	if envelope.Schemas == nil {
		return map[string]*models.NodeTypeSchema{}, nil
	}

	return envelope.Schemas, nil
}

type optionsEnvelope struct {
	Data map[string][]string `json:"data"`
}

// Fetch implements uiengine.OptionSource over the dynamic option endpoints,
// e.g. GET /nodes/models/openai -> {"data": {"models": [...]}}. A non-200
// response means "no options available", never a crash.
func (c *Client) Fetch(ctx context.Context, endpoint, key string) ([]string, error) {
	target := c.baseURL + "/nodes/" + url.PathEscape(endpoint) + "/" + url.PathEscape(key)

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}

	var envelope optionsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &execution.NetworkError{Op: "decode option set " + endpoint, Err: err}
	}

	if options, ok := envelope.Data[endpoint]; ok {
		return options, nil
	}

	// Tolerate endpoints that name their list differently.
	for _, options := range envelope.Data {
		return options, nil
	}

	return []string{}, nil
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &execution.NetworkError{Op: "fetch " + target, Err: err}
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &execution.NetworkError{
			Op:  "fetch " + target,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &execution.NetworkError{Op: "read " + target, Err: err}
	}

	return body, nil
}
