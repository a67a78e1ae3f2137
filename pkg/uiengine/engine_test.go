package uiengine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/pkg/configcache"
	"github.com/flowplane/flowplane/pkg/models"
)

func intPtr(v int) *int             { return &v }
func floatPtr(v float64) *float64   { return &v }
func valPtr(v models.Value) *models.Value { return &v }

// recordingCommitter captures commits and can be told to fail.
type recordingCommitter struct {
	mu      sync.Mutex
	commits map[string]models.Parameters
	err     error
}

func newRecordingCommitter() *recordingCommitter {
	return &recordingCommitter{commits: make(map[string]models.Parameters)}
}

func (c *recordingCommitter) CommitParameters(_ context.Context, nodeID string, parameters models.Parameters) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}

	c.commits[nodeID] = parameters.Clone()

	return nil
}

func (c *recordingCommitter) committed(nodeID string) (models.Parameters, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	params, ok := c.commits[nodeID]

	return params, ok
}

func agentUISchema() *models.UISchema {
	return &models.UISchema{
		Groups: []models.UIGroup{
			{
				Title: "Provider",
				Components: []models.UIComponent{
					{
						Name:         "service",
						Type:         models.ComponentSelect,
						Label:        "Service",
						Options:      []string{"openai", "anthropic"},
						DefaultValue: valPtr(models.String("openai")),
						Constraints:  models.Constraints{Required: true},
					},
					{
						Name:           "model",
						Type:           models.ComponentSelect,
						Label:          "Model",
						Constraints:    models.Constraints{Required: true},
						DynamicOptions: &models.DynamicOptions{Endpoint: "models", DependsOn: "service"},
					},
					{
						Name:        "temperature",
						Type:        models.ComponentSlider,
						Constraints: models.Constraints{Min: floatPtr(0), Max: floatPtr(2)},
					},
					{Name: "info", Type: models.ComponentLabel, Label: "Provider settings"},
				},
			},
			{
				Title: "Endpoint",
				Components: []models.UIComponent{
					{
						Name:        "url",
						Type:        models.ComponentText,
						Constraints: models.Constraints{Pattern: `^https?://`, MaxLength: intPtr(200)},
					},
					{Name: "hologram", Type: models.ComponentType("hologram")},
				},
			},
		},
	}
}

func agentNode(params models.Parameters) *models.Node {
	return &models.Node{
		ID:   "agent-1",
		Type: "agent",
		Data: models.NodeData{
			Schema: &models.NodeTypeSchema{
				ID:       "agent",
				Name:     "Agent",
				UIConfig: agentUISchema(),
			},
			Parameters: params,
		},
	}
}

type testHarness struct {
	session   *Session
	cache     *configcache.MemoryStore
	source    *gateSource
	committer *recordingCommitter
}

func newHarness(t *testing.T, params models.Parameters) *testHarness {
	t.Helper()

	cache := configcache.NewMemoryStore()
	source := newGateSource()
	committer := newRecordingCommitter()

	session, err := NewSession(
		agentNode(params),
		cache,
		NewOptionResolver(source, slog.Default()),
		committer,
		slog.Default(),
	)
	require.NoError(t, err)

	return &testHarness{session: session, cache: cache, source: source, committer: committer}
}

func findField(t *testing.T, groups []GroupView, name string) FieldView {
	t.Helper()

	for _, group := range groups {
		for _, field := range group.Fields {
			if field.Name == name {
				return field
			}
		}
	}

	t.Fatalf("field %s not rendered", name)

	return FieldView{}
}

func TestSession_RequiresUISchema(t *testing.T) {
	node := &models.Node{ID: "n1", Data: models.NodeData{Schema: &models.NodeTypeSchema{ID: "bare"}}}

	_, err := NewSession(node, configcache.NewMemoryStore(), NewOptionResolver(newGateSource(), slog.Default()), newRecordingCommitter(), slog.Default())
	assert.ErrorIs(t, err, ErrNoUISchema)
}

func TestSession_OpenSeedsFromCommitted(t *testing.T) {
	h := newHarness(t, models.Parameters{"service": models.String("anthropic")})

	require.NoError(t, h.session.Open(context.Background()))
	assert.Equal(t, StateEditing, h.session.State())

	value, ok := h.session.Value("service")
	require.True(t, ok)
	assert.Equal(t, "anthropic", value.Str)
}

func TestSession_OpenPrefersCachedDraft(t *testing.T) {
	h := newHarness(t, models.Parameters{"service": models.String("openai")})

	require.NoError(t, h.cache.Save(context.Background(), "agent-1", models.Parameters{
		"service": models.String("anthropic"),
	}))

	require.NoError(t, h.session.Open(context.Background()))

	value, ok := h.session.Value("service")
	require.True(t, ok)
	assert.Equal(t, "anthropic", value.Str)
}

func TestSession_ValueFallsBackToComponentDefault(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.session.Open(context.Background()))

	value, ok := h.session.Value("service")
	require.True(t, ok)
	assert.Equal(t, "openai", value.Str)
}

func TestSession_SetValueRequiresEditing(t *testing.T) {
	h := newHarness(t, nil)

	err := h.session.SetValue(context.Background(), "service", models.String("openai"))
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestSession_RenderMarksUnsupportedComponents(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.session.Open(context.Background()))

	field := findField(t, h.session.Render(), "hologram")
	assert.True(t, field.Unsupported)
	assert.True(t, field.Disabled)
}

func TestSession_RenderShowsLoadingForDynamicOptions(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.session.Open(context.Background()))

	// The model list for the default service is being fetched.
	field := findField(t, h.session.Render(), "model")
	assert.True(t, field.Loading)
	assert.True(t, field.Disabled)
	assert.Empty(t, field.Options)

	h.source.set("openai", []string{"gpt-4o"})
	h.source.release("openai")

	require.Eventually(t, func() bool {
		f := findField(t, h.session.Render(), "model")

		return !f.Loading && len(f.Options) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_LateArrivalClearsStaleSelection(t *testing.T) {
	h := newHarness(t, models.Parameters{
		"service": models.String("openai"),
		"model":   models.String("gpt-4o"),
	})

	require.NoError(t, h.session.Open(context.Background()))

	// Switch the governing field; the dependent fetch for the new key starts.
	require.NoError(t, h.session.SetValue(context.Background(), "service", models.String("anthropic")))

	h.source.set("anthropic", []string{"claude-sonnet"})
	h.source.release("anthropic")

	// The old selection is not offered by the new provider, so it clears
	// once the list arrives.
	require.Eventually(t, func() bool {
		value, ok := h.session.Value("model")

		return !ok || value.Str != "gpt-4o"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSession_StaleArrivalNeverTouchesDraft(t *testing.T) {
	h := newHarness(t, models.Parameters{"service": models.String("openai")})

	require.NoError(t, h.session.Open(context.Background()))

	// Move to anthropic and pick a model while openai's list is in flight.
	require.NoError(t, h.session.SetValue(context.Background(), "service", models.String("anthropic")))
	require.NoError(t, h.session.SetValue(context.Background(), "model", models.String("claude-sonnet")))

	h.source.set("anthropic", []string{"claude-sonnet"})
	h.source.release("anthropic")

	// The stale openai response arrives last. It must populate the cache and
	// nothing else.
	h.source.set("openai", []string{"gpt-4o"})
	h.source.release("openai")

	require.Eventually(t, func() bool {
		_, ok := h.session.resolver.Cached("models", "openai")

		return ok
	}, 2*time.Second, 10*time.Millisecond)

	value, ok := h.session.Value("model")
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet", value.Str)
}

func TestSession_SaveBlocksOnMissingRequired(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.session.Open(context.Background()))

	err := h.session.Save(context.Background())
	require.Error(t, err)

	var validationErr *ValidationError

	require.True(t, errors.As(err, &validationErr))

	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}

	// The model has no declared default, so it blocks. The service renders
	// with its default and passes.
	assert.Contains(t, fields, "model")
	assert.NotContains(t, fields, "service")

	// The failed save left the session editing and committed nothing.
	assert.Equal(t, StateEditing, h.session.State())

	_, ok := h.committer.committed("agent-1")
	assert.False(t, ok)
}

func TestSession_SaveCommitsDeclaredDefaults(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.session.Open(ctx))

	// The service select renders prefilled with "openai"; the user only
	// picks a model. Saving must accept the rendered default and commit it.
	require.NoError(t, h.session.SetValue(ctx, "model", models.String("gpt-4o")))

	require.NoError(t, h.session.Save(ctx))
	assert.Equal(t, StateIdle, h.session.State())

	committed, ok := h.committer.committed("agent-1")
	require.True(t, ok)
	assert.Equal(t, "openai", committed["service"].Str)
	assert.Equal(t, "gpt-4o", committed["model"].Str)
}

func TestSession_SaveBlocksOnConstraintViolations(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.session.Open(context.Background()))
	require.NoError(t, h.session.SetValue(context.Background(), "service", models.String("openai")))
	require.NoError(t, h.session.SetValue(context.Background(), "model", models.String("gpt-4o")))
	require.NoError(t, h.session.SetValue(context.Background(), "url", models.String("ftp://nope")))
	require.NoError(t, h.session.SetValue(context.Background(), "temperature", models.Number(3)))

	err := h.session.Save(context.Background())
	require.Error(t, err)

	var validationErr *ValidationError

	require.True(t, errors.As(err, &validationErr))

	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}

	assert.Contains(t, fields, "url")
	assert.Contains(t, fields, "temperature")
}

func TestSession_SaveCommitsAndCaches(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	require.NoError(t, h.session.Open(ctx))
	require.NoError(t, h.session.SetValue(ctx, "service", models.String("openai")))
	require.NoError(t, h.session.SetValue(ctx, "model", models.String("gpt-4o")))

	require.NoError(t, h.session.Save(ctx))
	assert.Equal(t, StateIdle, h.session.State())

	committed, ok := h.committer.committed("agent-1")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", committed["model"].Str)

	cached, ok, err := h.cache.Load(ctx, "agent-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", cached["model"].Str)
}

func TestSession_SaveRevertsToEditingOnCommitFailure(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.committer.err = errors.New("graph unavailable")

	require.NoError(t, h.session.Open(ctx))
	require.NoError(t, h.session.SetValue(ctx, "service", models.String("openai")))
	require.NoError(t, h.session.SetValue(ctx, "model", models.String("gpt-4o")))

	err := h.session.Save(ctx)
	require.Error(t, err)
	assert.Equal(t, StateEditing, h.session.State())
}

func TestSession_CancelDiscardsDraft(t *testing.T) {
	h := newHarness(t, models.Parameters{"service": models.String("openai")})
	ctx := context.Background()

	require.NoError(t, h.session.Open(ctx))
	require.NoError(t, h.session.SetValue(ctx, "service", models.String("anthropic")))

	h.session.Cancel()
	assert.Equal(t, StateIdle, h.session.State())

	_, ok := h.committer.committed("agent-1")
	assert.False(t, ok)
}

func TestSession_SchemaValidationAtSave(t *testing.T) {
	node := agentNode(nil)
	node.Data.Schema.ParamSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"temperature": map[string]any{"type": "number", "maximum": 2},
		},
	}

	session, err := NewSession(node, configcache.NewMemoryStore(),
		NewOptionResolver(newGateSource(), slog.Default()), newRecordingCommitter(), slog.Default())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, session.Open(ctx))
	require.NoError(t, session.SetValue(ctx, "service", models.String("openai")))
	require.NoError(t, session.SetValue(ctx, "model", models.String("gpt-4o")))
	require.NoError(t, session.SetValue(ctx, "temperature", models.Number(5)))

	err = session.Save(ctx)
	require.Error(t, err)

	var validationErr *ValidationError

	require.True(t, errors.As(err, &validationErr))
}
