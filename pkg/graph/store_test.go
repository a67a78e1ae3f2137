package graph

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/pkg/models"
)

func testSchema(id string, role models.NodeRole) *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:      id,
		Name:    id,
		Role:    role,
		Inputs:  []models.InputDef{{Name: "input"}},
		Outputs: []models.OutputDef{{Name: "output"}},
	}
}

func multiInputSchema(id string) *models.NodeTypeSchema {
	return &models.NodeTypeSchema{
		ID:      id,
		Name:    id,
		Inputs:  []models.InputDef{{Name: "input", Multiple: true}},
		Outputs: []models.OutputDef{{Name: "output"}},
	}
}

func newTestStore() *Store {
	return NewStore(slog.Default())
}

func TestStore_AddNode_AssignsUniqueIDs(t *testing.T) {
	store := newTestStore()

	first, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{X: 1, Y: 2})
	require.NoError(t, err)

	second, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "agent", first.Type)
	assert.Equal(t, models.Position{X: 1, Y: 2}, first.Position)
	assert.NotNil(t, first.Data.Parameters)
}

func TestStore_AddNode_RejectsDuplicateRole(t *testing.T) {
	store := newTestStore()

	_, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	_, err = store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.Error(t, err)
	assert.True(t, IsDuplicateRole(err))

	var roleErr *DuplicateRoleError

	require.True(t, errors.As(err, &roleErr))
	assert.Equal(t, models.RoleEntry, roleErr.Role)

	// A second terminal is equally rejected; roles are checked independently.
	_, err = store.AddNode(testSchema("response", models.RoleTerminal), models.Position{})
	require.NoError(t, err)

	_, err = store.AddNode(testSchema("response", models.RoleTerminal), models.Position{})
	assert.True(t, IsDuplicateRole(err))
}

func TestStore_Connect_DerivesEdgeID(t *testing.T) {
	store := newTestStore()

	source, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	target, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	edge, err := store.Connect(source.ID, "output", target.ID, "input")
	require.NoError(t, err)
	assert.Equal(t, models.DeriveEdgeID(source.ID, "output", target.ID, "input"), edge.ID)
}

func TestStore_Connect_Failures(t *testing.T) {
	store := newTestStore()

	source, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	target, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	_, err = store.Connect(source.ID, "output", source.ID, "input")
	assert.ErrorIs(t, err, ErrSelfLoop)

	_, err = store.Connect(source.ID, "output", "ghost", "input")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = store.Connect(source.ID, "output", target.ID, "input")
	require.NoError(t, err)

	// Reconnecting the same pair is a duplicate, not a silent double edge.
	_, err = store.Connect(source.ID, "output", target.ID, "input")
	assert.ErrorIs(t, err, ErrDuplicateEdge)
	assert.Len(t, store.Edges(), 1)

	var connectErr *ConnectError

	require.True(t, errors.As(err, &connectErr))
	assert.Equal(t, source.ID, connectErr.Source)
	assert.Equal(t, target.ID, connectErr.Target)
}

func TestStore_Connect_EnforcesSingleInbound(t *testing.T) {
	store := newTestStore()

	first, err := store.AddNode(testSchema("prompt", models.RoleNone), models.Position{})
	require.NoError(t, err)

	second, err := store.AddNode(testSchema("knowledge-base", models.RoleNone), models.Position{})
	require.NoError(t, err)

	target, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	_, err = store.Connect(first.ID, "output", target.ID, "input")
	require.NoError(t, err)

	_, err = store.Connect(second.ID, "output", target.ID, "input")
	assert.ErrorIs(t, err, ErrInputOccupied)
}

func TestStore_Connect_AllowsDeclaredMultiInput(t *testing.T) {
	store := newTestStore()

	first, err := store.AddNode(testSchema("prompt", models.RoleNone), models.Position{})
	require.NoError(t, err)

	second, err := store.AddNode(testSchema("knowledge-base", models.RoleNone), models.Position{})
	require.NoError(t, err)

	target, err := store.AddNode(multiInputSchema("response"), models.Position{})
	require.NoError(t, err)

	_, err = store.Connect(first.ID, "output", target.ID, "input")
	require.NoError(t, err)

	_, err = store.Connect(second.ID, "output", target.ID, "input")
	require.NoError(t, err)

	assert.Len(t, store.Edges(), 2)
}

func TestStore_RemoveNode_DropsIncidentEdges(t *testing.T) {
	store := newTestStore()

	a, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	b, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	c, err := store.AddNode(testSchema("response", models.RoleTerminal), models.Position{})
	require.NoError(t, err)

	_, err = store.Connect(a.ID, "output", b.ID, "input")
	require.NoError(t, err)

	_, err = store.Connect(b.ID, "output", c.ID, "input")
	require.NoError(t, err)

	require.NoError(t, store.RemoveNode(b.ID))

	// No dangling edges: everything touching the removed node is gone.
	assert.Empty(t, store.Edges())
	assert.Len(t, store.Nodes(), 2)

	_, ok := store.Node(b.ID)
	assert.False(t, ok)
}

func TestStore_RemoveNode_FiresHooks(t *testing.T) {
	store := newTestStore()

	var removed []string

	store.OnRemove(func(nodeID string) {
		removed = append(removed, nodeID)
	})

	node, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	require.NoError(t, store.RemoveNode(node.ID))
	assert.Equal(t, []string{node.ID}, removed)

	assert.ErrorIs(t, store.RemoveNode(node.ID), ErrNodeNotFound)
	assert.Len(t, removed, 1)
}

func TestStore_RemoveRoleNode_AllowsReAdd(t *testing.T) {
	store := newTestStore()

	node, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	require.NoError(t, store.RemoveNode(node.ID))

	_, err = store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	assert.NoError(t, err)
}

func TestStore_UpdateNodeParameters_Merges(t *testing.T) {
	store := newTestStore()

	node, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	require.NoError(t, store.UpdateNodeParameters(node.ID, models.Parameters{
		"service": models.String("openai"),
	}))
	require.NoError(t, store.UpdateNodeParameters(node.ID, models.Parameters{
		"model": models.String("gpt-4o"),
	}))

	current, _ := store.Node(node.ID)
	assert.Equal(t, "openai", current.Data.Parameters["service"].Str)
	assert.Equal(t, "gpt-4o", current.Data.Parameters["model"].Str)

	assert.ErrorIs(t, store.UpdateNodeParameters("ghost", nil), ErrNodeNotFound)
}

func TestStore_ExecutionOverlay(t *testing.T) {
	store := newTestStore()

	a, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	b, err := store.AddNode(testSchema("response", models.RoleTerminal), models.Position{})
	require.NoError(t, err)

	edge, err := store.Connect(a.ID, "output", b.ID, "input")
	require.NoError(t, err)

	store.SetExecutionOverlay([]string{a.ID}, []string{edge.ID})

	nodeA, _ := store.Node(a.ID)
	nodeB, _ := store.Node(b.ID)
	assert.Equal(t, models.ExecutionStateRunning, nodeA.ExecutionState)
	assert.Equal(t, models.ExecutionStateIdle, nodeB.ExecutionState)
	assert.True(t, store.Edges()[0].Executing)

	store.ClearExecutionOverlay()

	nodeA, _ = store.Node(a.ID)
	assert.Equal(t, models.ExecutionStateIdle, nodeA.ExecutionState)
	assert.False(t, store.Edges()[0].Executing)
}

func TestStore_NodeByRole(t *testing.T) {
	store := newTestStore()

	entry, err := store.AddNode(testSchema("query", models.RoleEntry), models.Position{})
	require.NoError(t, err)

	found, ok := store.NodeByRole(models.RoleEntry)
	require.True(t, ok)
	assert.Equal(t, entry.ID, found.ID)

	_, ok = store.NodeByRole(models.RoleTerminal)
	assert.False(t, ok)
}

func TestStore_Clear_DoesNotFireHooks(t *testing.T) {
	store := newTestStore()

	fired := false

	store.OnRemove(func(string) { fired = true })

	_, err := store.AddNode(testSchema("agent", models.RoleNone), models.Position{})
	require.NoError(t, err)

	store.Clear()

	assert.Empty(t, store.Nodes())
	assert.False(t, fired)
}
