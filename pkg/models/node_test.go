package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveEdgeID(t *testing.T) {
	id := DeriveEdgeID("query-1", "query", "agent-1", "input")
	assert.Equal(t, "edge:query-1:query->agent-1:input", id)

	// Same endpoints always derive the same id.
	assert.Equal(t, id, DeriveEdgeID("query-1", "query", "agent-1", "input"))

	// Any endpoint change produces a different id.
	assert.NotEqual(t, id, DeriveEdgeID("query-1", "query", "agent-1", "other"))
	assert.NotEqual(t, id, DeriveEdgeID("query-2", "query", "agent-1", "input"))
}

func TestNode_Role(t *testing.T) {
	node := &Node{ID: "n1", Type: "query"}
	assert.Equal(t, RoleNone, node.Role())

	node.Data.Schema = &NodeTypeSchema{ID: "query", Role: RoleEntry}
	assert.Equal(t, RoleEntry, node.Role())
}

func TestNode_CloneIsolatesParameters(t *testing.T) {
	node := &Node{
		ID:   "n1",
		Type: "agent",
		Data: NodeData{Parameters: Parameters{"service": String("openai")}},
	}

	clone := node.Clone()
	clone.Data.Parameters["service"] = String("anthropic")

	assert.Equal(t, "openai", node.Data.Parameters["service"].Str)
}

func TestNodeTypeSchema_Lookups(t *testing.T) {
	schema := &NodeTypeSchema{
		ID:         "agent",
		Name:       "Agent",
		Inputs:     []InputDef{{Name: "input", Multiple: true}},
		Outputs:    []OutputDef{{Name: "output"}},
		Parameters: []ParameterDef{{Name: "service", Required: true}},
	}

	input, ok := schema.Input("input")
	assert.True(t, ok)
	assert.True(t, input.Multiple)

	_, ok = schema.Input("missing")
	assert.False(t, ok)

	_, ok = schema.Output("output")
	assert.True(t, ok)

	param, ok := schema.Parameter("service")
	assert.True(t, ok)
	assert.True(t, param.Required)
}
