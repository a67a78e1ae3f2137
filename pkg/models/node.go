// Package models defines the core domain models for the workflow canvas engine.
package models

// Position is the visual placement of a node on the canvas. Advisory only:
// it never participates in fingerprinting or translation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ExecutionState is the transient run state of a node on the canvas.
type ExecutionState string

const (
	ExecutionStateIdle    ExecutionState = "idle"
	ExecutionStateRunning ExecutionState = "running"
)

// NodeData carries the schema snapshot and the user-edited parameter values
// of a node instance. This is the "data" object of the persisted wire shape.
type NodeData struct {
	Schema     *NodeTypeSchema `json:"nodeSchema"`
	Parameters Parameters      `json:"parameters"`
}

// Node is a graph vertex instantiating a server-declared type schema.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Type     string   `json:"type"     validate:"required"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`

	// Transient, never persisted or fingerprinted.
	ExecutionState ExecutionState `json:"-"`
	LastResult     map[string]any `json:"-"`
}

// Role returns the structural role declared by the node's schema.
func (n *Node) Role() NodeRole {
	if n.Data.Schema == nil {
		return RoleNone
	}

	return n.Data.Schema.Role
}

// Clone returns a deep copy of the node. Translation and fingerprinting work
// on clones so the canonical graph is never mutated behind the store's back.
func (n *Node) Clone() *Node {
	clone := *n
	clone.Data.Parameters = n.Data.Parameters.Clone()

	return &clone
}

// Edge is a directed connection from a named output of one node to a named
// input of another.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"       validate:"required"`
	Target       string `json:"target"       validate:"required"`
	SourceHandle string `json:"sourceHandle" validate:"required"`
	TargetHandle string `json:"targetHandle" validate:"required"`

	// Transient run overlay flag.
	Executing bool `json:"-"`
}

// DeriveEdgeID builds the canonical edge identity from the connection
// endpoints. The derivation is a stated contract: re-creating an edge from a
// persisted payload always yields the same id, so hydration is idempotent.
func DeriveEdgeID(source, sourceHandle, target, targetHandle string) string {
	return "edge:" + source + ":" + sourceHandle + "->" + target + ":" + targetHandle
}
