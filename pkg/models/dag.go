package models

// DAGNode is the wire-level projection of a node for the execution engine.
type DAGNode struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

// DAGEndpoint names one side of a DAG edge.
type DAGEndpoint struct {
	Node   string `json:"node"`
	Output string `json:"output,omitempty"`
	Input  string `json:"input,omitempty"`
}

// DAGEdge connects a node output to a node input in the execution contract.
type DAGEdge struct {
	From DAGEndpoint `json:"from"`
	To   DAGEndpoint `json:"to"`
}

// ExecutionDAG is the backend-consumable projection of the graph. Edges
// preserve graph insertion order so translation stays byte-deterministic.
type ExecutionDAG struct {
	Nodes map[string]DAGNode `json:"nodes"`
	Edges []DAGEdge          `json:"edges"`
}
