package models

import "time"

// Workflow is the aggregate the canvas edits: a named, ordered set of nodes
// and a set of edges. ID is empty for unsaved workflows. Timestamps are
// owned by the persistence layer.
type Workflow struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name" validate:"required,min=1"`
	Nodes     []*Node   `json:"nodes"`
	Edges     []*Edge   `json:"edges"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// WorkflowData is the persisted "data" payload: the node/edge JSON shape
// shared by the store and the canvas.
type WorkflowData struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}
