// Package web provides HTTP request and response types for the canvas API.
package web

import (
	"time"

	"github.com/flowplane/flowplane/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new
// workflow. The graph travels in the data envelope; omitting it creates an
// empty canvas.
type CreateWorkflowRequest struct {
	Name string               `json:"name" validate:"required,min=1"`
	Data *models.WorkflowData `json:"data,omitempty"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. Both fields are optional: name-only renames and graph-only saves
// are valid partial updates.
type UpdateWorkflowRequest struct {
	Name *string              `json:"name,omitempty" validate:"omitempty,min=1"`
	Data *models.WorkflowData `json:"data,omitempty"`
}

// WorkflowResponse is the wire shape of a single workflow: the graph sits
// under data, the rest of the aggregate at the top level.
type WorkflowResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Data      models.WorkflowData `json:"data"`
	CreatedAt time.Time           `json:"created_at,omitempty"`
	UpdatedAt time.Time           `json:"updated_at,omitempty"`
}

// PresentWorkflow projects a workflow into its wire representation.
func PresentWorkflow(workflow *models.Workflow) WorkflowResponse {
	nodes := workflow.Nodes
	if nodes == nil {
		nodes = []*models.Node{}
	}

	edges := workflow.Edges
	if edges == nil {
		edges = []*models.Edge{}
	}

	return WorkflowResponse{
		ID:        workflow.ID,
		Name:      workflow.Name,
		Data:      models.WorkflowData{Nodes: nodes, Edges: edges},
		CreatedAt: workflow.CreatedAt,
		UpdatedAt: workflow.UpdatedAt,
	}
}

// WorkflowSummary is the list projection of a workflow: graph contents are
// omitted so listing stays cheap.
type WorkflowSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

// SummarizeWorkflow projects a workflow into its list representation.
func SummarizeWorkflow(workflow *models.Workflow) WorkflowSummary {
	return WorkflowSummary{
		ID:        workflow.ID,
		Name:      workflow.Name,
		NodeCount: len(workflow.Nodes),
		EdgeCount: len(workflow.Edges),
	}
}
