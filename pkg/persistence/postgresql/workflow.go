package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// GetAll returns all workflows from the database.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , created_at
		  , updated_at
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var workflow models.Workflow

		err := rows.Scan(&workflow.ID, &workflow.Name, &workflow.CreatedAt, &workflow.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		err = r.loadNodesAndEdges(ctx, &workflow)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow graph: %w", err)
		}

		workflows = append(workflows, &workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns one workflow with its nodes and edges.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT
			id
		  , name
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	var workflow models.Workflow

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&workflow.ID, &workflow.Name, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	if err := r.loadNodesAndEdges(ctx, &workflow); err != nil {
		return nil, fmt.Errorf("failed to load workflow graph: %w", err)
	}

	return &workflow, nil
}

// Save upserts a workflow and replaces its nodes and edges.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflowQuery := `
		INSERT INTO workflows (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at
	`

	_, err = tx.ExecContext(ctx, workflowQuery,
		workflow.ID,
		workflow.Name,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow base: %w", err)
	}

	// Replace graph contents on every save.
	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_edges WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing edges: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_nodes WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing nodes: %w", err)
	}

	err = r.saveNodes(ctx, tx, workflow)
	if err != nil {
		return fmt.Errorf("failed to save workflow nodes: %w", err)
	}

	err = r.saveEdges(ctx, tx, workflow)
	if err != nil {
		return fmt.Errorf("failed to save workflow edges: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft deletes a workflow by setting the deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) loadNodesAndEdges(ctx context.Context, workflow *models.Workflow) error {
	nodesQuery := `
		SELECT id, node_type, position_x, position_y, node_schema, parameters
		FROM workflow_nodes
		WHERE workflow_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, nodesQuery, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query workflow nodes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	nodes := make([]*models.Node, 0)

	for rows.Next() {
		var (
			node                       models.Node
			schemaJSON, parametersJSON []byte
		)

		err := rows.Scan(
			&node.ID,
			&node.Type,
			&node.Position.X,
			&node.Position.Y,
			&schemaJSON,
			&parametersJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}

		if schemaJSON != nil {
			err := json.Unmarshal(schemaJSON, &node.Data.Schema)
			if err != nil {
				return fmt.Errorf("failed to unmarshal node schema: %w", err)
			}
		}

		if parametersJSON != nil {
			err := json.Unmarshal(parametersJSON, &node.Data.Parameters)
			if err != nil {
				return fmt.Errorf("failed to unmarshal node parameters: %w", err)
			}
		}

		nodes = append(nodes, &node)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating nodes: %w", err)
	}

	workflow.Nodes = nodes

	edgesQuery := `
		SELECT id, source_node_id, source_handle, target_node_id, target_handle
		FROM workflow_edges
		WHERE workflow_id = $1
		ORDER BY created_at
	`

	rows, err = r.db.QueryContext(ctx, edgesQuery, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query workflow edges: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	edges := make([]*models.Edge, 0)

	for rows.Next() {
		var edge models.Edge

		err := rows.Scan(
			&edge.ID,
			&edge.Source,
			&edge.SourceHandle,
			&edge.Target,
			&edge.TargetHandle,
		)
		if err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}

		edges = append(edges, &edge)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating edges: %w", err)
	}

	workflow.Edges = edges

	return nil
}

func (r *WorkflowRepository) saveNodes(ctx context.Context, tx *sql.Tx, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflow_nodes (workflow_id, id, node_type, position_x, position_y, node_schema, parameters)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, node := range workflow.Nodes {
		schemaJSON, err := json.Marshal(node.Data.Schema)
		if err != nil {
			return fmt.Errorf("failed to marshal node schema: %w", err)
		}

		parametersJSON, err := json.Marshal(node.Data.Parameters)
		if err != nil {
			return fmt.Errorf("failed to marshal node parameters: %w", err)
		}

		_, err = tx.ExecContext(ctx, query,
			workflow.ID,
			node.ID,
			node.Type,
			node.Position.X,
			node.Position.Y,
			schemaJSON,
			parametersJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to save node %s: %w", node.ID, err)
		}
	}

	return nil
}

func (r *WorkflowRepository) saveEdges(ctx context.Context, tx *sql.Tx, workflow *models.Workflow) error {
	query := `
		INSERT INTO workflow_edges (workflow_id, id, source_node_id, source_handle, target_node_id, target_handle)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, edge := range workflow.Edges {
		id := edge.ID
		if id == "" {
			id = models.DeriveEdgeID(edge.Source, edge.SourceHandle, edge.Target, edge.TargetHandle)
		}

		_, err := tx.ExecContext(ctx, query,
			workflow.ID,
			id,
			edge.Source,
			edge.SourceHandle,
			edge.Target,
			edge.TargetHandle,
		)
		if err != nil {
			return fmt.Errorf("failed to save edge %s: %w", id, err)
		}
	}

	return nil
}
