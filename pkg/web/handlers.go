// Package web provides the REST API over the workflow canvas.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowplane/flowplane/pkg/catalog"
	"github.com/flowplane/flowplane/pkg/editor"
	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/uiengine"
)

type APIHandlers struct {
	editor      *editor.Editor
	persistence persistence.Persistence
	registry    *catalog.Registry
	options     uiengine.OptionSource
	validator   *validator.Validate
}

func NewAPIHandlers(
	canvasEditor *editor.Editor,
	persistence persistence.Persistence,
	registry *catalog.Registry,
	options uiengine.OptionSource,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		editor:      canvasEditor,
		persistence: persistence,
		registry:    registry,
		options:     options,
		validator:   validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	repositoryCheck := "Repository is healthy"
	repOk := true

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		repositoryCheck = err.Error()
		repOk = false
	}

	status := "unhealthy"
	message := "Flowplane API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Flowplane API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"catalogue":  registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	summaries := make([]WorkflowSummary, 0, len(workflows))
	for _, workflow := range workflows {
		summaries = append(summaries, SummarizeWorkflow(workflow))
	}

	return c.JSON(fiber.Map{"workflows": summaries})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(PresentWorkflow(workflow))
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{Name: req.Name}

	if req.Data != nil {
		workflow.Nodes = req.Data.Nodes
		workflow.Edges = req.Data.Edges
	}

	normalizeEdgeIDs(workflow.Edges)

	if err := h.persistence.SaveWorkflow(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(PresentWorkflow(workflow))
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.WorkflowByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Data != nil {
		existing.Nodes = req.Data.Nodes
		existing.Edges = req.Data.Edges
		normalizeEdgeIDs(existing.Edges)
	}

	if err := h.persistence.SaveWorkflow(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(PresentWorkflow(existing))
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.persistence.DeleteWorkflow(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunWorkflow hydrates a persisted workflow into the editor and executes it.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.editor.Hydrate(c.Context(), id); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	result, err := h.editor.Run(c.Context())
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// GetNodeTypes returns the node type catalogue.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	all := h.registry.All()

	schemas := make([]*models.NodeTypeSchema, 0, len(all))
	for _, id := range h.registry.Types() {
		schemas = append(schemas, all[id])
	}

	return c.JSON(fiber.Map{"schemas": schemas})
}

// GetNodeOptions resolves a dynamic option list, e.g. the models offered by
// a service. Upstream failures degrade to an empty list.
func (h *APIHandlers) GetNodeOptions(c fiber.Ctx) error {
	endpoint := c.Params("endpoint")
	key := c.Params("key")

	if endpoint == "" {
		return badRequest(c, "Option endpoint is required")
	}

	options, err := h.options.Fetch(c.Context(), endpoint, key)
	if err != nil {
		options = []string{}
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{endpoint: options},
	})
}

// normalizeEdgeIDs fills derived ids on edges that arrive without one, so
// persisted payloads always satisfy the id derivation contract.
func normalizeEdgeIDs(edges []*models.Edge) {
	for _, edge := range edges {
		if edge.ID == "" {
			edge.ID = models.DeriveEdgeID(edge.Source, edge.SourceHandle, edge.Target, edge.TargetHandle)
		}
	}
}
