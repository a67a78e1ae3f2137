// Package editor ties the graph store, dirty tracking, config cache,
// translation and execution together into the canvas editing session.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowplane/flowplane/pkg/catalog"
	"github.com/flowplane/flowplane/pkg/configcache"
	"github.com/flowplane/flowplane/pkg/eventbus"
	"github.com/flowplane/flowplane/pkg/events"
	"github.com/flowplane/flowplane/pkg/execution"
	"github.com/flowplane/flowplane/pkg/fingerprint"
	"github.com/flowplane/flowplane/pkg/graph"
	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/tracing"
	"github.com/flowplane/flowplane/pkg/translate"
	"github.com/flowplane/flowplane/pkg/uiengine"
)

// Config carries the editor's collaborators.
type Config struct {
	Logger      *slog.Logger
	Store       *graph.Store
	Detector    *fingerprint.Detector
	Cache       configcache.Store
	Registry    *catalog.Registry
	Translator  *translate.Translator
	Runner      execution.Runner
	Persistence persistence.Persistence
	Publisher   eventbus.EventPublisher
	Resolver    *uiengine.OptionResolver
	Tracer      trace.Tracer
}

// Editor is the aggregate behind one editing surface: a single workflow
// loaded into the graph store, with dirty tracking against the last save.
type Editor struct {
	mu sync.Mutex

	logger      *slog.Logger
	store       *graph.Store
	detector    *fingerprint.Detector
	cache       configcache.Store
	registry    *catalog.Registry
	translator  *translate.Translator
	runner      execution.Runner
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	resolver    *uiengine.OptionResolver
	tracer      trace.Tracer

	workflowID   string
	workflowName string
}

// NewEditor wires an editor. Node removal evicts the node's config cache
// entry so a later node with a recycled id never inherits a stale draft.
func NewEditor(cfg Config) *Editor {
	e := &Editor{
		logger:      cfg.Logger.With("module", "editor"),
		store:       cfg.Store,
		detector:    cfg.Detector,
		cache:       cfg.Cache,
		registry:    cfg.Registry,
		translator:  cfg.Translator,
		runner:      cfg.Runner,
		persistence: cfg.Persistence,
		publisher:   cfg.Publisher,
		resolver:    cfg.Resolver,
		tracer:      cfg.Tracer,
	}

	e.store.OnRemove(func(nodeID string) {
		if err := e.cache.Delete(context.Background(), nodeID); err != nil {
			e.logger.Warn("Failed to evict config cache entry", "node_id", nodeID, "error", err)
		}

		e.publishDirty(context.Background())
	})

	return e
}

// WorkflowID returns the id of the loaded workflow, empty when unsaved.
func (e *Editor) WorkflowID() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.workflowID
}

// WorkflowName returns the name of the loaded workflow.
func (e *Editor) WorkflowName() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.workflowName
}

// Hydrate loads a persisted workflow into the store. Hydration is idempotent
// by target id: asking for the workflow that is already loaded is a no-op, so
// unsaved edits and the dirty flag survive. Switching to a different workflow
// clears the config cache and rebuilds the graph from the persisted state,
// edge ids included.
func (e *Editor) Hydrate(ctx context.Context, workflowID string) error {
	ctx, span := tracing.StartSpan(ctx, e.tracer, "editor.hydrate",
		attribute.String(tracing.WorkflowIDKey, workflowID))
	defer span.End()

	e.mu.Lock()
	loaded := workflowID != "" && e.workflowID == workflowID
	e.mu.Unlock()

	if loaded {
		e.logger.Debug("Workflow already hydrated", "workflow_id", workflowID)

		return nil
	}

	workflow, err := e.persistence.WorkflowByID(ctx, workflowID)
	if err != nil {
		tracing.RecordError(span, err)

		return fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
	}

	e.detector.BeginHydration()

	if err := e.cache.Clear(ctx); err != nil {
		e.logger.Warn("Failed to clear config cache on workflow switch", "error", err)
	}

	e.store.Clear()

	for _, node := range workflow.Nodes {
		node.ExecutionState = models.ExecutionStateIdle

		if err := e.store.AddExistingNode(node); err != nil {
			e.detector.EndHydration(e.store.Nodes(), e.store.Edges())

			return fmt.Errorf("failed to hydrate node %s: %w", node.ID, err)
		}
	}

	for _, edge := range workflow.Edges {
		_, err := e.store.Connect(edge.Source, edge.SourceHandle, edge.Target, edge.TargetHandle)
		if err != nil {
			e.detector.EndHydration(e.store.Nodes(), e.store.Edges())

			return fmt.Errorf("failed to hydrate edge %s: %w", edge.ID, err)
		}
	}

	e.detector.EndHydration(e.store.Nodes(), e.store.Edges())

	e.mu.Lock()
	e.workflowID = workflow.ID
	e.workflowName = workflow.Name
	e.mu.Unlock()

	e.publish(ctx, workflow.ID, events.WorkflowHydrated{
		BaseEvent: e.baseEvent(events.WorkflowHydratedEvent, workflow.ID),
		Name:      workflow.Name,
		NodeCount: len(workflow.Nodes),
		EdgeCount: len(workflow.Edges),
	})

	e.logger.Info("Hydrated workflow",
		"workflow_id", workflow.ID, "nodes", len(workflow.Nodes), "edges", len(workflow.Edges))

	return nil
}

// NewWorkflow resets the editor to an empty unsaved workflow.
func (e *Editor) NewWorkflow(ctx context.Context, name string) {
	e.detector.BeginHydration()

	if err := e.cache.Clear(ctx); err != nil {
		e.logger.Warn("Failed to clear config cache", "error", err)
	}

	e.store.Clear()
	e.detector.EndHydration(nil, nil)

	e.mu.Lock()
	e.workflowID = ""
	e.workflowName = name
	e.mu.Unlock()
}

// AddNode instantiates a node of the given catalogue type.
func (e *Editor) AddNode(ctx context.Context, nodeType string, position models.Position) (*models.Node, error) {
	schema, err := e.registry.Get(nodeType)
	if err != nil {
		return nil, err
	}

	node, err := e.store.AddNode(schema, position)
	if err != nil {
		return nil, err
	}

	e.publishDirty(ctx)

	return node, nil
}

// RemoveNode drops a node, its incident edges and its cached draft.
func (e *Editor) RemoveNode(_ context.Context, nodeID string) error {
	// The store's removal hook evicts the cache entry and publishes dirty.
	return e.store.RemoveNode(nodeID)
}

// Connect creates an edge between two node handles.
func (e *Editor) Connect(ctx context.Context, sourceID, sourceHandle, targetID, targetHandle string) (*models.Edge, error) {
	edge, err := e.store.Connect(sourceID, sourceHandle, targetID, targetHandle)
	if err != nil {
		return nil, err
	}

	e.publishDirty(ctx)

	return edge, nil
}

// Disconnect removes an edge.
func (e *Editor) Disconnect(ctx context.Context, edgeID string) error {
	if err := e.store.Disconnect(edgeID); err != nil {
		return err
	}

	e.publishDirty(ctx)

	return nil
}

// MoveNode updates a node's canvas position. Positions never dirty the
// workflow.
func (e *Editor) MoveNode(_ context.Context, nodeID string, position models.Position) error {
	return e.store.UpdateNodePosition(nodeID, position)
}

// EditNode opens a configuration session for a node.
func (e *Editor) EditNode(ctx context.Context, nodeID string) (*uiengine.Session, error) {
	node, ok := e.store.Node(nodeID)
	if !ok {
		return nil, graph.ErrNodeNotFound
	}

	session, err := uiengine.NewSession(node, e.cache, e.resolver, e, e.logger)
	if err != nil {
		return nil, err
	}

	if err := session.Open(ctx); err != nil {
		return nil, err
	}

	return session, nil
}

// CommitParameters applies a saved configuration draft to the graph. It is
// the uiengine.Committer wiring.
func (e *Editor) CommitParameters(ctx context.Context, nodeID string, parameters models.Parameters) error {
	if err := e.store.UpdateNodeParameters(nodeID, parameters); err != nil {
		return err
	}

	e.publishDirty(ctx)

	return nil
}

// IsDirty reports whether the graph differs from the last saved state.
func (e *Editor) IsDirty() bool {
	return e.detector.IsDirty(e.store.Nodes(), e.store.Edges())
}

// Save persists the current graph and adopts it as the clean baseline.
func (e *Editor) Save(ctx context.Context) (*models.Workflow, error) {
	e.mu.Lock()
	workflow := &models.Workflow{
		ID:    e.workflowID,
		Name:  e.workflowName,
		Nodes: e.store.Nodes(),
		Edges: e.store.Edges(),
	}
	e.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, e.tracer, "editor.save",
		attribute.String(tracing.WorkflowIDKey, workflow.ID),
		attribute.String(tracing.WorkflowNameKey, workflow.Name))
	defer span.End()

	if err := e.persistence.SaveWorkflow(ctx, workflow); err != nil {
		tracing.RecordError(span, err)

		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	e.mu.Lock()
	e.workflowID = workflow.ID
	e.mu.Unlock()

	e.detector.Commit(workflow.Nodes, workflow.Edges)

	e.publish(ctx, workflow.ID, events.WorkflowSaved{
		BaseEvent:   e.baseEvent(events.WorkflowSavedEvent, workflow.ID),
		Name:        workflow.Name,
		Fingerprint: string(e.detector.Baseline()),
	})
	e.publishDirty(ctx)

	e.logger.Info("Saved workflow", "workflow_id", workflow.ID)

	return workflow, nil
}

// Run translates the graph and executes it against the backend engine. The
// run overlay marks every node running for the duration; results and
// per-node failures land on the nodes afterwards. A partially failed run
// still applies the successful branches' results.
func (e *Editor) Run(ctx context.Context) (*execution.Result, error) {
	workflowID := e.WorkflowID()

	ctx, span := tracing.StartSpan(ctx, e.tracer, "editor.run",
		attribute.String(tracing.WorkflowIDKey, workflowID))
	defer span.End()

	nodes := e.store.Nodes()
	edges := e.store.Edges()

	dag, err := e.translator.Translate(nodes, edges)
	if err != nil {
		tracing.RecordError(span, err)

		return nil, err
	}

	nodeIDs := make([]string, 0, len(nodes))
	for _, node := range nodes {
		nodeIDs = append(nodeIDs, node.ID)
	}

	edgeIDs := make([]string, 0, len(edges))
	for _, edge := range edges {
		edgeIDs = append(edgeIDs, edge.ID)
	}

	e.store.SetExecutionOverlay(nodeIDs, edgeIDs)
	e.publishNodeStates(ctx, workflowID, nodeIDs, models.ExecutionStateRunning)

	e.publish(ctx, workflowID, events.WorkflowExecutionStarted{
		BaseEvent: e.baseEvent(events.WorkflowExecutionStartedEvent, workflowID),
		NodeCount: len(dag.Nodes),
	})

	started := time.Now()

	result, err := e.runner.Run(ctx, dag)

	e.store.ClearExecutionOverlay()
	e.publishNodeStates(ctx, workflowID, nodeIDs, models.ExecutionStateIdle)

	if err != nil {
		tracing.RecordError(span, err)

		e.publish(ctx, workflowID, events.WorkflowExecutionFailed{
			BaseEvent: e.baseEvent(events.WorkflowExecutionFailedEvent, workflowID),
			Error:     err.Error(),
			Duration:  time.Since(started),
		})

		return nil, err
	}

	e.applyResult(result)

	failed := make([]string, 0, len(result.Errors))
	for nodeID := range result.Errors {
		failed = append(failed, nodeID)
	}

	e.publish(ctx, workflowID, events.WorkflowExecutionFinished{
		BaseEvent:     e.baseEvent(events.WorkflowExecutionFinishedEvent, workflowID),
		ExecutedNodes: result.ExecutedNodes,
		FailedNodes:   failed,
		Duration:      time.Since(started),
	})

	e.logger.Info("Workflow run finished",
		"workflow_id", workflowID,
		"executed_nodes", len(result.ExecutedNodes),
		"failed_nodes", len(failed),
		"duration", time.Since(started))

	return result, nil
}

// applyResult lands the run outcome on the graph: response payloads for the
// nodes that produced them, error payloads for the nodes that failed.
func (e *Editor) applyResult(result *execution.Result) {
	for nodeID, inputs := range result.ResponseInputs {
		if err := e.store.SetNodeResult(nodeID, inputs); err != nil {
			e.logger.Warn("Result for unknown node", "node_id", nodeID, "error", err)
		}
	}

	for nodeID, message := range result.Errors {
		if err := e.store.SetNodeResult(nodeID, map[string]any{"error": message}); err != nil {
			e.logger.Warn("Error for unknown node", "node_id", nodeID, "error", err)
		}
	}
}

// publishNodeStates mirrors an execution overlay change onto the event bus,
// one node.state.changed event per node.
func (e *Editor) publishNodeStates(ctx context.Context, workflowID string, nodeIDs []string, state models.ExecutionState) {
	for _, nodeID := range nodeIDs {
		e.publish(ctx, workflowID, events.NodeStateChanged{
			BaseEvent: e.baseEvent(events.NodeStateChangedEvent, workflowID),
			NodeID:    nodeID,
			State:     string(state),
		})
	}
}

func (e *Editor) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         eventbus.GenerateEventID(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (e *Editor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Editor) publishDirty(ctx context.Context) {
	e.publish(ctx, e.WorkflowID(), events.WorkflowDirty{
		BaseEvent: e.baseEvent(events.WorkflowDirtyEvent, e.WorkflowID()),
		Dirty:     e.IsDirty(),
	})
}
