package graph

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flowplane/flowplane/pkg/models"
)

// RemoveHook is notified after a node leaves the graph so dependent state
// (config cache entries, selection) can be cleared.
type RemoveHook func(nodeID string)

// Store is the canonical owner of a workflow's nodes and edges. All
// mutations are synchronous and observable immediately; insertion order of
// nodes and edges is preserved for deterministic downstream projections.
type Store struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	nodes    []*models.Node
	nodeByID map[string]*models.Node
	edges    []*models.Edge
	edgeByID map[string]*models.Edge
	onRemove []RemoveHook
}

// NewStore creates an empty graph store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger:   logger,
		nodes:    make([]*models.Node, 0),
		nodeByID: make(map[string]*models.Node),
		edges:    make([]*models.Edge, 0),
		edgeByID: make(map[string]*models.Edge),
	}
}

// OnRemove registers a hook called after RemoveNode drops a node.
func (s *Store) OnRemove(hook RemoveHook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onRemove = append(s.onRemove, hook)
}

// AddNode instantiates a node of the given type schema at a position.
// Adding a second entry-role or terminal-role node is rejected with a
// DuplicateRoleError naming the role.
func (s *Store) AddNode(schema *models.NodeTypeSchema, position models.Position) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if schema.Role != models.RoleNone {
		for _, existing := range s.nodes {
			if existing.Role() == schema.Role {
				return nil, &DuplicateRoleError{Role: schema.Role}
			}
		}
	}

	node := &models.Node{
		ID:             schema.ID + "-" + uuid.New().String(),
		Type:           schema.ID,
		Position:       position,
		Data:           models.NodeData{Schema: schema, Parameters: models.Parameters{}},
		ExecutionState: models.ExecutionStateIdle,
	}

	s.nodes = append(s.nodes, node)
	s.nodeByID[node.ID] = node

	s.logger.Debug("Added node", "node_id", node.ID, "type", node.Type)

	return node, nil
}

// AddExistingNode inserts an already-built node, used when hydrating a
// persisted workflow. The same role invariant applies.
func (s *Store) AddExistingNode(node *models.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role := node.Role(); role != models.RoleNone {
		for _, existing := range s.nodes {
			if existing.Role() == role {
				return &DuplicateRoleError{Role: role}
			}
		}
	}

	if node.Data.Parameters == nil {
		node.Data.Parameters = models.Parameters{}
	}

	s.nodes = append(s.nodes, node)
	s.nodeByID[node.ID] = node

	return nil
}

// RemoveNode drops a node and every edge incident to it, then notifies the
// removal hooks.
func (s *Store) RemoveNode(id string) error {
	s.mu.Lock()

	node, ok := s.nodeByID[id]
	if !ok {
		s.mu.Unlock()

		return ErrNodeNotFound
	}

	delete(s.nodeByID, id)

	for i, n := range s.nodes {
		if n == node {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)

			break
		}
	}

	kept := s.edges[:0]

	for _, edge := range s.edges {
		if edge.Source == id || edge.Target == id {
			delete(s.edgeByID, edge.ID)

			continue
		}

		kept = append(kept, edge)
	}

	s.edges = kept
	hooks := append([]RemoveHook(nil), s.onRemove...)

	s.mu.Unlock()

	for _, hook := range hooks {
		hook(id)
	}

	s.logger.Debug("Removed node", "node_id", id)

	return nil
}

// UpdateNodeParameters applies a partial parameter patch to a node.
func (s *Store) UpdateNodeParameters(id string, patch models.Parameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodeByID[id]
	if !ok {
		return ErrNodeNotFound
	}

	if node.Data.Parameters == nil {
		node.Data.Parameters = models.Parameters{}
	}

	for name, value := range patch {
		node.Data.Parameters[name] = value
	}

	return nil
}

// UpdateNodePosition moves a node on the canvas. Position changes never
// affect the graph fingerprint.
func (s *Store) UpdateNodePosition(id string, position models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodeByID[id]
	if !ok {
		return ErrNodeNotFound
	}

	node.Position = position

	return nil
}

// Connect creates an edge between a named output and a named input. The
// edge id is derived from the endpoints, so reconnecting the same pair is
// rejected as a duplicate rather than silently doubled.
func (s *Store) Connect(sourceID, sourceHandle, targetID, targetHandle string) (*models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fail := func(err error) (*models.Edge, error) {
		return nil, &ConnectError{
			Source:       sourceID,
			SourceHandle: sourceHandle,
			Target:       targetID,
			TargetHandle: targetHandle,
			Err:          err,
		}
	}

	if sourceID == targetID {
		return fail(ErrSelfLoop)
	}

	if _, ok := s.nodeByID[sourceID]; !ok {
		return fail(ErrNodeNotFound)
	}

	target, ok := s.nodeByID[targetID]
	if !ok {
		return fail(ErrNodeNotFound)
	}

	id := models.DeriveEdgeID(sourceID, sourceHandle, targetID, targetHandle)
	if _, ok := s.edgeByID[id]; ok {
		return fail(ErrDuplicateEdge)
	}

	// The multi-inbound rule is declared per input; only enforce it when the
	// target schema actually declares the handle.
	if target.Data.Schema != nil {
		if input, declared := target.Data.Schema.Input(targetHandle); declared && !input.Multiple {
			for _, edge := range s.edges {
				if edge.Target == targetID && edge.TargetHandle == targetHandle {
					return fail(ErrInputOccupied)
				}
			}
		}
	}

	edge := &models.Edge{
		ID:           id,
		Source:       sourceID,
		Target:       targetID,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}

	s.edges = append(s.edges, edge)
	s.edgeByID[id] = edge

	s.logger.Debug("Connected nodes", "edge_id", id)

	return edge, nil
}

// Disconnect removes an edge by id.
func (s *Store) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	edge, ok := s.edgeByID[edgeID]
	if !ok {
		return ErrEdgeNotFound
	}

	delete(s.edgeByID, edgeID)

	for i, e := range s.edges {
		if e == edge {
			s.edges = append(s.edges[:i], s.edges[i+1:]...)

			break
		}
	}

	return nil
}

// SetExecutionOverlay marks the given nodes as running and the given edges
// as carrying data. Everything else is reset to idle.
func (s *Store) SetExecutionOverlay(nodeIDs, edgeIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		live[id] = true
	}

	for _, node := range s.nodes {
		if live[node.ID] {
			node.ExecutionState = models.ExecutionStateRunning
		} else {
			node.ExecutionState = models.ExecutionStateIdle
		}
	}

	liveEdges := make(map[string]bool, len(edgeIDs))
	for _, id := range edgeIDs {
		liveEdges[id] = true
	}

	for _, edge := range s.edges {
		edge.Executing = liveEdges[edge.ID]
	}
}

// ClearExecutionOverlay resets all transient run state.
func (s *Store) ClearExecutionOverlay() {
	s.SetExecutionOverlay(nil, nil)
}

// SetNodeResult records the opaque result payload of a completed run.
func (s *Store) SetNodeResult(id string, result map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodeByID[id]
	if !ok {
		return ErrNodeNotFound
	}

	node.LastResult = result

	return nil
}

// Node returns a node by id.
func (s *Store) Node(id string) (*models.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodeByID[id]

	return node, ok
}

// Nodes returns the nodes in insertion order. The slice is a copy; the
// elements are the live nodes.
func (s *Store) Nodes() []*models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*models.Node(nil), s.nodes...)
}

// Edges returns the edges in insertion order. The slice is a copy; the
// elements are the live edges.
func (s *Store) Edges() []*models.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*models.Edge(nil), s.edges...)
}

// NodeByRole returns the first node carrying the given role.
func (s *Store) NodeByRole(role models.NodeRole) (*models.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, node := range s.nodes {
		if node.Role() == role {
			return node, true
		}
	}

	return nil, false
}

// Clear empties the graph without firing removal hooks. Used when switching
// to a different workflow.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = s.nodes[:0]
	s.edges = s.edges[:0]
	s.nodeByID = make(map[string]*models.Node)
	s.edgeByID = make(map[string]*models.Edge)
}
