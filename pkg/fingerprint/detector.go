// Package fingerprint derives a canonical, order- and position-insensitive
// representation of a workflow graph for dirty-state detection.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/flowplane/flowplane/pkg/models"
)

// Fingerprint is a stable digest of the durable graph content.
type Fingerprint string

// snapshotNode is the fingerprinted projection of a node: volatile fields
// (position, execution state, last result) are stripped.
type snapshotNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters"`
}

type snapshotEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
}

// Snapshot computes the canonical fingerprint of a graph. Nodes and edges
// are serialized sorted by id, so the result is invariant under permutation
// of the input slices and under position-only changes.
func Snapshot(nodes []*models.Node, edges []*models.Edge) Fingerprint {
	ns := make([]snapshotNode, 0, len(nodes))
	for _, node := range nodes {
		ns = append(ns, snapshotNode{
			ID:         node.ID,
			Type:       node.Type,
			Parameters: node.Data.Parameters.Any(),
		})
	}

	sort.Slice(ns, func(i, j int) bool { return ns[i].ID < ns[j].ID })

	es := make([]snapshotEdge, 0, len(edges))
	for _, edge := range edges {
		es = append(es, snapshotEdge{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
		})
	}

	sort.Slice(es, func(i, j int) bool { return es[i].ID < es[j].ID })

	payload, err := json.Marshal(struct {
		Nodes []snapshotNode `json:"nodes"`
		Edges []snapshotEdge `json:"edges"`
	}{Nodes: ns, Edges: es})
	if err != nil {
		// Only reachable with parameter values that cannot marshal, which the
		// Value union excludes.
		return Fingerprint("unrepresentable")
	}

	digest := sha256.Sum256(payload)

	return Fingerprint(hex.EncodeToString(digest[:]))
}

// IsDirty is a pure equality check on two fingerprints.
func IsDirty(current, baseline Fingerprint) bool {
	return current != baseline
}

// Detector tracks the last-saved fingerprint and answers whether the graph
// has drifted from it. While a hydration is in flight, dirty detection is
// suppressed: the first fingerprint computed after hydration completes
// becomes the new baseline instead of a diff target.
type Detector struct {
	mu        sync.Mutex
	baseline  Fingerprint
	hydrating bool
}

// NewDetector creates a detector with an empty-graph baseline.
func NewDetector() *Detector {
	return &Detector{baseline: Snapshot(nil, nil)}
}

// Commit recomputes and stores a new baseline. Call after a successful
// save or deploy round-trip.
func (d *Detector) Commit(nodes []*models.Node, edges []*models.Edge) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.baseline = Snapshot(nodes, edges)
}

// IsDirty reports whether the graph differs from the committed baseline.
// Always false while a hydration is in flight.
func (d *Detector) IsDirty(nodes []*models.Node, edges []*models.Edge) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hydrating {
		return false
	}

	return IsDirty(Snapshot(nodes, edges), d.baseline)
}

// Baseline returns the committed fingerprint.
func (d *Detector) Baseline() Fingerprint {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.baseline
}

// BeginHydration suppresses dirty detection until EndHydration.
func (d *Detector) BeginHydration() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hydrating = true
}

// EndHydration adopts the hydrated graph as the new baseline and re-enables
// dirty detection.
func (d *Detector) EndHydration(nodes []*models.Node, edges []*models.Edge) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.hydrating = false
	d.baseline = Snapshot(nodes, edges)
}
