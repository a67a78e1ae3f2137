// Package graph owns the canonical in-memory workflow graph: nodes, edges,
// visual positions and the execution overlay.
package graph

import (
	"errors"
	"fmt"

	"github.com/flowplane/flowplane/pkg/models"
)

// Standard graph error values. Mutations return these instead of panicking
// so callers can render them without a crash boundary.
var (
	// ErrNodeNotFound indicates a node id is not present in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates an edge id is not present in the graph.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrSelfLoop indicates a connection from a node to itself.
	ErrSelfLoop = errors.New("connection would form a self-loop")

	// ErrDuplicateEdge indicates a connection whose derived id already exists.
	ErrDuplicateEdge = errors.New("connection already exists")

	// ErrInputOccupied indicates a second inbound edge on an input that is
	// not declared as accepting multiple connections.
	ErrInputOccupied = errors.New("input already has an inbound connection")
)

// DuplicateRoleError reports an attempt to add a second node of a role the
// workflow already contains.
type DuplicateRoleError struct {
	Role models.NodeRole
}

func (e *DuplicateRoleError) Error() string {
	return fmt.Sprintf("workflow already contains a node with the %s role", e.Role)
}

// ConnectError wraps a rejected connection with its endpoints.
type ConnectError struct {
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
	Err          error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect %s:%s -> %s:%s: %v",
		e.Source, e.SourceHandle, e.Target, e.TargetHandle, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IsDuplicateRole checks if an error reports a duplicate role-bearing node.
func IsDuplicateRole(err error) bool {
	var target *DuplicateRoleError

	return errors.As(err, &target)
}

// IsNodeNotFound checks if an error indicates a missing node.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsEdgeNotFound checks if an error indicates a missing edge.
func IsEdgeNotFound(err error) bool {
	return errors.Is(err, ErrEdgeNotFound)
}
