// Package execution calls the backend workflow engine and maps its payload
// shapes onto typed results and errors.
package execution

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MissingCredentialsError reports nodes that cannot run because credentials
// are not configured, naming the specific credentials per node.
type MissingCredentialsError struct {
	// Credentials maps node id to the credential names it is missing.
	Credentials map[string][]string
	Message     string
}

func (e *MissingCredentialsError) Error() string {
	nodes := make([]string, 0, len(e.Credentials))
	for nodeID := range e.Credentials {
		nodes = append(nodes, nodeID)
	}

	sort.Strings(nodes)

	parts := make([]string, 0, len(nodes))
	for _, nodeID := range nodes {
		parts = append(parts, fmt.Sprintf("%s (%s)", nodeID, strings.Join(e.Credentials[nodeID], ", ")))
	}

	return "missing credentials for nodes: " + strings.Join(parts, "; ")
}

// NodeExecutionError reports per-node runtime failures. Partial success is
// a first-class outcome: the successful nodes' results travel alongside.
type NodeExecutionError struct {
	// Errors maps node id to its failure message.
	Errors        map[string]string
	ExecutedNodes []string
	SkippedNodes  []string
	Message       string
}

func (e *NodeExecutionError) Error() string {
	nodes := make([]string, 0, len(e.Errors))
	for nodeID := range e.Errors {
		nodes = append(nodes, nodeID)
	}

	sort.Strings(nodes)

	return "execution failed for nodes: " + strings.Join(nodes, ", ")
}

// NetworkError wraps any collaborator fetch failure, including client-side
// timeouts. Non-critical reads degrade to empty states; mutating actions
// surface it to the user.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsMissingCredentials checks for a missing-credentials failure.
func IsMissingCredentials(err error) bool {
	var target *MissingCredentialsError

	return errors.As(err, &target)
}

// IsNodeExecution checks for a per-node runtime failure.
func IsNodeExecution(err error) bool {
	var target *NodeExecutionError

	return errors.As(err, &target)
}

// IsNetwork checks for a collaborator fetch failure.
func IsNetwork(err error) bool {
	var target *NetworkError

	return errors.As(err, &target)
}
