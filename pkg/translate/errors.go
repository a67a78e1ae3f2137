// Package translate converts the canvas graph into the wire-level execution
// DAG consumed by the backend engine.
package translate

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a node whose declared types or handles cannot be
// resolved against the catalogue.
type ValidationError struct {
	NodeID string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Detail)
}

// StructuralError reports a whole-graph precondition failure.
type StructuralError struct {
	Detail string
}

func (e *StructuralError) Error() string {
	return e.Detail
}

// MissingParameterError reports a required parameter with no value and no
// applicable default.
type MissingParameterError struct {
	NodeID    string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("node %s: required parameter %q has no value and no default", e.NodeID, e.Parameter)
}

// Error aggregates every problem found during translation so the user sees
// all offending nodes and parameters at once, not just the first.
type Error struct {
	Problems []error
}

func (e *Error) Error() string {
	if len(e.Problems) == 1 {
		return "translation failed: " + e.Problems[0].Error()
	}

	details := make([]string, 0, len(e.Problems))
	for _, problem := range e.Problems {
		details = append(details, problem.Error())
	}

	return fmt.Sprintf("translation failed with %d problems: %s", len(e.Problems), strings.Join(details, "; "))
}

func (e *Error) Unwrap() []error {
	return e.Problems
}

// IsStructural checks whether an error carries a whole-graph failure.
func IsStructural(err error) bool {
	var target *StructuralError

	return errors.As(err, &target)
}

// IsMissingParameter checks whether an error carries a missing-parameter
// failure.
func IsMissingParameter(err error) bool {
	var target *MissingParameterError

	return errors.As(err, &target)
}

// IsValidation checks whether an error carries a node validation failure.
func IsValidation(err error) bool {
	var target *ValidationError

	return errors.As(err, &target)
}
