// Package catalog holds the node type schema catalogue: the server-declared
// descriptions of every node type the canvas can instantiate.
package catalog

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/flowplane/flowplane/pkg/models"
	"github.com/flowplane/flowplane/pkg/translate"
)

// Registry maps node type identifiers to their schemas and to the backend's
// registered execution-type identifiers.
type Registry struct {
	logger         *slog.Logger
	schemas        map[string]*models.NodeTypeSchema
	executionTypes map[string]string
}

// NewRegistry creates an empty catalogue.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:         logger,
		schemas:        make(map[string]*models.NodeTypeSchema),
		executionTypes: make(map[string]string),
	}
}

// Register adds or replaces a node type schema and its execution type.
func (r *Registry) Register(schema *models.NodeTypeSchema, executionType string) {
	r.schemas[schema.ID] = schema
	r.executionTypes[schema.ID] = executionType
}

// Get returns the schema for a node type.
func (r *Registry) Get(nodeType string) (*models.NodeTypeSchema, error) {
	schema, ok := r.schemas[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	return schema, nil
}

// All returns every registered schema keyed by type id.
func (r *Registry) All() map[string]*models.NodeTypeSchema {
	out := make(map[string]*models.NodeTypeSchema, len(r.schemas))
	for id, schema := range r.schemas {
		out[id] = schema
	}

	return out
}

// Types returns the sorted list of registered type identifiers.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.schemas))
	for id := range r.schemas {
		types = append(types, id)
	}

	sort.Strings(types)

	return types
}

// TypeMapper returns the injectable lookup the translator uses to resolve
// schema type ids to execution type ids.
func (r *Registry) TypeMapper() translate.TypeMapper {
	return func(schemaType string) (string, bool) {
		executionType, ok := r.executionTypes[schemaType]

		return executionType, ok
	}
}

// HealthCheck reports whether the catalogue is usable.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.schemas) == 0 {
		return "Catalogue is empty", false
	}

	return fmt.Sprintf("Catalogue holds %d node types", len(r.schemas)), true
}
