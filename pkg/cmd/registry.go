package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowplane/flowplane/pkg/catalog"
)

// NewRegistry builds the node type catalogue. Builtin types are always
// registered; when a catalogue URL is given, server-declared types are
// fetched and layered on top. A failed fetch degrades to the builtins.
func NewRegistry(ctx context.Context, logger *slog.Logger, catalogURL string) *catalog.Registry {
	registry := catalog.NewRegistry(logger)
	registry.RegisterBuiltinSchemas()

	if catalogURL == "" {
		return registry
	}

	client := catalog.NewClient(catalogURL, logger)

	schemas, err := client.FetchSchemas(ctx)
	if err != nil {
		logger.Warn("Failed to fetch node catalogue, using builtin types", "error", err)

		return registry
	}

	for _, schema := range schemas {
		registry.Register(schema, executionTypeFor(schema.ID))
	}

	return registry
}

// executionTypeFor derives the backend's registered execution type from a
// schema type id, e.g. "knowledge-base" -> "knowledge_base_node".
func executionTypeFor(schemaType string) string {
	return strings.ReplaceAll(schemaType, "-", "_") + "_node"
}
