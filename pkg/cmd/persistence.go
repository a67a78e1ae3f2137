// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/persistence/file"
	"github.com/flowplane/flowplane/pkg/persistence/postgresql"
)

// NewPersistence builds the persistence layer from a connection URL. The
// scheme selects the backend; anything unrecognized falls back to file
// storage rooted at the URL path.
//
// nolint:ireturn
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	provider, _, _ := strings.Cut(databaseURL, "://")

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}
