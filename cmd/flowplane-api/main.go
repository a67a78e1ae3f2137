package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowplane/flowplane/pkg/cmd"
	"github.com/flowplane/flowplane/pkg/log"
	"github.com/flowplane/flowplane/pkg/tracing"
)

const defaultPort = 9081

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "flowplane-api",
		Usage:                 "Edit and run visual workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:     "engine-url",
				Usage:    "Base URL of the backend execution engine",
				Required: true,
				Sources:  cli.EnvVars("ENGINE_URL"),
			},
			&cli.StringFlag{
				Name:    "catalog-url",
				Usage:   "Base URL of the node catalogue service (empty uses builtin types)",
				Sources: cli.EnvVars("CATALOG_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the draft cache (empty uses in-memory drafts)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger.InfoContext(ctx, "Initializing Flowplane API")

			tracer := tracing.NoopTracer()

			if command.Bool("tracing") {
				t, err := tracing.NewTracer(ctx, "flowplane-api")
				if err != nil {
					logger.ErrorContext(ctx, "Failed to initialize tracing", "error", err)
				} else {
					tracer = t
				}
			}

			registry := cmd.NewRegistry(ctx, logger, command.String("catalog-url"))
			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			cache := cmd.NewConfigCache(logger, command.String("redis-url"), "session")

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				cache,
				tracer,
				command.String("engine-url"),
				command.String("catalog-url"),
			)

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
