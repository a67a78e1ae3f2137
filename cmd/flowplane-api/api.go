// Package main provides the Flowplane API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowplane/flowplane/pkg/catalog"
	"github.com/flowplane/flowplane/pkg/configcache"
	"github.com/flowplane/flowplane/pkg/editor"
	"github.com/flowplane/flowplane/pkg/eventbus"
	"github.com/flowplane/flowplane/pkg/execution"
	"github.com/flowplane/flowplane/pkg/fingerprint"
	"github.com/flowplane/flowplane/pkg/graph"
	"github.com/flowplane/flowplane/pkg/persistence"
	"github.com/flowplane/flowplane/pkg/translate"
	"github.com/flowplane/flowplane/pkg/uiengine"
	"github.com/flowplane/flowplane/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *catalog.Registry
	eventBus    eventbus.EventBus
	cache       configcache.Store
	tracer      trace.Tracer
	engineURL   string
	catalogURL  string
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *catalog.Registry,
	eventBus eventbus.EventBus,
	cache configcache.Store,
	tracer trace.Tracer,
	engineURL string,
	catalogURL string,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		cache:       cache,
		tracer:      tracer,
		engineURL:   engineURL,
		catalogURL:  catalogURL,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	optionSource := a.optionSource()

	canvasEditor := editor.NewEditor(editor.Config{
		Logger:      a.logger,
		Store:       graph.NewStore(a.logger),
		Detector:    fingerprint.NewDetector(),
		Cache:       a.cache,
		Registry:    a.registry,
		Translator:  translate.NewTranslator(a.registry.TypeMapper(), translate.StandardDefaults),
		Runner:      execution.NewClient(a.engineURL, a.tracer, a.logger),
		Persistence: a.persistence,
		Publisher:   a.eventBus,
		Resolver:    uiengine.NewOptionResolver(optionSource, a.logger),
		Tracer:      a.tracer,
	})

	handlers := web.NewAPIHandlers(canvasEditor, a.persistence, a.registry, optionSource, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowplane API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/run", handlers.RunWorkflow)

	n := app.Group("/nodes")
	n.Get("/", handlers.GetNodeTypes)
	n.Get("/:endpoint/:key", handlers.GetNodeOptions)

	app.Get("/health", handlers.HealthCheck)

	return app
}

// optionSource wires dynamic option lookups to the catalogue service, or to
// an empty source when no catalogue is configured.
//
// nolint:ireturn
func (a *API) optionSource() uiengine.OptionSource {
	if a.catalogURL == "" {
		return uiengine.OptionSourceFunc(func(_ context.Context, _, _ string) ([]string, error) {
			return []string{}, nil
		})
	}

	return catalog.NewClient(a.catalogURL, a.logger)
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
