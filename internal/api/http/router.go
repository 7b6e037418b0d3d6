package http

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/smartcity-api/internal/api/http/handlers"
	"github.com/spec-kit/smartcity-api/internal/config"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Users     *handlers.UsersHandler
	Reports   *handlers.ReportsHandler
	StaticDir string
}

// NewApp builds the fiber app with the service's JSON codec, body limit and middlewares.
func NewApp(cfg config.AppConfig, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		BodyLimit:             cfg.BodyLimit(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, cfg)
	return app
}

// RegisterRoutes wires HTTP routes. Paths match what the mobile client calls.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)

	api.Get("/reports", cfg.Reports.ListReports)
	api.Post("/reports", cfg.Reports.CreateReport)
	api.Patch("/reports/:id/status", cfg.Reports.UpdateStatus)
	api.Delete("/reports/:id", cfg.Reports.DeleteReport)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
}
