package server

import (
	"Stash/cmd"
	"Stash/internal/handlers"
	"Stash/internal/routers"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func NewApp(server *cmd.Server) *fiber.App {
	cfg := server.Configuration
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.Server.RequestConfig.SizeLimit * 1024 * 1024,
		Concurrency:  cfg.Server.Concurrency * 1024,
		AppName:      "Stash",
		UnescapePath: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(handlers.LogFailures(server.LogService.Component("http")))

	routers.SetupRoutes(app, server)
	return app
}
