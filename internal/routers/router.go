package routers

import (
	"Stash/cmd"
	"Stash/internal/handlers"
	"Stash/internal/metrics"
	"Stash/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

func SetupRoutes(app *fiber.App, server *cmd.Server) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	SetupPublicShareRouter(app, server)
	if local, ok := server.Gateway.(*storage.LocalGateway); ok {
		app.Get("/objects/*", handlers.NewObjectHandler(local).ServeObject)
	}

	api := app.Group("/api", handlers.UserIdentity())
	SetupFolderRouter(api, server)
	SetupUploadRouter(api, server)
	SetupFileRouter(api, server)
	SetupShareRouter(api, server)
	SetupJanitorRouter(api, server)
}
