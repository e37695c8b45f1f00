package routers

import (
	"Stash/cmd"
	"github.com/gofiber/fiber/v2"
)

func SetupJanitorRouter(api fiber.Router, server *cmd.Server) {
	janitorHandler := server.JanitorHandler
	api.Post("/janitor/clean", janitorHandler.ForceClean)
	api.Get("/janitor/status", janitorHandler.Status)
}
