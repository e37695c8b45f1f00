package routers

import (
	"Stash/cmd"
	"github.com/gofiber/fiber/v2"
)

func SetupShareRouter(api fiber.Router, server *cmd.Server) {
	shareHandler := server.ShareHandler
	shares := api.Group("/shares")
	shares.Get("/", shareHandler.ListShareLinks)
	shares.Post("/", shareHandler.CreateShareLink)
	shares.Delete("/:id", shareHandler.RevokeShareLink)
	shares.Get("/:id/access-logs", shareHandler.ListAccessLogs)
}

// SetupPublicShareRouter serves share links to anonymous visitors.
func SetupPublicShareRouter(app *fiber.App, server *cmd.Server) {
	shareHandler := server.ShareHandler
	public := app.Group("/s")
	public.Get("/:token", shareHandler.ValidateShareLink)
	public.Post("/:token/access", shareHandler.RecordAccess)
	public.Post("/:token/download", shareHandler.Download)
	public.Post("/:token/preview", shareHandler.Preview)
}
