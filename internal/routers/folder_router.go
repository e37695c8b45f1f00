package routers

import (
	"Stash/cmd"
	"github.com/gofiber/fiber/v2"
)

func SetupFolderRouter(api fiber.Router, server *cmd.Server) {
	folderHandler := server.FolderHandler
	folders := api.Group("/folders")
	folders.Get("/", folderHandler.GetFolderContents)
	folders.Post("/", folderHandler.CreateFolder)
	folders.Get("/:id", folderHandler.GetFolder)
	folders.Patch("/:id", folderHandler.UpdateFolder)
	folders.Delete("/:id", folderHandler.DeleteFolder)
	folders.Post("/:id/move", folderHandler.MoveFolder)
	folders.Get("/:id/breadcrumbs", folderHandler.GetBreadcrumbs)
}
