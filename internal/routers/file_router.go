package routers

import (
	"Stash/cmd"
	"github.com/gofiber/fiber/v2"
)

func SetupFileRouter(api fiber.Router, server *cmd.Server) {
	fileHandler := server.FileHandler
	versionHandler := server.VersionHandler
	commentHandler := server.CommentHandler

	files := api.Group("/files")
	files.Get("/", fileHandler.ListFiles)
	files.Post("/", fileHandler.CreateFile)
	files.Get("/deleted", fileHandler.ListDeletedFiles)
	files.Post("/move", fileHandler.MoveFiles)
	files.Get("/:id", fileHandler.GetFile)
	files.Patch("/:id", fileHandler.UpdateFile)
	files.Delete("/:id", fileHandler.DeleteFile)
	files.Post("/:id/restore", fileHandler.RestoreFile)
	files.Post("/:id/move", fileHandler.MoveFile)
	files.Get("/:id/download", fileHandler.GetDownloadURL)

	files.Get("/:id/versions", versionHandler.ListVersions)
	files.Post("/:id/versions", versionHandler.CreateVersion)
	files.Post("/:id/versions/upload", versionHandler.UploadVersion)
	files.Post("/:id/versions/:number/restore", versionHandler.RestoreVersion)
	files.Delete("/:id/versions/:number", versionHandler.DeleteVersion)

	files.Get("/:id/comments", commentHandler.ListComments)
	files.Post("/:id/comments", commentHandler.CreateComment)
	api.Patch("/comments/:id", commentHandler.UpdateComment)
	api.Delete("/comments/:id", commentHandler.DeleteComment)
}
