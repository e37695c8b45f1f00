package routers

import (
	"Stash/cmd"
	"github.com/gofiber/fiber/v2"
)

func SetupUploadRouter(api fiber.Router, server *cmd.Server) {
	uploadHandler := server.UploadHandler
	uploads := api.Group("/uploads")
	uploads.Post("/", uploadHandler.CreateSession)
	uploads.Post("/direct", uploadHandler.UploadDirect)
	uploads.Get("/:token", uploadHandler.GetSession)
	uploads.Put("/:token/chunks/:index", uploadHandler.AppendChunk)
	uploads.Post("/:token/complete", uploadHandler.CompleteUpload)
	uploads.Delete("/:token", uploadHandler.AbortUpload)
}
