package cmd

import (
	"Stash/internal/config"
	"Stash/internal/handlers"
	"Stash/internal/services"
	"Stash/internal/storage"
	"gorm.io/gorm"
)

type Server struct {
	Configuration  *config.Configuration
	DB             *gorm.DB
	Gateway        storage.Gateway
	LogService     services.LogService
	FolderHandler  *handlers.FolderHandler
	UploadHandler  *handlers.UploadHandler
	FileHandler    *handlers.FileHandler
	VersionHandler *handlers.VersionHandler
	ShareHandler   *handlers.ShareHandler
	CommentHandler *handlers.CommentHandler
	JanitorHandler *handlers.JanitorHandler
	JanitorService *services.Janitor
}

func NewServer(
	configuration *config.Configuration,
	db *gorm.DB,
	gateway storage.Gateway,
	logService services.LogService,
	folderHandler *handlers.FolderHandler,
	uploadHandler *handlers.UploadHandler,
	fileHandler *handlers.FileHandler,
	versionHandler *handlers.VersionHandler,
	shareHandler *handlers.ShareHandler,
	commentHandler *handlers.CommentHandler,
	janitorHandler *handlers.JanitorHandler,
	janitorService *services.Janitor,
) *Server {
	return &Server{
		Configuration:  configuration,
		DB:             db,
		Gateway:        gateway,
		LogService:     logService,
		FolderHandler:  folderHandler,
		UploadHandler:  uploadHandler,
		FileHandler:    fileHandler,
		VersionHandler: versionHandler,
		ShareHandler:   shareHandler,
		CommentHandler: commentHandler,
		JanitorHandler: janitorHandler,
		JanitorService: janitorService,
	}
}
