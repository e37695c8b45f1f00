//go:build wireinject
// +build wireinject

package main

import (
	"Stash/cmd"
	"Stash/database"
	"Stash/internal/handlers"
	"Stash/internal/metrics"
	"Stash/internal/repository"
	"Stash/internal/services"
	"github.com/google/wire"
)

func InitializeServer(path ConfigPath) (*cmd.Server, error) {
	wire.Build(
		cmd.NewServer,
		Provider,
		services.NewLogService,
		database.SetupDatabase,
		repository.NewStore,
		GatewayProvider,
		metrics.NewDefaultRecorder,
		services.NewFolderService,
		services.NewUploadService,
		services.NewFileService,
		services.NewVersionService,
		services.NewShareService,
		services.NewCommentService,
		services.NewJanitorService,
		handlers.NewFolderHandler,
		handlers.NewUploadHandler,
		handlers.NewFileHandler,
		handlers.NewVersionHandler,
		handlers.NewShareHandler,
		handlers.NewCommentHandler,
		handlers.NewJanitorHandler,
		wire.Bind(new(services.JanitorService), new(*services.Janitor)),
	)
	return nil, nil
}
