package main

import (
	"Stash/internal/config"
	"Stash/internal/services"
	"Stash/internal/storage"
)

type ConfigPath string

func Provider(path ConfigPath) (*config.Configuration, error) {
	return config.LoadConfiguration(string(path))
}

func GatewayProvider(configuration *config.Configuration, logService services.LogService) (storage.Gateway, error) {
	return storage.NewGateway(configuration, logService.Log)
}
