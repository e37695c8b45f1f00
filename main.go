package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"Stash/database"
	"Stash/internal/config"
	"Stash/internal/server"
	"Stash/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "stash",
		Short: "File and folder management service for the CDN",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "stash.yaml", "path to the configuration file")
	root.AddCommand(serveCommand(), migrateCommand(), sweepCommand())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the background janitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := InitializeServer(ConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			defer database.CloseDatabase(srv.DB, srv.LogService)

			if err := srv.JanitorService.StartCleanCycle(); err != nil {
				return err
			}
			defer srv.JanitorService.StopClean()

			app := server.NewApp(srv)
			go func() {
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
				<-quit
				srv.LogService.Log.Info("shutting down")
				_ = app.Shutdown()
			}()

			if err := app.Listen(fmt.Sprintf(":%d", srv.Configuration.Server.Port)); err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfiguration(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logService := services.NewLogService(cfg)
			db, err := database.SetupDatabase(cfg, logService)
			if err != nil {
				return fmt.Errorf("failed to connect to the database: %w", err)
			}
			database.CloseDatabase(db, logService)
			return nil
		},
	}
}

func sweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one janitor sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := InitializeServer(ConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("failed to initialize server: %w", err)
			}
			defer database.CloseDatabase(srv.DB, srv.LogService)

			report, err := srv.JanitorService.RunOnce(context.Background())
			if err != nil {
				return err
			}
			srv.LogService.Component("sweep").WithFields(logrus.Fields{
				"sessions_reclaimed": report.SessionsReclaimed,
				"files_purged":       report.FilesPurged,
				"objects_deleted":    report.ObjectsDeleted,
			}).Info("sweep finished")
			return nil
		},
	}
}
