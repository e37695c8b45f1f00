package database

import (
	"fmt"
	"os"

	"Stash/internal/config"
	"Stash/internal/models"
	"Stash/internal/services"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupDatabase(configuration *config.Configuration, logService services.LogService) (*gorm.DB, error) {
	dialector, err := dialectorFor(configuration.Database)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if configuration.Database.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// a single connection serialises writers and keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	logService.Log.WithField("driver", configuration.Database.Driver).Info("database ready")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "stash.db"
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			var err error
			if dsn, err = postgresDSNFromEnv(); err != nil {
				return nil, err
			}
		}
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func postgresDSNFromEnv() (string, error) {
	var envVariables = [...]string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_TZ"}
	for _, envVariable := range envVariables {
		if os.Getenv(envVariable) == "" {
			return "", fmt.Errorf("%s environment variable not set", envVariable)
		}
	}
	if os.Getenv("DB_SSLMODE") == "" {
		if err := os.Setenv("DB_SSLMODE", "disable"); err != nil {
			return "", err
		}
	}
	return os.ExpandEnv("host=${DB_HOST} user=${DB_USER} password=${DB_PASSWORD} dbname=${DB_NAME} port=${DB_PORT} sslmode=${DB_SSLMODE} TimeZone=${DB_TZ}"), nil
}

func CloseDatabase(db *gorm.DB, logService services.LogService) {
	sqlDB, err := db.DB()
	if err != nil {
		logService.Log.WithField("error", err.Error()).Error("could not get DB instance")
		return
	}
	if err := sqlDB.Close(); err != nil {
		logService.Log.WithField("error", err.Error()).Error("error closing database")
	}
}
