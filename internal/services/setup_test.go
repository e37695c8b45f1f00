package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"Stash/internal/config"
	"Stash/internal/metrics"
	"Stash/internal/models"
	"Stash/internal/repository"
	"Stash/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUser = "user-1"

type testEnv struct {
	db       *gorm.DB
	store    *repository.Store
	gateway  *storage.LocalGateway
	recorder *metrics.Recorder
	config   *config.Configuration
	logs     LogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg, err := config.ParseConfiguration([]byte(`
storage:
  driver: local
upload:
  chunk_size: 4
  direct_upload_threshold: 64
share:
  password_iterations: 1000
server:
  clean:
    retention_hours: 1
    workers: 2
`))
	require.NoError(t, err)
	cfg.Storage.Local = config.LocalStorageConfig{
		Path:       t.TempDir(),
		BaseURL:    "http://cdn.test",
		SigningKey: "test-signing-key",
	}

	gateway, err := storage.NewLocalGateway(cfg.Storage.Local)
	require.NoError(t, err)
	recorder, err := metrics.NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		store:    repository.NewStore(db),
		gateway:  gateway,
		recorder: recorder,
		config:   cfg,
		logs:     NewDiscardLogService(),
	}
}

func (e *testEnv) folders() FolderService {
	return NewFolderService(e.store, e.logs)
}

func (e *testEnv) uploads() UploadService {
	return NewUploadService(e.store, e.gateway, e.recorder, e.config, e.logs)
}

func (e *testEnv) files() FileService {
	return NewFileService(e.store, e.gateway, e.config, e.logs)
}

func (e *testEnv) versions() VersionService {
	return NewVersionService(e.store, e.gateway, e.recorder, e.logs)
}

func (e *testEnv) shares() ShareService {
	return NewShareService(e.store, e.gateway, e.recorder, e.config, e.logs)
}

func (e *testEnv) comments() CommentService {
	return NewCommentService(e.store, e.logs)
}

func (e *testEnv) janitor() *Janitor {
	return NewJanitorService(e.store, e.gateway, e.recorder, e.logs, e.config)
}

func (e *testEnv) readObject(t *testing.T, objectPath string) string {
	t.Helper()
	reader, err := e.gateway.Open(context.Background(), objectPath)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) putObject(t *testing.T, objectPath, body string) {
	t.Helper()
	require.NoError(t, e.gateway.PutObject(context.Background(), objectPath, strings.NewReader(body), int64(len(body)), "text/plain"))
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func uintPtr(v uint) *uint {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
