package services

import (
	"context"
	"strings"
	"testing"

	"Stash/internal/apperr"
	"Stash/internal/dto"
	"Stash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionService_CreateVersionSnapshotsCurrentContent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := env.versions()
	file := createTestFile(t, env, "logo.svg", "files/v1/logo.svg", nil)
	env.putObject(t, "files/v2/logo.svg", "second")

	updated, err := service.CreateVersion(ctx, testUser, dto.CreateVersionRequest{
		FileID:            file.ID,
		StoragePath:       "files/v2/logo.svg",
		FileSize:          6,
		ChangeDescription: "new colours",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.VersionNumber)
	assert.Equal(t, "files/v2/logo.svg", updated.StoragePath)
	assert.Equal(t, int64(6), updated.FileSize)

	versions, err := service.ListVersions(ctx, file.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Equal(t, "files/v1/logo.svg", versions[0].StoragePath)
}

func TestVersionService_RestoreKeepsHistoryLinear(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := env.versions()
	file := createTestFile(t, env, "logo.svg", "files/v1/logo.svg", nil)

	for _, path := range []string{"files/v2/logo.svg", "files/v3/logo.svg"} {
		_, err := service.CreateVersion(ctx, testUser, dto.CreateVersionRequest{FileID: file.ID, StoragePath: path, FileSize: 1})
		require.NoError(t, err)
	}

	restored, err := service.RestoreVersion(ctx, testUser, file.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, restored.VersionNumber)
	assert.Equal(t, "files/v1/logo.svg", restored.StoragePath)

	versions, err := service.ListVersions(ctx, file.ID)
	require.NoError(t, err)
	numbers := make([]int, 0, len(versions))
	for _, version := range versions {
		numbers = append(numbers, version.VersionNumber)
	}
	assert.Equal(t, []int{3, 2, 1}, numbers)
	assert.Equal(t, "files/v3/logo.svg", versions[0].StoragePath)
	assert.Equal(t, "restored from version 1", versions[0].ChangeDescription)

	_, err = service.RestoreVersion(ctx, testUser, file.ID, 9)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestVersionService_CreateVersionRejectsPathOfAnotherFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := env.versions()
	file := createTestFile(t, env, "a.txt", "files/a/a.txt", nil)
	createTestFile(t, env, "b.txt", "files/b/b.txt", nil)

	_, err := service.CreateVersion(ctx, testUser, dto.CreateVersionRequest{FileID: file.ID, StoragePath: "files/b/b.txt"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	current, err := env.files().GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.VersionNumber)
}

func TestVersionService_UploadVersion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := env.versions()
	file := createTestFile(t, env, "a.txt", "files/a/a.txt", nil)

	updated, err := service.UploadVersion(ctx, testUser, file.ID, strings.NewReader("fresh"), 5, "", "typo fix")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.VersionNumber)
	assert.Equal(t, "text/plain", updated.MimeType)
	assert.NotEqual(t, "files/a/a.txt", updated.StoragePath)
	assert.Equal(t, "fresh", env.readObject(t, updated.StoragePath))
}

func TestVersionService_DeleteVersion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := env.versions()
	file := createTestFile(t, env, "a.txt", "files/a/a.txt", nil)
	env.putObject(t, "files/b/a.txt", "v2")
	_, err := service.CreateVersion(ctx, testUser, dto.CreateVersionRequest{FileID: file.ID, StoragePath: "files/b/a.txt", FileSize: 2})
	require.NoError(t, err)

	err = service.DeleteVersion(ctx, testUser, file.ID, 2)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, service.DeleteVersion(ctx, testUser, file.ID, 1))
	versions, err := service.ListVersions(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)

	_, err = env.gateway.Open(ctx, "files/a/a.txt")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.Equal(t, "v2", env.readObject(t, "files/b/a.txt"))
}

func TestVersionService_DeleteVersionKeepsSharedObject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := env.versions()
	file := createTestFile(t, env, "a.txt", "files/a/a.txt", nil)
	_, err := service.CreateVersion(ctx, testUser, dto.CreateVersionRequest{FileID: file.ID, StoragePath: "files/b/a.txt", FileSize: 1})
	require.NoError(t, err)
	// v3 points at the original object again, so v1 and the file share it
	_, err = service.RestoreVersion(ctx, testUser, file.ID, 1)
	require.NoError(t, err)

	require.NoError(t, service.DeleteVersion(ctx, testUser, file.ID, 1))
	assert.Equal(t, "content of a.txt", env.readObject(t, "files/a/a.txt"))
}
