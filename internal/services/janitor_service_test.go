package services

import (
	"context"
	"testing"
	"time"

	"Stash/internal/dto"
	"Stash/internal/models"
	"Stash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitor_ReclaimsStaleSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	uploads := env.uploads()
	expired := startTestSession(t, uploads, nil)
	sendChunk(t, uploads, expired.SessionToken, 0)
	aborted := startTestSession(t, uploads, nil)
	require.NoError(t, uploads.AbortUpload(ctx, testUser, aborted.SessionToken))
	live, err := uploads.CreateUploadSession(ctx, testUser, dto.CreateUploadSessionRequest{FileName: "later.txt", FileSize: 4})
	require.NoError(t, err)

	janitor := env.janitor()
	report, err := janitor.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SessionsReclaimed)

	janitor.now = fixedClock(time.Now().Add(48 * time.Hour))
	report, err = janitor.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SessionsReclaimed)

	for _, token := range []string{expired.SessionToken, aborted.SessionToken, live.SessionToken} {
		session, err := env.store.Uploads.FindByToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, session)
	}
	_, err = env.gateway.Open(ctx, storage.StagingPath(expired.SessionToken)+"/000000")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestJanitor_PurgesFilesPastRetention(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	file := createTestFile(t, env, "a.txt", "files/a/a.txt", nil)
	env.putObject(t, "files/b/a.txt", "v2")
	_, err := env.versions().CreateVersion(ctx, testUser, dto.CreateVersionRequest{FileID: file.ID, StoragePath: "files/b/a.txt", FileSize: 2})
	require.NoError(t, err)
	_, err = env.comments().CreateComment(ctx, testUser, file.ID, "bye", nil)
	require.NoError(t, err)
	shareFile(t, env.shares(), file.ID, dto.CreateShareLinkRequest{AllowDownload: true})
	keeper := createTestFile(t, env, "keep.txt", "files/k/keep.txt", nil)

	require.NoError(t, env.files().DeleteFile(ctx, testUser, file.ID))

	janitor := env.janitor()
	report, err := janitor.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesPurged)

	janitor.now = fixedClock(time.Now().Add(2 * time.Hour))
	report, err = janitor.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.FilesPurged)
	assert.Equal(t, 2, report.ObjectsDeleted)

	_, err = env.store.Files.FindByIDUnscoped(ctx, file.ID)
	assert.Error(t, err)
	for _, model := range []interface{}{&models.FileVersion{}, &models.Comment{}, &models.ShareLink{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
	for _, path := range []string{"files/a/a.txt", "files/b/a.txt"} {
		_, err := env.gateway.Open(ctx, path)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	}
	assert.Equal(t, "content of keep.txt", env.readObject(t, keeper.StoragePath))

	report, err = janitor.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesPurged)
}

func TestJanitor_SkipsFileRestoredAfterListing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	file := createTestFile(t, env, "a.txt", "files/a/a.txt", nil)
	_, err := env.comments().CreateComment(ctx, testUser, file.ID, "still here", nil)
	require.NoError(t, err)
	require.NoError(t, env.files().DeleteFile(ctx, testUser, file.ID))

	cutoff := time.Now().Add(time.Hour)
	listed, err := env.store.Files.FindDeletedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = env.files().RestoreFile(ctx, testUser, file.ID)
	require.NoError(t, err)

	done, deleted, err := env.janitor().purgeFile(ctx, listed[0].ID, cutoff)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Zero(t, deleted)

	restored, err := env.files().GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "content of a.txt", env.readObject(t, restored.StoragePath))
	comments, err := env.comments().ListComments(ctx, file.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestJanitor_SingleSweepAtATime(t *testing.T) {
	env := newTestEnv(t)
	janitor := env.janitor()

	require.True(t, janitor.begin())
	assert.True(t, janitor.IsCleaning())
	_, err := janitor.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrCleaningInProgress)
	assert.ErrorIs(t, janitor.ForceStartCleanCycle(), ErrCleaningInProgress)
	janitor.end()
	assert.False(t, janitor.IsCleaning())
}

func TestJanitor_StartAndStopCleanCycle(t *testing.T) {
	env := newTestEnv(t)
	janitor := env.janitor()

	require.NoError(t, janitor.StartCleanCycle())
	janitor.StopClean()

	env.config.Server.CleanConfig.Schedule = "not a schedule"
	assert.Error(t, env.janitor().StartCleanCycle())
}
