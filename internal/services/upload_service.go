package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"Stash/internal/apperr"
	"Stash/internal/config"
	"Stash/internal/dto"
	"Stash/internal/helpers"
	"Stash/internal/metrics"
	"Stash/internal/models"
	"Stash/internal/repository"
	"Stash/internal/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const sniffLen = 512

type UploadService interface {
	CreateUploadSession(ctx context.Context, userID string, req dto.CreateUploadSessionRequest) (*models.UploadSession, error)
	AppendChunk(ctx context.Context, userID, token string, chunkIndex int, reader io.Reader, size int64) (*dto.ChunkProgress, error)
	CompleteUpload(ctx context.Context, userID string, req dto.CompleteUploadRequest) (*models.File, error)
	AbortUpload(ctx context.Context, userID, token string) error
	GetUploadSession(ctx context.Context, token string) (*dto.UploadSessionView, error)
	UploadDirect(ctx context.Context, userID string, req dto.DirectUploadRequest) (*models.File, error)
}

type uploadServiceImpl struct {
	store    *repository.Store
	gateway  storage.Gateway
	recorder *metrics.Recorder
	cfg      config.UploadConfig
	log      *logrus.Entry
	now      func() time.Time
}

func NewUploadService(store *repository.Store, gateway storage.Gateway, recorder *metrics.Recorder, configuration *config.Configuration, logService LogService) UploadService {
	return &uploadServiceImpl{
		store:    store,
		gateway:  gateway,
		recorder: recorder,
		cfg:      configuration.Upload,
		log:      logService.Component("uploads"),
		now:      time.Now,
	}
}

func (s *uploadServiceImpl) CreateUploadSession(ctx context.Context, userID string, req dto.CreateUploadSessionRequest) (*models.UploadSession, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := helpers.ValidateName(req.FileName); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if req.FileSize < 0 {
		return nil, apperr.Validation("file size must not be negative")
	}
	if err := s.checkFolder(ctx, req.FolderID); err != nil {
		return nil, err
	}

	token, err := helpers.NewToken()
	if err != nil {
		return nil, apperr.Internal(err, "generate session token")
	}
	totalChunks := int((req.FileSize + s.cfg.ChunkSize - 1) / s.cfg.ChunkSize)
	if totalChunks < 1 {
		totalChunks = 1
	}

	session := &models.UploadSession{
		SessionToken: token,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
		FolderID:     req.FolderID,
		ChunkSize:    s.cfg.ChunkSize,
		TotalChunks:  totalChunks,
		Status:       models.UploadStatusActive,
		CreatedBy:    userID,
		ExpiresAt:    s.now().Add(time.Duration(s.cfg.SessionTTLHours) * time.Hour),
	}
	if err := s.store.Uploads.Create(ctx, session); err != nil {
		return nil, apperr.FromDB(err, "upload session")
	}

	s.log.WithFields(logrus.Fields{
		"session": helpers.ShortToken(token),
		"file":    req.FileName,
		"size":    req.FileSize,
		"chunks":  totalChunks,
		"user":    userID,
	}).Info("upload session created")
	return session, nil
}

func (s *uploadServiceImpl) AppendChunk(ctx context.Context, userID, token string, chunkIndex int, reader io.Reader, size int64) (*dto.ChunkProgress, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	session, err := s.activeSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if chunkIndex < 0 || chunkIndex >= session.TotalChunks {
		return nil, apperr.Validation("chunk index %d out of range [0, %d)", chunkIndex, session.TotalChunks)
	}
	if size < 0 || size > session.ChunkSize {
		return nil, apperr.Validation("chunk of %d bytes exceeds the chunk size of %d", size, session.ChunkSize)
	}

	// bytes first, bookkeeping second: a recorded index always has its bytes staged
	if err := s.gateway.AppendChunk(ctx, storage.StagingPath(token), chunkIndex, reader, size); err != nil {
		return nil, apperr.Internal(err, "stage chunk %d", chunkIndex)
	}
	chunk := &models.UploadChunk{SessionID: session.ID, ChunkIndex: chunkIndex, Size: size}
	if err := s.store.Uploads.UpsertChunk(ctx, chunk); err != nil {
		return nil, apperr.FromDB(err, "upload chunk")
	}
	received, err := s.store.Uploads.CountChunks(ctx, session.ID)
	if err != nil {
		return nil, apperr.FromDB(err, "upload chunk")
	}
	s.recorder.ChunkReceived()

	s.log.WithFields(logrus.Fields{
		"session": helpers.ShortToken(token),
		"chunk":   chunkIndex,
		"size":    size,
	}).Debug("chunk stored")
	return &dto.ChunkProgress{ChunksReceived: int(received), TotalChunks: session.TotalChunks}, nil
}

// CompleteUpload claims the session with a compare-and-set on its status, so
// at most one caller commits the chunks. Later calls get the File created by
// the winner.
func (s *uploadServiceImpl) CompleteUpload(ctx context.Context, userID string, req dto.CompleteUploadRequest) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	session, err := s.store.Uploads.FindByToken(ctx, req.SessionToken)
	if err != nil {
		return nil, apperr.FromDB(err, "upload session")
	}
	if session == nil {
		return nil, apperr.NotFound("upload session not found")
	}
	if file, done, err := s.completedFile(ctx, session); done || err != nil {
		return file, err
	}
	if session.Status != models.UploadStatusActive {
		return nil, apperr.State("upload session is %s", session.Status)
	}
	if session.IsExpired(s.now()) {
		return nil, apperr.State("upload session expired")
	}

	received, err := s.store.Uploads.CountChunks(ctx, session.ID)
	if err != nil {
		return nil, apperr.FromDB(err, "upload chunk")
	}
	if int(received) < session.TotalChunks {
		return nil, apperr.State("upload incomplete: %d of %d chunks received", received, session.TotalChunks)
	}

	storagePath, err := s.resolveStoragePath(req.StoragePath, session.FileName)
	if err != nil {
		return nil, err
	}

	var file *models.File
	var committed bool
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		claimed, err := tx.Uploads.TransitionStatus(ctx, session.ID, models.UploadStatusActive, models.UploadStatusCompleted)
		if err != nil {
			return apperr.FromDB(err, "upload session")
		}
		if !claimed {
			current, err := tx.Uploads.FindByID(ctx, session.ID)
			if err != nil {
				return apperr.FromDB(err, "upload session")
			}
			existing, done, err := s.completedFileTx(ctx, tx, current)
			if err != nil {
				return err
			}
			if !done {
				return apperr.State("upload session is %s", current.Status)
			}
			file = existing
			return nil
		}

		inUse, err := objectReferenced(ctx, tx, storagePath, 0, 0)
		if err != nil {
			return err
		}
		if inUse {
			return apperr.Conflict("storage path %q is already in use", storagePath)
		}

		size, err := s.gateway.CommitChunks(ctx, storage.StagingPath(session.SessionToken), storagePath, session.TotalChunks, session.MimeType)
		if err != nil {
			return apperr.Internal(err, "commit chunks")
		}
		committed = true

		file = s.newFile(userID, session.FileName, req.DisplayName, session.MimeType, size, storagePath, session.FolderID)
		if err := tx.Files.Create(ctx, file); err != nil {
			return apperr.FromDB(err, "file")
		}
		return apperr.FromDB(tx.Uploads.SetFileID(ctx, session.ID, file.ID), "upload session")
	})
	if err != nil {
		if committed {
			if cleanupErr := s.gateway.DeleteObject(context.WithoutCancel(ctx), storagePath); cleanupErr != nil {
				s.log.WithFields(logrus.Fields{
					"path":  storagePath,
					"error": cleanupErr.Error(),
				}).Warn("could not remove object of failed upload")
			}
		}
		return nil, err
	}

	if committed {
		s.recorder.UploadCompleted("chunked", file.FileSize)
		s.log.WithFields(logrus.Fields{
			"session": helpers.ShortToken(session.SessionToken),
			"file":    file.ID,
			"path":    file.StoragePath,
			"size":    file.FileSize,
			"user":    userID,
		}).Info("upload completed")
	}
	return file, nil
}

func (s *uploadServiceImpl) AbortUpload(ctx context.Context, userID, token string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	session, err := s.store.Uploads.FindByToken(ctx, token)
	if err != nil {
		return apperr.FromDB(err, "upload session")
	}
	if session == nil {
		return apperr.NotFound("upload session not found")
	}
	aborted, err := s.store.Uploads.TransitionStatus(ctx, session.ID, models.UploadStatusActive, models.UploadStatusAborted)
	if err != nil {
		return apperr.FromDB(err, "upload session")
	}
	if !aborted {
		if session.Status == models.UploadStatusAborted {
			return nil
		}
		return apperr.State("upload session is %s", models.UploadStatusCompleted)
	}

	// the janitor retries anything left behind
	if err := s.gateway.DeletePrefix(ctx, storage.StagingPath(token)); err != nil {
		s.log.WithFields(logrus.Fields{
			"session": helpers.ShortToken(token),
			"error":   err.Error(),
		}).Warn("could not remove staged chunks")
	}
	s.log.WithFields(logrus.Fields{
		"session": helpers.ShortToken(token),
		"user":    userID,
	}).Info("upload aborted")
	return nil
}

func (s *uploadServiceImpl) GetUploadSession(ctx context.Context, token string) (*dto.UploadSessionView, error) {
	session, err := s.store.Uploads.FindByToken(ctx, token)
	if err != nil {
		return nil, apperr.FromDB(err, "upload session")
	}
	if session == nil {
		return nil, apperr.NotFound("upload session not found")
	}
	indexes, err := s.store.Uploads.ChunkIndexes(ctx, session.ID)
	if err != nil {
		return nil, apperr.FromDB(err, "upload chunk")
	}
	if indexes == nil {
		indexes = []int{}
	}
	return &dto.UploadSessionView{UploadSession: *session, ReceivedChunks: indexes}, nil
}

func (s *uploadServiceImpl) UploadDirect(ctx context.Context, userID string, req dto.DirectUploadRequest) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := helpers.ValidateName(req.FileName); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if req.Size < 0 {
		return nil, apperr.Validation("file size must not be negative")
	}
	if req.Size > s.cfg.DirectUploadThreshold {
		return nil, apperr.Validation("files larger than %d bytes must use chunked upload", s.cfg.DirectUploadThreshold)
	}
	if err := s.checkFolder(ctx, req.FolderID); err != nil {
		return nil, err
	}

	reader := bufio.NewReaderSize(req.Reader, sniffLen)
	mimeType := req.MimeType
	if mimeType == "" {
		head, err := reader.Peek(sniffLen)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return nil, apperr.Internal(err, "read upload")
		}
		mimeType = helpers.DetectMimeType("", head)
	}

	storagePath := generatedStoragePath(req.FileName)
	if err := s.gateway.PutObject(ctx, storagePath, reader, req.Size, mimeType); err != nil {
		return nil, apperr.Internal(err, "store upload")
	}

	file := s.newFile(userID, req.FileName, req.DisplayName, mimeType, req.Size, storagePath, req.FolderID)
	if err := s.store.Files.Create(ctx, file); err != nil {
		if cleanupErr := s.gateway.DeleteObject(context.WithoutCancel(ctx), storagePath); cleanupErr != nil {
			s.log.WithField("error", cleanupErr.Error()).Warn("could not remove object of failed upload")
		}
		return nil, apperr.FromDB(err, "file")
	}

	s.recorder.UploadCompleted("direct", file.FileSize)
	s.log.WithFields(logrus.Fields{
		"file": file.ID,
		"path": file.StoragePath,
		"size": file.FileSize,
		"mime": file.MimeType,
		"user": userID,
	}).Info("direct upload stored")
	return file, nil
}

func (s *uploadServiceImpl) activeSession(ctx context.Context, token string) (*models.UploadSession, error) {
	session, err := s.store.Uploads.FindByToken(ctx, token)
	if err != nil {
		return nil, apperr.FromDB(err, "upload session")
	}
	if session == nil {
		return nil, apperr.NotFound("upload session not found")
	}
	if session.Status != models.UploadStatusActive {
		return nil, apperr.State("upload session is %s", session.Status)
	}
	if session.IsExpired(s.now()) {
		return nil, apperr.State("upload session expired")
	}
	return session, nil
}

func (s *uploadServiceImpl) completedFile(ctx context.Context, session *models.UploadSession) (*models.File, bool, error) {
	return s.completedFileTx(ctx, s.store, session)
}

func (s *uploadServiceImpl) completedFileTx(ctx context.Context, store *repository.Store, session *models.UploadSession) (*models.File, bool, error) {
	if session.Status != models.UploadStatusCompleted || session.FileID == nil {
		return nil, false, nil
	}
	file, err := store.Files.FindByIDUnscoped(ctx, *session.FileID)
	if err != nil {
		return nil, false, apperr.FromDB(err, "file")
	}
	return file, true, nil
}

func (s *uploadServiceImpl) checkFolder(ctx context.Context, folderID *uint) error {
	if folderID == nil {
		return nil
	}
	if _, err := s.store.Folders.FindByID(ctx, *folderID); err != nil {
		return apperr.FromDB(err, "folder")
	}
	return nil
}

func (s *uploadServiceImpl) resolveStoragePath(requested, fileName string) (string, error) {
	if requested == "" {
		return generatedStoragePath(fileName), nil
	}
	if err := helpers.ValidateStoragePath(requested); err != nil {
		return "", apperr.Validation("%s", err.Error())
	}
	return requested, nil
}

func (s *uploadServiceImpl) newFile(userID, name, displayName, mimeType string, size int64, storagePath string, folderID *uint) *models.File {
	if displayName == "" {
		displayName = name
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &models.File{
		Name:          name,
		DisplayName:   displayName,
		MimeType:      mimeType,
		FileSize:      size,
		StoragePath:   storagePath,
		FolderID:      folderID,
		UploadedBy:    userID,
		VersionNumber: 1,
		Tags:          datatypes.NewJSONType([]string{}),
	}
}

func generatedStoragePath(fileName string) string {
	return fmt.Sprintf("files/%s/%s", uuid.NewString(), fileName)
}
