package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"Stash/internal/apperr"
	"Stash/internal/dto"
	"Stash/internal/helpers"
	"Stash/internal/metrics"
	"Stash/internal/models"
	"Stash/internal/repository"
	"Stash/internal/storage"
	"github.com/sirupsen/logrus"
)

type VersionService interface {
	CreateVersion(ctx context.Context, userID string, req dto.CreateVersionRequest) (*models.File, error)
	UploadVersion(ctx context.Context, userID string, fileID uint, reader io.Reader, size int64, mimeType, description string) (*models.File, error)
	RestoreVersion(ctx context.Context, userID string, fileID uint, versionNumber int) (*models.File, error)
	DeleteVersion(ctx context.Context, userID string, fileID uint, versionNumber int) error
	ListVersions(ctx context.Context, fileID uint) ([]models.FileVersion, error)
}

type versionServiceImpl struct {
	store    *repository.Store
	gateway  storage.Gateway
	recorder *metrics.Recorder
	log      *logrus.Entry
	now      func() time.Time
}

func NewVersionService(store *repository.Store, gateway storage.Gateway, recorder *metrics.Recorder, logService LogService) VersionService {
	return &versionServiceImpl{
		store:    store,
		gateway:  gateway,
		recorder: recorder,
		log:      logService.Component("versions"),
		now:      time.Now,
	}
}

type newContent struct {
	storagePath string
	fileSize    int64
	mimeType    string
	description string
}

func (s *versionServiceImpl) CreateVersion(ctx context.Context, userID string, req dto.CreateVersionRequest) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := helpers.ValidateStoragePath(req.StoragePath); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if req.FileSize < 0 {
		return nil, apperr.Validation("file size must not be negative")
	}
	return s.supersede(ctx, userID, req.FileID, newContent{
		storagePath: req.StoragePath,
		fileSize:    req.FileSize,
		mimeType:    req.MimeType,
		description: req.ChangeDescription,
	}, false)
}

func (s *versionServiceImpl) UploadVersion(ctx context.Context, userID string, fileID uint, reader io.Reader, size int64, mimeType, description string) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	file, err := s.store.Files.FindByID(ctx, fileID)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	if mimeType == "" {
		mimeType = file.MimeType
	}

	storagePath := generatedStoragePath(file.Name)
	if err := s.gateway.PutObject(ctx, storagePath, reader, size, mimeType); err != nil {
		return nil, apperr.Internal(err, "store new version")
	}
	updated, err := s.supersede(ctx, userID, fileID, newContent{
		storagePath: storagePath,
		fileSize:    size,
		mimeType:    mimeType,
		description: description,
	}, false)
	if err != nil {
		if cleanupErr := s.gateway.DeleteObject(context.WithoutCancel(ctx), storagePath); cleanupErr != nil {
			s.log.WithField("error", cleanupErr.Error()).Warn("could not remove object of failed version upload")
		}
		return nil, err
	}
	s.recorder.UploadCompleted("version", size)
	return updated, nil
}

// RestoreVersion makes an old snapshot current again. History stays linear:
// the current content is snapshotted first and the restored content gets a
// new, highest version number.
func (s *versionServiceImpl) RestoreVersion(ctx context.Context, userID string, fileID uint, versionNumber int) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	target, err := s.store.Versions.FindByFileAndNumber(ctx, fileID, versionNumber)
	if err != nil {
		return nil, apperr.FromDB(err, "version")
	}
	return s.supersede(ctx, userID, fileID, newContent{
		storagePath: target.StoragePath,
		fileSize:    target.FileSize,
		mimeType:    target.MimeType,
		description: fmt.Sprintf("restored from version %d", versionNumber),
	}, true)
}

// supersede snapshots the file's current content as a FileVersion stamped
// with the current version number, then points the file at the new content.
// The file update is conditional on the version number that was read.
func (s *versionServiceImpl) supersede(ctx context.Context, userID string, fileID uint, content newContent, restoring bool) (*models.File, error) {
	var file *models.File
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if file, err = tx.Files.FindByID(ctx, fileID); err != nil {
			return apperr.FromDB(err, "file")
		}
		if !restoring {
			// a File's storage path is unique; older versions may share it
			inUse, err := tx.Files.CountByStoragePath(ctx, content.storagePath, file.ID)
			if err != nil {
				return apperr.FromDB(err, "file")
			}
			if inUse > 0 {
				return apperr.Conflict("storage path %q belongs to another file", content.storagePath)
			}
		}

		snapshot := &models.FileVersion{
			FileID:            file.ID,
			VersionNumber:     file.VersionNumber,
			StoragePath:       file.StoragePath,
			FileSize:          file.FileSize,
			MimeType:          file.MimeType,
			ChangeDescription: content.description,
			CreatedBy:         userID,
		}
		if err := tx.Versions.Create(ctx, snapshot); err != nil {
			if apperr.Is(apperr.FromDB(err, "version"), apperr.KindConflict) {
				return apperr.Conflict("file %d was modified concurrently", fileID)
			}
			return apperr.FromDB(err, "version")
		}

		mimeType := content.mimeType
		if mimeType == "" {
			mimeType = file.MimeType
		}
		updated, err := tx.Files.UpdateVersion(ctx, file.ID, file.VersionNumber, map[string]interface{}{
			"storage_path":   content.storagePath,
			"file_size":      content.fileSize,
			"mime_type":      mimeType,
			"version_number": file.VersionNumber + 1,
			"updated_at":     s.now(),
		})
		if err != nil {
			return apperr.FromDB(err, "file")
		}
		if !updated {
			return apperr.Conflict("file %d was modified concurrently", fileID)
		}
		file, err = tx.Files.FindByID(ctx, fileID)
		return apperr.FromDB(err, "file")
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"file":      fileID,
		"version":   file.VersionNumber,
		"path":      file.StoragePath,
		"restoring": restoring,
		"user":      userID,
	}).Info("file version advanced")
	return file, nil
}

func (s *versionServiceImpl) DeleteVersion(ctx context.Context, userID string, fileID uint, versionNumber int) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	var orphaned string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		file, err := tx.Files.FindByIDUnscoped(ctx, fileID)
		if err != nil {
			return apperr.FromDB(err, "file")
		}
		if versionNumber == file.VersionNumber {
			return apperr.Conflict("version %d is the current content of file %d", versionNumber, fileID)
		}
		version, err := tx.Versions.FindByFileAndNumber(ctx, fileID, versionNumber)
		if err != nil {
			return apperr.FromDB(err, "version")
		}
		if err := tx.Versions.Delete(ctx, version.ID); err != nil {
			return apperr.FromDB(err, "version")
		}

		referenced, err := objectReferenced(ctx, tx, version.StoragePath, 0, version.ID)
		if err != nil {
			return err
		}
		if !referenced {
			orphaned = version.StoragePath
		}
		return nil
	})
	if err != nil {
		return err
	}

	if orphaned != "" {
		if err := s.gateway.DeleteObject(ctx, orphaned); err != nil {
			s.log.WithFields(logrus.Fields{
				"path":  orphaned,
				"error": err.Error(),
			}).Warn("could not remove version object")
		}
	}
	s.log.WithFields(logrus.Fields{
		"file":    fileID,
		"version": versionNumber,
		"user":    userID,
	}).Info("version deleted")
	return nil
}

func (s *versionServiceImpl) ListVersions(ctx context.Context, fileID uint) ([]models.FileVersion, error) {
	if _, err := s.store.Files.FindByIDUnscoped(ctx, fileID); err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	versions, err := s.store.Versions.ListByFile(ctx, fileID)
	if err != nil {
		return nil, apperr.FromDB(err, "version")
	}
	return versions, nil
}

// objectReferenced reports whether any file or version other than the
// excluded ones still points at storagePath.
func objectReferenced(ctx context.Context, store *repository.Store, storagePath string, excludeFileID, excludeVersionID uint) (bool, error) {
	files, err := store.Files.CountByStoragePath(ctx, storagePath, excludeFileID)
	if err != nil {
		return false, apperr.FromDB(err, "file")
	}
	if files > 0 {
		return true, nil
	}
	versions, err := store.Versions.CountByStoragePath(ctx, storagePath, excludeVersionID)
	if err != nil {
		return false, apperr.FromDB(err, "version")
	}
	return versions > 0, nil
}
