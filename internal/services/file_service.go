package services

import (
	"context"
	"errors"
	"time"

	"Stash/internal/apperr"
	"Stash/internal/config"
	"Stash/internal/dto"
	"Stash/internal/helpers"
	"Stash/internal/models"
	"Stash/internal/repository"
	"Stash/internal/storage"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FileService interface {
	CreateFile(ctx context.Context, userID string, req dto.CreateFileRequest) (*models.File, error)
	GetFile(ctx context.Context, id uint) (*models.File, error)
	GetFiles(ctx context.Context, folderID *uint) ([]models.File, error)
	UpdateFile(ctx context.Context, userID string, id uint, req dto.UpdateFileRequest) (*models.File, error)
	DeleteFile(ctx context.Context, userID string, id uint) error
	RestoreFile(ctx context.Context, userID string, id uint) (*models.File, error)
	MoveFile(ctx context.Context, userID string, id uint, folderID *uint) (*models.File, error)
	MoveFiles(ctx context.Context, userID string, ids []uint, folderID *uint) ([]dto.MoveResult, error)
	GetFileDownloadURL(ctx context.Context, id uint) (*dto.DownloadURL, error)
	ListDeletedFiles(ctx context.Context) ([]models.File, error)
}

type fileServiceImpl struct {
	store     *repository.Store
	gateway   storage.Gateway
	signedTTL time.Duration
	log       *logrus.Entry
	now       func() time.Time
}

func NewFileService(store *repository.Store, gateway storage.Gateway, configuration *config.Configuration, logService LogService) FileService {
	return &fileServiceImpl{
		store:     store,
		gateway:   gateway,
		signedTTL: time.Duration(configuration.Share.SignedURLTTLSeconds) * time.Second,
		log:       logService.Component("files"),
		now:       time.Now,
	}
}

func (s *fileServiceImpl) CreateFile(ctx context.Context, userID string, req dto.CreateFileRequest) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := helpers.ValidateName(req.Name); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if err := helpers.ValidateStoragePath(req.StoragePath); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if req.FileSize < 0 {
		return nil, apperr.Validation("file size must not be negative")
	}
	if err := s.checkFolder(ctx, req.FolderID); err != nil {
		return nil, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	file := &models.File{
		Name:          req.Name,
		DisplayName:   displayName,
		MimeType:      mimeType,
		FileSize:      req.FileSize,
		StoragePath:   req.StoragePath,
		FolderID:      req.FolderID,
		UploadedBy:    userID,
		VersionNumber: 1,
		IsEncrypted:   req.IsEncrypted,
		Tags:          datatypes.NewJSONType(tags),
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		inUse, err := objectReferenced(ctx, tx, file.StoragePath, 0, 0)
		if err != nil {
			return err
		}
		if inUse {
			return apperr.Conflict("storage path %q is already in use", file.StoragePath)
		}
		return apperr.FromDB(tx.Files.Create(ctx, file), "file")
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"file": file.ID,
		"path": file.StoragePath,
		"user": userID,
	}).Info("file registered")
	return file, nil
}

func (s *fileServiceImpl) GetFile(ctx context.Context, id uint) (*models.File, error) {
	file, err := s.store.Files.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	return file, nil
}

func (s *fileServiceImpl) GetFiles(ctx context.Context, folderID *uint) ([]models.File, error) {
	if err := s.checkFolder(ctx, folderID); err != nil {
		return nil, err
	}
	files, err := s.store.Files.FindByFolder(ctx, folderID)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	return files, nil
}

func (s *fileServiceImpl) UpdateFile(ctx context.Context, userID string, id uint, req dto.UpdateFileRequest) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if req.DisplayName != nil {
		if err := helpers.ValidateName(*req.DisplayName); err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		fields["display_name"] = *req.DisplayName
	}
	if req.Tags != nil {
		tags := *req.Tags
		if tags == nil {
			tags = []string{}
		}
		fields["tags"] = datatypes.NewJSONType(tags)
	}
	if req.IsEncrypted != nil {
		fields["is_encrypted"] = *req.IsEncrypted
	}
	if len(fields) > 0 {
		if err := s.store.Files.UpdateFields(ctx, id, fields); err != nil {
			return nil, apperr.FromDB(err, "file")
		}
	}
	return s.GetFile(ctx, id)
}

// DeleteFile soft-deletes the file and revokes its share links. The content is
// reclaimed by the janitor once the retention period has passed.
func (s *fileServiceImpl) DeleteFile(ctx context.Context, userID string, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	var revoked int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Files.FindByIDForUpdate(ctx, id); err != nil {
			return apperr.FromDB(err, "file")
		}
		if err := tx.Files.SoftDeleteByIDs(ctx, []uint{id}); err != nil {
			return apperr.FromDB(err, "file")
		}
		var err error
		revoked, err = tx.Shares.RevokeByTargets(ctx, models.ShareTargetFile, []uint{id})
		return apperr.FromDB(err, "share link")
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"file":    id,
		"revoked": revoked,
		"user":    userID,
	}).Info("file deleted")
	return nil
}

// RestoreFile undoes a soft delete. Revoked share links stay revoked, and a
// file whose folder is gone comes back at the root.
func (s *fileServiceImpl) RestoreFile(ctx context.Context, userID string, id uint) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	file, err := s.store.Files.FindByIDUnscoped(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	if !file.DeletedAt.Valid {
		return nil, apperr.State("file %d is not deleted", id)
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Files.Restore(ctx, id); err != nil {
			return apperr.FromDB(err, "file")
		}
		if file.FolderID == nil {
			return nil
		}
		if _, err := tx.Folders.FindByID(ctx, *file.FolderID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.FromDB(err, "folder")
			}
			return apperr.FromDB(tx.Files.UpdateFields(ctx, id, map[string]interface{}{"folder_id": nil}), "file")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"file": id,
		"user": userID,
	}).Info("file restored")
	return s.GetFile(ctx, id)
}

// MoveFile locks the target folder and the file inside one transaction, so a
// concurrent folder delete cannot leave the file pointing at a missing folder.
func (s *fileServiceImpl) MoveFile(ctx context.Context, userID string, id uint, folderID *uint) (*models.File, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	moved := false
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if folderID != nil {
			locked, err := tx.Folders.LockFolders(ctx, *folderID)
			if err != nil {
				return apperr.FromDB(err, "folder")
			}
			if _, ok := locked[*folderID]; !ok {
				return apperr.NotFound("folder not found")
			}
		}
		file, err := tx.Files.FindByIDForUpdate(ctx, id)
		if err != nil {
			return apperr.FromDB(err, "file")
		}
		if sameParent(file.FolderID, folderID) {
			return nil
		}
		moved = true
		return apperr.FromDB(tx.Files.UpdateFields(ctx, id, map[string]interface{}{"folder_id": folderID}), "file")
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.log.WithFields(logrus.Fields{
			"file":   id,
			"folder": folderID,
			"user":   userID,
		}).Info("file moved")
	}
	return s.GetFile(ctx, id)
}

// MoveFiles attempts every id and reports a result per id; one failure does
// not stop the others.
func (s *fileServiceImpl) MoveFiles(ctx context.Context, userID string, ids []uint, folderID *uint) ([]dto.MoveResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, folderID); err != nil {
		return nil, err
	}
	results := make([]dto.MoveResult, 0, len(ids))
	for _, id := range ids {
		file, err := s.MoveFile(ctx, userID, id, folderID)
		if err != nil {
			results = append(results, dto.MoveResult{ID: id, Error: apperr.Message(err)})
			continue
		}
		results = append(results, dto.MoveResult{ID: id, Success: true, File: file})
	}
	return results, nil
}

func (s *fileServiceImpl) GetFileDownloadURL(ctx context.Context, id uint) (*dto.DownloadURL, error) {
	file, err := s.store.Files.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	return signedDownload(ctx, s.gateway, file.StoragePath, s.signedTTL, s.now())
}

func (s *fileServiceImpl) ListDeletedFiles(ctx context.Context) ([]models.File, error) {
	files, err := s.store.Files.FindDeleted(ctx)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	return files, nil
}

func (s *fileServiceImpl) checkFolder(ctx context.Context, folderID *uint) error {
	if folderID == nil {
		return nil
	}
	if _, err := s.store.Folders.FindByID(ctx, *folderID); err != nil {
		return apperr.FromDB(err, "folder")
	}
	return nil
}

func signedDownload(ctx context.Context, gateway storage.Gateway, storagePath string, ttl time.Duration, now time.Time) (*dto.DownloadURL, error) {
	url, err := gateway.GetSignedURL(ctx, storagePath, ttl)
	if err != nil {
		return nil, apperr.Internal(err, "sign download url")
	}
	return &dto.DownloadURL{URL: url, ExpiresAt: now.Add(ttl)}, nil
}
