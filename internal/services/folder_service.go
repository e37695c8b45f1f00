package services

import (
	"context"

	"Stash/internal/apperr"
	"Stash/internal/dto"
	"Stash/internal/helpers"
	"Stash/internal/models"
	"Stash/internal/repository"
	"github.com/sirupsen/logrus"
)

type FolderService interface {
	CreateFolder(ctx context.Context, userID string, req dto.CreateFolderRequest) (*models.Folder, error)
	GetFolder(ctx context.Context, id uint) (*models.Folder, error)
	UpdateFolder(ctx context.Context, userID string, id uint, req dto.UpdateFolderRequest) (*models.Folder, error)
	MoveFolder(ctx context.Context, userID string, id uint, targetParentID *uint) (*models.Folder, error)
	DeleteFolder(ctx context.Context, userID string, id uint, opts dto.DeleteFolderOptions) error
	GetFolderContents(ctx context.Context, folderID *uint) (*dto.FolderContents, error)
	GetBreadcrumbs(ctx context.Context, id uint) ([]models.Folder, error)
}

type folderServiceImpl struct {
	store *repository.Store
	log   *logrus.Entry
}

func NewFolderService(store *repository.Store, logService LogService) FolderService {
	return &folderServiceImpl{
		store: store,
		log:   logService.Component("folders"),
	}
}

func (s *folderServiceImpl) CreateFolder(ctx context.Context, userID string, req dto.CreateFolderRequest) (*models.Folder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := helpers.ValidateName(req.Name); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	var folder *models.Folder
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		parentPath := ""
		if req.ParentFolderID != nil {
			// the lock keeps the parent from being renamed or moved under us
			locked, err := tx.Folders.LockFolders(ctx, *req.ParentFolderID)
			if err != nil {
				return apperr.FromDB(err, "folder")
			}
			parent, ok := locked[*req.ParentFolderID]
			if !ok {
				return apperr.NotFound("parent folder %d not found", *req.ParentFolderID)
			}
			parentPath = parent.Path
		}

		path := helpers.JoinFolderPath(parentPath, req.Name)
		existing, err := tx.Folders.FindByPath(ctx, path)
		if err != nil {
			return apperr.FromDB(err, "folder")
		}
		if existing != nil {
			return apperr.Conflict("a folder named %q already exists here", req.Name)
		}

		folder = &models.Folder{
			Name:           req.Name,
			Description:    req.Description,
			Path:           path,
			ParentFolderID: req.ParentFolderID,
			CreatedBy:      userID,
		}
		return apperr.FromDB(tx.Folders.Create(ctx, folder), "folder")
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"folder": folder.ID,
		"path":   folder.Path,
		"user":   userID,
	}).Info("folder created")
	return folder, nil
}

func (s *folderServiceImpl) GetFolder(ctx context.Context, id uint) (*models.Folder, error) {
	folder, err := s.store.Folders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "folder")
	}
	return folder, nil
}

func (s *folderServiceImpl) UpdateFolder(ctx context.Context, userID string, id uint, req dto.UpdateFolderRequest) (*models.Folder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := helpers.ValidateName(*req.Name); err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
	}

	var folder *models.Folder
	var oldPath string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Folders.LockFolders(ctx, id)
		if err != nil {
			return apperr.FromDB(err, "folder")
		}
		var ok bool
		if folder, ok = locked[id]; !ok {
			return apperr.NotFound("folder %d not found", id)
		}
		oldPath = folder.Path

		if req.Description != nil {
			folder.Description = *req.Description
		}
		if req.Name != nil && *req.Name != folder.Name {
			newPath := helpers.JoinFolderPath(helpers.ParentPath(folder.Path), *req.Name)
			existing, err := tx.Folders.FindByPath(ctx, newPath)
			if err != nil {
				return apperr.FromDB(err, "folder")
			}
			if existing != nil && existing.ID != folder.ID {
				return apperr.Conflict("a folder named %q already exists here", *req.Name)
			}
			folder.Name = *req.Name
			folder.Path = newPath
		}

		if err := tx.Folders.Update(ctx, folder); err != nil {
			return apperr.FromDB(err, "folder")
		}
		if folder.Path != oldPath {
			if _, err := tx.Folders.RebaseDescendants(ctx, oldPath, folder.Path); err != nil {
				return apperr.FromDB(err, "folder")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if folder.Path != oldPath {
		s.log.WithFields(logrus.Fields{
			"folder":  folder.ID,
			"oldPath": oldPath,
			"path":    folder.Path,
			"user":    userID,
		}).Info("folder renamed")
	}
	return folder, nil
}

func (s *folderServiceImpl) MoveFolder(ctx context.Context, userID string, id uint, targetParentID *uint) (*models.Folder, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if targetParentID != nil && *targetParentID == id {
		return nil, apperr.Conflict("a folder cannot be moved into itself")
	}

	var folder *models.Folder
	var oldPath string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		ids := []uint{id}
		if targetParentID != nil {
			ids = append(ids, *targetParentID)
		}
		// both rows stay locked until commit, so the cycle check below sees the
		// paths any concurrent move has already committed
		locked, err := tx.Folders.LockFolders(ctx, ids...)
		if err != nil {
			return apperr.FromDB(err, "folder")
		}
		var ok bool
		if folder, ok = locked[id]; !ok {
			return apperr.NotFound("folder %d not found", id)
		}
		oldPath = folder.Path

		newParentPath := ""
		if targetParentID != nil {
			target, ok := locked[*targetParentID]
			if !ok {
				return apperr.NotFound("target folder %d not found", *targetParentID)
			}
			if helpers.IsSameOrDescendant(target.Path, folder.Path) {
				return apperr.Conflict("cannot move %q into its own subtree", folder.Path)
			}
			newParentPath = target.Path
		}
		if sameParent(folder.ParentFolderID, targetParentID) {
			return nil
		}

		newPath := helpers.JoinFolderPath(newParentPath, folder.Name)
		existing, err := tx.Folders.FindByPath(ctx, newPath)
		if err != nil {
			return apperr.FromDB(err, "folder")
		}
		if existing != nil {
			return apperr.Conflict("a folder named %q already exists at the destination", folder.Name)
		}

		folder.ParentFolderID = targetParentID
		folder.Path = newPath
		if err := tx.Folders.Update(ctx, folder); err != nil {
			return apperr.FromDB(err, "folder")
		}
		_, err = tx.Folders.RebaseDescendants(ctx, oldPath, newPath)
		return apperr.FromDB(err, "folder")
	})
	if err != nil {
		return nil, err
	}

	if folder.Path != oldPath {
		s.log.WithFields(logrus.Fields{
			"folder":  folder.ID,
			"oldPath": oldPath,
			"path":    folder.Path,
			"user":    userID,
		}).Info("folder moved")
	}
	return folder, nil
}

// DeleteFolder refuses to drop a folder that still has subfolders unless
// opts.Recursive is set. Files directly inside are re-parented or soft-deleted
// according to opts.MoveFilesToParent; files further down are soft-deleted.
func (s *folderServiceImpl) DeleteFolder(ctx context.Context, userID string, id uint, opts dto.DeleteFolderOptions) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	var deletedFiles, deletedFolders int
	var path string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		locked, err := tx.Folders.LockFolders(ctx, id)
		if err != nil {
			return apperr.FromDB(err, "folder")
		}
		folder, ok := locked[id]
		if !ok {
			return apperr.NotFound("folder %d not found", id)
		}
		path = folder.Path

		children, err := tx.Folders.CountChildren(ctx, folder.ID)
		if err != nil {
			return apperr.FromDB(err, "folder")
		}
		if children > 0 && !opts.Recursive {
			return apperr.Conflict("folder %q has subfolders; delete them first or delete recursively", folder.Path)
		}

		var descendants []models.Folder
		if children > 0 {
			if descendants, err = tx.Folders.FindDescendants(ctx, folder.Path); err != nil {
				return apperr.FromDB(err, "folder")
			}
		}

		var doomed []models.File
		if opts.MoveFilesToParent {
			if _, err := tx.Files.ReparentFiles(ctx, folder.ID, folder.ParentFolderID); err != nil {
				return apperr.FromDB(err, "file")
			}
		} else {
			direct, err := tx.Files.FindByFolder(ctx, &folder.ID)
			if err != nil {
				return apperr.FromDB(err, "file")
			}
			doomed = append(doomed, direct...)
		}
		nested, err := tx.Files.FindByFolders(ctx, folderIDsOf(descendants))
		if err != nil {
			return apperr.FromDB(err, "file")
		}
		doomed = append(doomed, nested...)

		doomedIDs := fileIDsOf(doomed)
		if err := tx.Files.SoftDeleteByIDs(ctx, doomedIDs); err != nil {
			return apperr.FromDB(err, "file")
		}
		if _, err := tx.Shares.RevokeByTargets(ctx, models.ShareTargetFile, doomedIDs); err != nil {
			return apperr.FromDB(err, "share link")
		}

		removed := append(folderIDsOf(descendants), folder.ID)
		if _, err := tx.Shares.RevokeByTargets(ctx, models.ShareTargetFolder, removed); err != nil {
			return apperr.FromDB(err, "share link")
		}
		if err := tx.Folders.DeleteByIDs(ctx, removed); err != nil {
			return apperr.FromDB(err, "folder")
		}
		deletedFiles = len(doomedIDs)
		deletedFolders = len(removed)
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"folder":  id,
		"path":    path,
		"folders": deletedFolders,
		"files":   deletedFiles,
		"user":    userID,
	}).Info("folder deleted")
	return nil
}

func (s *folderServiceImpl) GetFolderContents(ctx context.Context, folderID *uint) (*dto.FolderContents, error) {
	contents := &dto.FolderContents{}
	if folderID != nil {
		folder, err := s.store.Folders.FindByID(ctx, *folderID)
		if err != nil {
			return nil, apperr.FromDB(err, "folder")
		}
		contents.Folder = folder
	}

	subfolders, err := s.store.Folders.FindChildren(ctx, folderID)
	if err != nil {
		return nil, apperr.FromDB(err, "folder")
	}
	files, err := s.store.Files.FindByFolder(ctx, folderID)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	contents.Subfolders = subfolders
	contents.Files = files
	return contents, nil
}

// GetBreadcrumbs returns the ancestor chain of a folder, root first, ending
// with the folder itself.
func (s *folderServiceImpl) GetBreadcrumbs(ctx context.Context, id uint) ([]models.Folder, error) {
	folder, err := s.store.Folders.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "folder")
	}
	depth := helpers.PathDepth(folder.Path)
	chain := make([]models.Folder, depth)
	chain[depth-1] = *folder
	current := folder
	for i := depth - 2; i >= 0 && current.ParentFolderID != nil; i-- {
		parent, err := s.store.Folders.FindByID(ctx, *current.ParentFolderID)
		if err != nil {
			return nil, apperr.FromDB(err, "folder")
		}
		chain[i] = *parent
		current = parent
	}
	return chain, nil
}
