package repository

import (
	"context"
	"errors"
	"sort"
	"time"
	"unicode/utf8"

	"Stash/internal/helpers"
	"Stash/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FolderRepository interface {
	GenericRepository[models.Folder]
	FindByPath(ctx context.Context, path string) (*models.Folder, error)
	FindChildren(ctx context.Context, parentID *uint) ([]models.Folder, error)
	CountChildren(ctx context.Context, parentID uint) (int64, error)
	FindDescendants(ctx context.Context, path string) ([]models.Folder, error)
	LockFolders(ctx context.Context, ids ...uint) (map[uint]*models.Folder, error)
	RebaseDescendants(ctx context.Context, oldPath, newPath string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
}

type FolderRepositoryImpl[T models.Folder] struct {
	GenericRepository[models.Folder]
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &FolderRepositoryImpl[models.Folder]{
		GenericRepository: NewGenericRepository[models.Folder](db),
		db:                db,
	}
}

func (r *FolderRepositoryImpl[T]) FindByPath(ctx context.Context, path string) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&folder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &folder, nil
}

func (r *FolderRepositoryImpl[T]) FindChildren(ctx context.Context, parentID *uint) ([]models.Folder, error) {
	var folders []models.Folder
	query := r.db.WithContext(ctx).Order("name")
	if parentID == nil {
		query = query.Where("parent_folder_id IS NULL")
	} else {
		query = query.Where("parent_folder_id = ?", *parentID)
	}
	if err := query.Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *FolderRepositoryImpl[T]) CountChildren(ctx context.Context, parentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Folder{}).
		Where("parent_folder_id = ?", parentID).
		Count(&count).Error
	return count, err
}

// FindDescendants returns every folder strictly below path, shallowest first.
// A substring comparison is used instead of LIKE so names holding % or _
// need no escaping.
func (r *FolderRepositoryImpl[T]) FindDescendants(ctx context.Context, path string) ([]models.Folder, error) {
	prefix := path + helpers.PathSeparator
	var folders []models.Folder
	err := r.db.WithContext(ctx).
		Where("substr(path, 1, ?) = ?", utf8.RuneCountInString(prefix), prefix).
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return helpers.PathDepth(folders[i].Path) < helpers.PathDepth(folders[j].Path)
	})
	return folders, nil
}

// LockFolders locks rows in ascending id order so concurrent callers cannot
// deadlock against each other. Missing ids are absent from the result.
func (r *FolderRepositoryImpl[T]) LockFolders(ctx context.Context, ids ...uint) (map[uint]*models.Folder, error) {
	unique := make(map[uint]struct{}, len(ids))
	ordered := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, seen := unique[id]; seen {
			continue
		}
		unique[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	locked := make(map[uint]*models.Folder, len(ordered))
	for _, id := range ordered {
		var folder models.Folder
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&folder, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locked[id] = &folder
	}
	return locked, nil
}

// RebaseDescendants rewrites the path prefix of every folder below oldPath.
// It must run inside the transaction that renames or moves the subtree root.
func (r *FolderRepositoryImpl[T]) RebaseDescendants(ctx context.Context, oldPath, newPath string) (int64, error) {
	prefix := oldPath + helpers.PathSeparator
	prefixLen := utf8.RuneCountInString(prefix)
	result := r.db.WithContext(ctx).Exec(
		"UPDATE folders SET path = CAST(? AS TEXT) || substr(path, ?), updated_at = ? WHERE substr(path, 1, ?) = ?",
		newPath, prefixLen, time.Now(), prefixLen, prefix,
	)
	return result.RowsAffected, result.Error
}

func (r *FolderRepositoryImpl[T]) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Folder{}).Error
}
