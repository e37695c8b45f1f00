package repository

import (
	"context"
	"time"

	"Stash/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FileRepository interface {
	GenericRepository[models.File]
	FindByFolder(ctx context.Context, folderID *uint) ([]models.File, error)
	FindByFolders(ctx context.Context, folderIDs []uint) ([]models.File, error)
	FindByIDUnscoped(ctx context.Context, id uint) (*models.File, error)
	FindDeleted(ctx context.Context) ([]models.File, error)
	FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error)
	LockDeletedBefore(ctx context.Context, id uint, cutoff time.Time) (*models.File, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdateVersion(ctx context.Context, id uint, expectedVersion int, fields map[string]interface{}) (bool, error)
	ReparentFiles(ctx context.Context, fromFolderID uint, toFolderID *uint) (int64, error)
	SoftDeleteByIDs(ctx context.Context, ids []uint) error
	Restore(ctx context.Context, id uint) error
	HardDelete(ctx context.Context, id uint) error
	CountByStoragePath(ctx context.Context, storagePath string, excludeFileID uint) (int64, error)
}

type FileRepositoryImpl[T models.File] struct {
	GenericRepository[models.File]
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &FileRepositoryImpl[models.File]{
		GenericRepository: NewGenericRepository[models.File](db),
		db:                db,
	}
}

func (r *FileRepositoryImpl[T]) FindByFolder(ctx context.Context, folderID *uint) ([]models.File, error) {
	var files []models.File
	query := r.db.WithContext(ctx).Order("name")
	if folderID == nil {
		query = query.Where("folder_id IS NULL")
	} else {
		query = query.Where("folder_id = ?", *folderID)
	}
	if err := query.Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *FileRepositoryImpl[T]) FindByFolders(ctx context.Context, folderIDs []uint) ([]models.File, error) {
	var files []models.File
	if len(folderIDs) == 0 {
		return files, nil
	}
	err := r.db.WithContext(ctx).Where("folder_id IN ?", folderIDs).Find(&files).Error
	return files, err
}

func (r *FileRepositoryImpl[T]) FindByIDUnscoped(ctx context.Context, id uint) (*models.File, error) {
	var file models.File
	if err := r.db.WithContext(ctx).Unscoped().First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepositoryImpl[T]) FindDeleted(ctx context.Context) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&files).Error
	return files, err
}

func (r *FileRepositoryImpl[T]) FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&files).Error
	return files, err
}

// LockDeletedBefore re-reads a file under a row lock and returns nil when it
// is no longer soft-deleted past cutoff.
func (r *FileRepositoryImpl[T]) LockDeletedBefore(ctx context.Context, id uint, cutoff time.Time) (*models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NOT NULL AND deleted_at < ?", id, cutoff).
		Limit(1).
		Find(&files).Error
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}

func (r *FileRepositoryImpl[T]) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateVersion applies fields only if the row still carries expectedVersion.
// It reports false when another writer moved the version first.
func (r *FileRepositoryImpl[T]) UpdateVersion(ctx context.Context, id uint, expectedVersion int, fields map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.File{}).
		Where("id = ? AND version_number = ?", id, expectedVersion).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *FileRepositoryImpl[T]) ReparentFiles(ctx context.Context, fromFolderID uint, toFolderID *uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.File{}).
		Where("folder_id = ?", fromFolderID).
		Update("folder_id", toFolderID)
	return result.RowsAffected, result.Error
}

func (r *FileRepositoryImpl[T]) SoftDeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.File{}).Error
}

func (r *FileRepositoryImpl[T]) Restore(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Model(&models.File{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

func (r *FileRepositoryImpl[T]) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.File{}, id).Error
}

// CountByStoragePath counts files, soft-deleted ones included, that still
// reference storagePath.
func (r *FileRepositoryImpl[T]) CountByStoragePath(ctx context.Context, storagePath string, excludeFileID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.File{}).
		Where("storage_path = ? AND id <> ?", storagePath, excludeFileID).
		Count(&count).Error
	return count, err
}
