package repository

import (
	"context"

	"Stash/internal/models"
	"gorm.io/gorm"
)

type VersionRepository interface {
	GenericRepository[models.FileVersion]
	FindByFileAndNumber(ctx context.Context, fileID uint, versionNumber int) (*models.FileVersion, error)
	ListByFile(ctx context.Context, fileID uint) ([]models.FileVersion, error)
	CountByStoragePath(ctx context.Context, storagePath string, excludeID uint) (int64, error)
	DeleteByFile(ctx context.Context, fileID uint) error
}

type VersionRepositoryImpl[T models.FileVersion] struct {
	GenericRepository[models.FileVersion]
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &VersionRepositoryImpl[models.FileVersion]{
		GenericRepository: NewGenericRepository[models.FileVersion](db),
		db:                db,
	}
}

func (r *VersionRepositoryImpl[T]) FindByFileAndNumber(ctx context.Context, fileID uint, versionNumber int) (*models.FileVersion, error) {
	var version models.FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ? AND version_number = ?", fileID, versionNumber).
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *VersionRepositoryImpl[T]) ListByFile(ctx context.Context, fileID uint) ([]models.FileVersion, error) {
	var versions []models.FileVersion
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}

func (r *VersionRepositoryImpl[T]) CountByStoragePath(ctx context.Context, storagePath string, excludeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FileVersion{}).
		Where("storage_path = ? AND id <> ?", storagePath, excludeID).
		Count(&count).Error
	return count, err
}

func (r *VersionRepositoryImpl[T]) DeleteByFile(ctx context.Context, fileID uint) error {
	return r.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.FileVersion{}).Error
}
