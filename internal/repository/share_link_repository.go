package repository

import (
	"context"
	"errors"
	"time"

	"Stash/internal/models"
	"gorm.io/gorm"
)

type ShareLinkRepository interface {
	GenericRepository[models.ShareLink]
	FindByToken(ctx context.Context, token string) (*models.ShareLink, error)
	ListByTarget(ctx context.Context, targetType models.ShareTargetType, targetID uint) ([]models.ShareLink, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTargets(ctx context.Context, targetType models.ShareTargetType, targetIDs []uint) (int64, error)
	IncrementDownload(ctx context.Context, id uint, now time.Time) (bool, error)
	Touch(ctx context.Context, id uint, now time.Time) error
	CreateAccessLog(ctx context.Context, entry *models.ShareAccessLog) error
	ListAccessLogs(ctx context.Context, shareLinkID uint) ([]models.ShareAccessLog, error)
	DeleteByTarget(ctx context.Context, targetType models.ShareTargetType, targetID uint) error
}

type ShareLinkRepositoryImpl[T models.ShareLink] struct {
	GenericRepository[models.ShareLink]
	db *gorm.DB
}

func NewShareLinkRepository(db *gorm.DB) ShareLinkRepository {
	return &ShareLinkRepositoryImpl[models.ShareLink]{
		GenericRepository: NewGenericRepository[models.ShareLink](db),
		db:                db,
	}
}

func (r *ShareLinkRepositoryImpl[T]) FindByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).Where("share_token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *ShareLinkRepositoryImpl[T]) ListByTarget(ctx context.Context, targetType models.ShareTargetType, targetID uint) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

// Revoke only ever moves is_active to false.
func (r *ShareLinkRepositoryImpl[T]) Revoke(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.ShareLink{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *ShareLinkRepositoryImpl[T]) RevokeByTargets(ctx context.Context, targetType models.ShareTargetType, targetIDs []uint) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.ShareLink{}).
		Where("target_type = ? AND target_id IN ? AND is_active = ?", targetType, targetIDs, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// IncrementDownload bumps download_count in a single guarded statement so
// concurrent consumers can never push the count past max_downloads. It
// reports false when the link is inactive or its quota is used up.
func (r *ShareLinkRepositoryImpl[T]) IncrementDownload(ctx context.Context, id uint, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.ShareLink{}).
		Where("id = ? AND is_active = ? AND (max_downloads IS NULL OR download_count < max_downloads)", id, true).
		Updates(map[string]interface{}{
			"download_count":   gorm.Expr("download_count + 1"),
			"last_accessed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *ShareLinkRepositoryImpl[T]) Touch(ctx context.Context, id uint, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ShareLink{}).
		Where("id = ?", id).
		Update("last_accessed_at", now).Error
}

func (r *ShareLinkRepositoryImpl[T]) CreateAccessLog(ctx context.Context, entry *models.ShareAccessLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ShareLinkRepositoryImpl[T]) ListAccessLogs(ctx context.Context, shareLinkID uint) ([]models.ShareAccessLog, error) {
	var logs []models.ShareAccessLog
	err := r.db.WithContext(ctx).
		Where("share_link_id = ?", shareLinkID).
		Order("accessed_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *ShareLinkRepositoryImpl[T]) DeleteByTarget(ctx context.Context, targetType models.ShareTargetType, targetID uint) error {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ShareLink{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return err
	}
	if err := r.db.WithContext(ctx).Where("share_link_id IN ?", ids).Delete(&models.ShareAccessLog{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ShareLink{}).Error
}
