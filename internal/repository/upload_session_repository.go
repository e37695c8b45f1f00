package repository

import (
	"context"
	"errors"
	"time"

	"Stash/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UploadSessionRepository interface {
	GenericRepository[models.UploadSession]
	FindByToken(ctx context.Context, token string) (*models.UploadSession, error)
	UpsertChunk(ctx context.Context, chunk *models.UploadChunk) error
	ChunkIndexes(ctx context.Context, sessionID uint) ([]int, error)
	CountChunks(ctx context.Context, sessionID uint) (int64, error)
	TransitionStatus(ctx context.Context, id uint, from, to models.UploadStatus) (bool, error)
	SetFileID(ctx context.Context, id uint, fileID uint) error
	FindStale(ctx context.Context, now time.Time) ([]models.UploadSession, error)
	DeleteWithChunks(ctx context.Context, id uint) error
}

type UploadSessionRepositoryImpl[T models.UploadSession] struct {
	GenericRepository[models.UploadSession]
	db *gorm.DB
}

func NewUploadSessionRepository(db *gorm.DB) UploadSessionRepository {
	return &UploadSessionRepositoryImpl[models.UploadSession]{
		GenericRepository: NewGenericRepository[models.UploadSession](db),
		db:                db,
	}
}

func (r *UploadSessionRepositoryImpl[T]) FindByToken(ctx context.Context, token string) (*models.UploadSession, error) {
	var session models.UploadSession
	err := r.db.WithContext(ctx).Where("session_token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// UpsertChunk records a chunk index once; a resubmission only refreshes size.
func (r *UploadSessionRepositoryImpl[T]) UpsertChunk(ctx context.Context, chunk *models.UploadChunk) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "chunk_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"size", "updated_at"}),
	}).Create(chunk).Error
}

func (r *UploadSessionRepositoryImpl[T]) ChunkIndexes(ctx context.Context, sessionID uint) ([]int, error) {
	var indexes []int
	err := r.db.WithContext(ctx).Model(&models.UploadChunk{}).
		Where("session_id = ?", sessionID).
		Order("chunk_index").
		Pluck("chunk_index", &indexes).Error
	return indexes, err
}

func (r *UploadSessionRepositoryImpl[T]) CountChunks(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UploadChunk{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// TransitionStatus is a compare-and-set on the session status. Exactly one
// concurrent caller observes true for a given transition.
func (r *UploadSessionRepositoryImpl[T]) TransitionStatus(ctx context.Context, id uint, from, to models.UploadStatus) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *UploadSessionRepositoryImpl[T]) SetFileID(ctx context.Context, id uint, fileID uint) error {
	return r.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("id = ?", id).
		Update("file_id", fileID).Error
}

// FindStale returns sessions whose staged chunks can be reclaimed: aborted
// ones and active ones past their expiry.
func (r *UploadSessionRepositoryImpl[T]) FindStale(ctx context.Context, now time.Time) ([]models.UploadSession, error) {
	var sessions []models.UploadSession
	err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND expires_at <= ?)", models.UploadStatusAborted, models.UploadStatusActive, now).
		Find(&sessions).Error
	return sessions, err
}

func (r *UploadSessionRepositoryImpl[T]) DeleteWithChunks(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", id).Delete(&models.UploadChunk{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.UploadSession{}, id).Error
}
