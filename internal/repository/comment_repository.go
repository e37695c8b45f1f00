package repository

import (
	"context"

	"Stash/internal/models"
	"gorm.io/gorm"
)

type CommentRepository interface {
	GenericRepository[models.Comment]
	ListByFile(ctx context.Context, fileID uint) ([]models.Comment, error)
	ReparentReplies(ctx context.Context, parentID uint, newParentID *uint) error
	DeleteByFile(ctx context.Context, fileID uint) error
}

type CommentRepositoryImpl[T models.Comment] struct {
	GenericRepository[models.Comment]
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &CommentRepositoryImpl[models.Comment]{
		GenericRepository: NewGenericRepository[models.Comment](db),
		db:                db,
	}
}

func (r *CommentRepositoryImpl[T]) ListByFile(ctx context.Context, fileID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("created_at, id").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepositoryImpl[T]) ReparentReplies(ctx context.Context, parentID uint, newParentID *uint) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_comment_id = ?", parentID).
		Update("parent_comment_id", newParentID).Error
}

func (r *CommentRepositoryImpl[T]) DeleteByFile(ctx context.Context, fileID uint) error {
	return r.db.WithContext(ctx).Where("file_id = ?", fileID).Delete(&models.Comment{}).Error
}
