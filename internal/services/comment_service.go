package services

import (
	"context"
	"strings"

	"Stash/internal/apperr"
	"Stash/internal/models"
	"Stash/internal/repository"
	"github.com/sirupsen/logrus"
)

type CommentService interface {
	CreateComment(ctx context.Context, userID string, fileID uint, text string, parentCommentID *uint) (*models.Comment, error)
	ListComments(ctx context.Context, fileID uint) ([]models.Comment, error)
	UpdateComment(ctx context.Context, userID string, id uint, text string) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID string, id uint) error
}

type commentServiceImpl struct {
	store *repository.Store
	log   *logrus.Entry
}

func NewCommentService(store *repository.Store, logService LogService) CommentService {
	return &commentServiceImpl{
		store: store,
		log:   logService.Component("comments"),
	}
}

func (s *commentServiceImpl) CreateComment(ctx context.Context, userID string, fileID uint, text string, parentCommentID *uint) (*models.Comment, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("comment text is required")
	}
	if _, err := s.store.Files.FindByID(ctx, fileID); err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	if parentCommentID != nil {
		parent, err := s.store.Comments.FindByID(ctx, *parentCommentID)
		if err != nil {
			return nil, apperr.FromDB(err, "parent comment")
		}
		if parent.FileID != fileID {
			return nil, apperr.Validation("parent comment belongs to another file")
		}
	}

	comment := &models.Comment{
		FileID:          fileID,
		CommentText:     text,
		ParentCommentID: parentCommentID,
		CreatedBy:       userID,
	}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, apperr.FromDB(err, "comment")
	}
	s.log.WithFields(logrus.Fields{
		"comment": comment.ID,
		"file":    fileID,
		"user":    userID,
	}).Debug("comment created")
	return comment, nil
}

func (s *commentServiceImpl) ListComments(ctx context.Context, fileID uint) ([]models.Comment, error) {
	if _, err := s.store.Files.FindByID(ctx, fileID); err != nil {
		return nil, apperr.FromDB(err, "file")
	}
	comments, err := s.store.Comments.ListByFile(ctx, fileID)
	if err != nil {
		return nil, apperr.FromDB(err, "comment")
	}
	return comments, nil
}

func (s *commentServiceImpl) UpdateComment(ctx context.Context, userID string, id uint, text string) (*models.Comment, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("comment text is required")
	}
	comment, err := s.ownComment(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if comment.CommentText == text {
		return comment, nil
	}
	comment.CommentText = text
	comment.IsEdited = true
	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return nil, apperr.FromDB(err, "comment")
	}
	return comment, nil
}

// DeleteComment is limited to the author. Replies move up to the deleted
// comment's parent so threads stay connected.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, userID string, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	comment, err := s.ownComment(ctx, userID, id)
	if err != nil {
		return err
	}
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Comments.ReparentReplies(ctx, comment.ID, comment.ParentCommentID); err != nil {
			return apperr.FromDB(err, "comment")
		}
		return apperr.FromDB(tx.Comments.Delete(ctx, comment.ID), "comment")
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"comment": id,
		"file":    comment.FileID,
		"user":    userID,
	}).Debug("comment deleted")
	return nil
}

func (s *commentServiceImpl) ownComment(ctx context.Context, userID string, id uint) (*models.Comment, error) {
	comment, err := s.store.Comments.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "comment")
	}
	if comment.CreatedBy != userID {
		return nil, apperr.Unauthorized("only the author can change this comment")
	}
	return comment, nil
}
