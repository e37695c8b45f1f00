package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories bound to one connection or transaction.
type Store struct {
	db       *gorm.DB
	Folders  FolderRepository
	Files    FileRepository
	Uploads  UploadSessionRepository
	Versions VersionRepository
	Shares   ShareLinkRepository
	Comments CommentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Folders:  NewFolderRepository(db),
		Files:    NewFileRepository(db),
		Uploads:  NewUploadSessionRepository(db),
		Versions: NewVersionRepository(db),
		Shares:   NewShareLinkRepository(db),
		Comments: NewCommentRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single database transaction.
// Any error returned by fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
