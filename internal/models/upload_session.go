package models

import "time"

type UploadStatus string

const (
	UploadStatusActive    UploadStatus = "active"
	UploadStatusCompleted UploadStatus = "completed"
	UploadStatusAborted   UploadStatus = "aborted"
)

type UploadSession struct {
	BaseModel
	SessionToken string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"session_token"`
	FileName     string       `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize     int64        `gorm:"not null" json:"file_size"`
	MimeType     string       `gorm:"type:varchar(255)" json:"mime_type"`
	FolderID     *uint        `gorm:"index" json:"folder_id"`
	ChunkSize    int64        `gorm:"not null" json:"chunk_size"`
	TotalChunks  int          `gorm:"not null" json:"total_chunks"`
	Status       UploadStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	FileID       *uint        `json:"file_id,omitempty"`
	CreatedBy    string       `gorm:"type:varchar(255);not null" json:"created_by"`
	ExpiresAt    time.Time    `gorm:"not null;index" json:"expires_at"`
}

func (s *UploadSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UploadChunk records one received chunk index of a session.
type UploadChunk struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	SessionID  uint      `gorm:"not null;uniqueIndex:idx_upload_chunk" json:"session_id"`
	ChunkIndex int       `gorm:"not null;uniqueIndex:idx_upload_chunk" json:"chunk_index"`
	Size       int64     `json:"size"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
