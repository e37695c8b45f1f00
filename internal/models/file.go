package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type File struct {
	BaseModel
	Name          string                       `gorm:"type:varchar(255);not null" json:"name"`
	DisplayName   string                       `gorm:"type:varchar(255)" json:"display_name"`
	MimeType      string                       `gorm:"type:varchar(255)" json:"mime_type"`
	FileSize      int64                        `gorm:"default:0" json:"file_size"`
	StoragePath   string                       `gorm:"type:varchar(2048);not null;uniqueIndex" json:"storage_path"`
	FolderID      *uint                        `gorm:"index" json:"folder_id"`
	UploadedBy    string                       `gorm:"type:varchar(255);not null" json:"uploaded_by"`
	VersionNumber int                          `gorm:"not null;default:1" json:"version_number"`
	IsEncrypted   bool                         `json:"is_encrypted"`
	Tags          datatypes.JSONType[[]string] `json:"tags"`
	DeletedAt     gorm.DeletedAt               `gorm:"index" json:"deleted_at,omitempty"`
}
