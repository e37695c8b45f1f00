package dto

import (
	"time"

	"Stash/internal/models"
)

type CreateFileRequest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	MimeType    string   `json:"mime_type"`
	FileSize    int64    `json:"file_size"`
	StoragePath string   `json:"storage_path"`
	FolderID    *uint    `json:"folder_id"`
	IsEncrypted bool     `json:"is_encrypted"`
	Tags        []string `json:"tags"`
}

type UpdateFileRequest struct {
	DisplayName *string   `json:"display_name"`
	Tags        *[]string `json:"tags"`
	IsEncrypted *bool     `json:"is_encrypted"`
}

type MoveFileRequest struct {
	FolderID *uint `json:"folder_id"`
}

type MoveFilesRequest struct {
	IDs      []uint `json:"ids"`
	FolderID *uint  `json:"folder_id"`
}

type MoveResult struct {
	ID      uint         `json:"id"`
	Success bool         `json:"success"`
	File    *models.File `json:"file,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type DownloadURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreateVersionRequest struct {
	FileID            uint   `json:"file_id"`
	StoragePath       string `json:"storage_path"`
	FileSize          int64  `json:"file_size"`
	MimeType          string `json:"mime_type"`
	ChangeDescription string `json:"change_description"`
}
