package dto

import (
	"io"

	"Stash/internal/models"
)

type CreateUploadSessionRequest struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
	FolderID *uint  `json:"folder_id"`
}

type ChunkProgress struct {
	ChunksReceived int `json:"chunks_received"`
	TotalChunks    int `json:"total_chunks"`
}

type UploadSessionView struct {
	models.UploadSession
	ReceivedChunks []int `json:"received_chunks"`
}

type CompleteUploadRequest struct {
	SessionToken string `json:"session_token"`
	StoragePath  string `json:"storage_path"`
	DisplayName  string `json:"display_name"`
}

type DirectUploadRequest struct {
	FileName    string
	DisplayName string
	MimeType    string
	FolderID    *uint
	Size        int64
	Reader      io.Reader
}
