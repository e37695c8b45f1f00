package dto

import (
	"time"

	"Stash/internal/models"
)

type CreateShareLinkRequest struct {
	TargetType     models.ShareTargetType `json:"target_type"`
	TargetID       uint                   `json:"target_id"`
	Password       *string                `json:"password"`
	ExpiresInHours *int                   `json:"expires_in"`
	MaxDownloads   *int                   `json:"max_downloads"`
	AllowPreview   bool                   `json:"allow_preview"`
	AllowDownload  bool                   `json:"allow_download"`
}

type ShareLinkView struct {
	ID             uint                   `json:"id"`
	TargetType     models.ShareTargetType `json:"target_type"`
	TargetID       uint                   `json:"target_id"`
	ShareToken     string                 `json:"share_token"`
	HasPassword    bool                   `json:"has_password"`
	ExpiresAt      *time.Time             `json:"expires_at"`
	MaxDownloads   *int                   `json:"max_downloads"`
	DownloadCount  int                    `json:"download_count"`
	AllowPreview   bool                   `json:"allow_preview"`
	AllowDownload  bool                   `json:"allow_download"`
	IsActive       bool                   `json:"is_active"`
	CreatedBy      string                 `json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt *time.Time             `json:"last_accessed_at"`
}

type SharePermissions struct {
	AllowPreview  bool `json:"allow_preview"`
	AllowDownload bool `json:"allow_download"`
}

// ShareValidation is the outcome of a successful lookup. When
// PasswordRequired is set no target data is included.
type ShareValidation struct {
	PasswordRequired bool                   `json:"password_required"`
	TargetType       models.ShareTargetType `json:"target_type,omitempty"`
	Permissions      *SharePermissions      `json:"permissions,omitempty"`
	File             *models.File           `json:"file,omitempty"`
	Folder           *models.Folder         `json:"folder,omitempty"`
	Files            []models.File          `json:"files,omitempty"`
	ExpiresAt        *time.Time             `json:"expires_at,omitempty"`
}

type ShareAccessRequest struct {
	Kind   models.ShareAccessKind `json:"kind"`
	FileID *uint                  `json:"file_id"`
}

type AccessMeta struct {
	RemoteAddr string
	UserAgent  string
	FileID     *uint
}
