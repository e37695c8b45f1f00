package models

import "time"

type ShareTargetType string

const (
	ShareTargetFile   ShareTargetType = "file"
	ShareTargetFolder ShareTargetType = "folder"
)

type ShareAccessKind string

const (
	ShareAccessView     ShareAccessKind = "view"
	ShareAccessDownload ShareAccessKind = "download"
)

type ShareLink struct {
	BaseModel
	TargetType     ShareTargetType `gorm:"type:varchar(10);not null;index:idx_share_target" json:"target_type"`
	TargetID       uint            `gorm:"not null;index:idx_share_target" json:"target_id"`
	ShareToken     string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"share_token"`
	PasswordHash   string          `gorm:"type:varchar(128)" json:"-"`
	PasswordSalt   string          `gorm:"type:varchar(64)" json:"-"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	MaxDownloads   *int            `json:"max_downloads"`
	DownloadCount  int             `gorm:"not null;default:0" json:"download_count"`
	AllowPreview   bool            `json:"allow_preview"`
	AllowDownload  bool            `json:"allow_download"`
	IsActive       bool            `gorm:"not null" json:"is_active"`
	CreatedBy      string          `gorm:"type:varchar(255);not null" json:"created_by"`
	LastAccessedAt *time.Time      `json:"last_accessed_at"`
}

func (l *ShareLink) HasPassword() bool {
	return l.PasswordHash != ""
}

func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

func (l *ShareLink) QuotaReached() bool {
	return l.MaxDownloads != nil && l.DownloadCount >= *l.MaxDownloads
}

type ShareAccessLog struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ShareLinkID uint            `gorm:"not null;index" json:"share_link_id"`
	Kind        ShareAccessKind `gorm:"type:varchar(10);not null" json:"kind"`
	FileID      *uint           `json:"file_id,omitempty"`
	RemoteAddr  string          `gorm:"type:varchar(64)" json:"remote_addr,omitempty"`
	UserAgent   string          `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
	AccessedAt  time.Time       `gorm:"not null;index" json:"accessed_at"`
}
