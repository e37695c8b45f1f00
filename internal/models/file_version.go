package models

// FileVersion is a snapshot of content a File held before it was replaced.
type FileVersion struct {
	BaseModel
	FileID            uint   `gorm:"not null;uniqueIndex:idx_file_version" json:"file_id"`
	VersionNumber     int    `gorm:"not null;uniqueIndex:idx_file_version" json:"version_number"`
	StoragePath       string `gorm:"type:varchar(2048);not null;index" json:"storage_path"`
	FileSize          int64  `json:"file_size"`
	MimeType          string `gorm:"type:varchar(255)" json:"mime_type"`
	ChangeDescription string `gorm:"type:text" json:"change_description,omitempty"`
	CreatedBy         string `gorm:"type:varchar(255);not null" json:"created_by"`
}
