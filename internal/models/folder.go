package models

// Folder is a node of the folder tree. Path is the "/"-joined chain of ancestor
// names ending with Name, e.g. "Assets/Photos".
type Folder struct {
	BaseModel
	Name           string `gorm:"type:varchar(255);not null" json:"name"`
	Description    string `gorm:"type:text" json:"description,omitempty"`
	Path           string `gorm:"type:varchar(2048);not null;uniqueIndex" json:"path"`
	ParentFolderID *uint  `gorm:"index" json:"parent_folder_id"`
	CreatedBy      string `gorm:"type:varchar(255);not null" json:"created_by"`
}
