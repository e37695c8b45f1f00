package models

type Comment struct {
	BaseModel
	FileID          uint   `gorm:"not null;index" json:"file_id"`
	CommentText     string `gorm:"type:text;not null" json:"comment_text"`
	ParentCommentID *uint  `gorm:"index" json:"parent_comment_id"`
	IsEdited        bool   `json:"is_edited"`
	CreatedBy       string `gorm:"type:varchar(255);not null" json:"created_by"`
}
