package dto

type CommentRequest struct {
	Text            string `json:"comment_text"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}
