package dto

import "Stash/internal/models"

type CreateFolderRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	ParentFolderID *uint  `json:"parent_folder_id"`
}

type UpdateFolderRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type MoveFolderRequest struct {
	TargetParentID *uint `json:"target_parent_id"`
}

type DeleteFolderOptions struct {
	MoveFilesToParent bool `json:"move_files_to_parent"`
	Recursive         bool `json:"recursive"`
}

// FolderContents lists a folder, or the root when Folder is nil.
type FolderContents struct {
	Folder     *models.Folder  `json:"folder"`
	Subfolders []models.Folder `json:"subfolders"`
	Files      []models.File   `json:"files"`
}
