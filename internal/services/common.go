package services

import (
	"strings"

	"Stash/internal/apperr"
	"Stash/internal/models"
)

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func folderIDsOf(folders []models.Folder) []uint {
	ids := make([]uint, 0, len(folders))
	for _, folder := range folders {
		ids = append(ids, folder.ID)
	}
	return ids
}

func fileIDsOf(files []models.File) []uint {
	ids := make([]uint, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}
	return ids
}
