package mapper

import (
	"Stash/internal/dto"
	"Stash/internal/models"
)

func ToShareLinkView(link *models.ShareLink) *dto.ShareLinkView {
	if link == nil {
		return nil
	}
	return &dto.ShareLinkView{
		ID:             link.ID,
		TargetType:     link.TargetType,
		TargetID:       link.TargetID,
		ShareToken:     link.ShareToken,
		HasPassword:    link.HasPassword(),
		ExpiresAt:      link.ExpiresAt,
		MaxDownloads:   link.MaxDownloads,
		DownloadCount:  link.DownloadCount,
		AllowPreview:   link.AllowPreview,
		AllowDownload:  link.AllowDownload,
		IsActive:       link.IsActive,
		CreatedBy:      link.CreatedBy,
		CreatedAt:      link.CreatedAt,
		LastAccessedAt: link.LastAccessedAt,
	}
}

func ToShareLinkViews(links []models.ShareLink) []dto.ShareLinkView {
	views := make([]dto.ShareLinkView, 0, len(links))
	for i := range links {
		views = append(views, *ToShareLinkView(&links[i]))
	}
	return views
}
