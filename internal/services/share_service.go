package services

import (
	"context"
	"time"

	"Stash/internal/apperr"
	"Stash/internal/config"
	"Stash/internal/dto"
	"Stash/internal/helpers"
	"Stash/internal/metrics"
	"Stash/internal/models"
	"Stash/internal/repository"
	"Stash/internal/storage"
	"github.com/sirupsen/logrus"
)

type ShareService interface {
	CreateShareLink(ctx context.Context, userID string, req dto.CreateShareLinkRequest) (*models.ShareLink, error)
	ValidateShareLink(ctx context.Context, token string, password *string) (*dto.ShareValidation, error)
	RecordShareAccess(ctx context.Context, token string, password *string, kind models.ShareAccessKind, meta dto.AccessMeta) error
	GetSharedDownloadURL(ctx context.Context, token string, password *string, meta dto.AccessMeta) (*dto.DownloadURL, error)
	GetSharedPreviewURL(ctx context.Context, token string, password *string, meta dto.AccessMeta) (*dto.DownloadURL, error)
	RevokeShareLink(ctx context.Context, userID string, id uint) error
	ListShareLinks(ctx context.Context, targetType models.ShareTargetType, targetID uint) ([]models.ShareLink, error)
	ListShareAccessLogs(ctx context.Context, userID string, id uint) ([]models.ShareAccessLog, error)
}

type shareServiceImpl struct {
	store      *repository.Store
	gateway    storage.Gateway
	recorder   *metrics.Recorder
	iterations int
	signedTTL  time.Duration
	log        *logrus.Entry
	now        func() time.Time
}

func NewShareService(store *repository.Store, gateway storage.Gateway, recorder *metrics.Recorder, configuration *config.Configuration, logService LogService) ShareService {
	return &shareServiceImpl{
		store:      store,
		gateway:    gateway,
		recorder:   recorder,
		iterations: configuration.Share.PasswordIterations,
		signedTTL:  time.Duration(configuration.Share.SignedURLTTLSeconds) * time.Second,
		log:        logService.Component("shares"),
		now:        time.Now,
	}
}

func (s *shareServiceImpl) CreateShareLink(ctx context.Context, userID string, req dto.CreateShareLinkRequest) (*models.ShareLink, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, req.TargetType, req.TargetID); err != nil {
		return nil, err
	}
	if req.ExpiresInHours != nil && *req.ExpiresInHours <= 0 {
		return nil, apperr.Validation("expires_in must be a positive number of hours")
	}
	if req.MaxDownloads != nil && *req.MaxDownloads <= 0 {
		return nil, apperr.Validation("max_downloads must be positive")
	}

	token, err := helpers.NewToken()
	if err != nil {
		return nil, apperr.Internal(err, "generate share token")
	}
	link := &models.ShareLink{
		TargetType:    req.TargetType,
		TargetID:      req.TargetID,
		ShareToken:    token,
		MaxDownloads:  req.MaxDownloads,
		AllowPreview:  req.AllowPreview,
		AllowDownload: req.AllowDownload,
		IsActive:      true,
		CreatedBy:     userID,
	}
	if req.Password != nil && *req.Password != "" {
		if link.PasswordHash, link.PasswordSalt, err = helpers.HashPassword(*req.Password, s.iterations); err != nil {
			return nil, apperr.Internal(err, "hash share password")
		}
	}
	if req.ExpiresInHours != nil {
		expiresAt := s.now().Add(time.Duration(*req.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &expiresAt
	}
	if err := s.store.Shares.Create(ctx, link); err != nil {
		return nil, apperr.FromDB(err, "share link")
	}

	s.log.WithFields(logrus.Fields{
		"link":     link.ID,
		"target":   link.TargetType,
		"targetId": link.TargetID,
		"token":    helpers.ShortToken(token),
		"password": link.HasPassword(),
		"user":     userID,
	}).Info("share link created")
	return link, nil
}

// ValidateShareLink checks, in order: existence, revocation, expiry, quota and
// password. A protected link asked for without a password yields
// PasswordRequired and no target data.
func (s *shareServiceImpl) ValidateShareLink(ctx context.Context, token string, password *string) (*dto.ShareValidation, error) {
	_, validation, err := s.validate(ctx, token, password)
	return validation, err
}

func (s *shareServiceImpl) validate(ctx context.Context, token string, password *string) (*models.ShareLink, *dto.ShareValidation, error) {
	link, err := s.usableLink(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if link.QuotaReached() {
		return nil, nil, apperr.QuotaExceeded("share link download limit reached")
	}
	required, err := checkPassword(link, password)
	if err != nil {
		return nil, nil, err
	}
	if required {
		return link, &dto.ShareValidation{PasswordRequired: true}, nil
	}

	validation := &dto.ShareValidation{
		TargetType: link.TargetType,
		Permissions: &dto.SharePermissions{
			AllowPreview:  link.AllowPreview,
			AllowDownload: link.AllowDownload,
		},
		ExpiresAt: link.ExpiresAt,
	}
	switch link.TargetType {
	case models.ShareTargetFile:
		file, err := s.store.Files.FindByID(ctx, link.TargetID)
		if err != nil {
			return nil, nil, apperr.FromDB(err, "shared file")
		}
		validation.File = file
	case models.ShareTargetFolder:
		folder, err := s.store.Folders.FindByID(ctx, link.TargetID)
		if err != nil {
			return nil, nil, apperr.FromDB(err, "shared folder")
		}
		files, err := s.store.Files.FindByFolder(ctx, &folder.ID)
		if err != nil {
			return nil, nil, apperr.FromDB(err, "file")
		}
		validation.Folder = folder
		validation.Files = files
	}
	return link, validation, nil
}

// RecordShareAccess counts a download with a single guarded increment, so
// concurrent consumers can never push download_count past max_downloads.
// Protected links need their password for every kind of access.
func (s *shareServiceImpl) RecordShareAccess(ctx context.Context, token string, password *string, kind models.ShareAccessKind, meta dto.AccessMeta) error {
	if kind != models.ShareAccessView && kind != models.ShareAccessDownload {
		return apperr.Validation("unknown access kind %q", kind)
	}
	link, err := s.usableLink(ctx, token)
	if err != nil {
		return err
	}
	required, err := checkPassword(link, password)
	if err != nil {
		return err
	}
	if required {
		return apperr.InvalidPassword("password required")
	}
	return s.recordAccess(ctx, link, kind, meta)
}

func (s *shareServiceImpl) recordAccess(ctx context.Context, link *models.ShareLink, kind models.ShareAccessKind, meta dto.AccessMeta) error {
	now := s.now()
	if kind == models.ShareAccessDownload {
		counted, err := s.store.Shares.IncrementDownload(ctx, link.ID, now)
		if err != nil {
			return apperr.FromDB(err, "share link")
		}
		if !counted {
			current, err := s.store.Shares.FindByID(ctx, link.ID)
			if err != nil {
				return apperr.FromDB(err, "share link")
			}
			if !current.IsActive {
				return apperr.Revoked("share link has been revoked")
			}
			return apperr.QuotaExceeded("share link download limit reached")
		}
	} else if err := s.store.Shares.Touch(ctx, link.ID, now); err != nil {
		return apperr.FromDB(err, "share link")
	}

	entry := &models.ShareAccessLog{
		ShareLinkID: link.ID,
		Kind:        kind,
		FileID:      meta.FileID,
		RemoteAddr:  meta.RemoteAddr,
		UserAgent:   meta.UserAgent,
		AccessedAt:  now,
	}
	if err := s.store.Shares.CreateAccessLog(ctx, entry); err != nil {
		// the counter has already moved, so the access stands
		s.log.WithFields(logrus.Fields{
			"link":  link.ID,
			"error": err.Error(),
		}).Warn("could not write share access log")
	}
	s.recorder.ShareAccessed(string(link.TargetType), string(kind))
	return nil
}

func (s *shareServiceImpl) GetSharedDownloadURL(ctx context.Context, token string, password *string, meta dto.AccessMeta) (*dto.DownloadURL, error) {
	return s.sharedURL(ctx, token, password, models.ShareAccessDownload, meta)
}

func (s *shareServiceImpl) GetSharedPreviewURL(ctx context.Context, token string, password *string, meta dto.AccessMeta) (*dto.DownloadURL, error) {
	return s.sharedURL(ctx, token, password, models.ShareAccessView, meta)
}

// sharedURL validates the link, checks the permission for kind, records the
// access and signs a URL for the file. Folder links need meta.FileID to name
// a file directly inside the shared folder.
func (s *shareServiceImpl) sharedURL(ctx context.Context, token string, password *string, kind models.ShareAccessKind, meta dto.AccessMeta) (*dto.DownloadURL, error) {
	link, validation, err := s.validate(ctx, token, password)
	if err != nil {
		return nil, err
	}
	if validation.PasswordRequired {
		return nil, apperr.InvalidPassword("password required")
	}
	if kind == models.ShareAccessDownload && !validation.Permissions.AllowDownload {
		return nil, apperr.State("downloads are disabled for this link")
	}
	if kind == models.ShareAccessView && !validation.Permissions.AllowPreview {
		return nil, apperr.State("previews are disabled for this link")
	}

	file := validation.File
	if validation.TargetType == models.ShareTargetFolder {
		if meta.FileID == nil {
			return nil, apperr.Validation("file_id is required for folder links")
		}
		for i := range validation.Files {
			if validation.Files[i].ID == *meta.FileID {
				file = &validation.Files[i]
				break
			}
		}
		if file == nil {
			return nil, apperr.NotFound("file %d is not part of this share", *meta.FileID)
		}
	} else {
		meta.FileID = &file.ID
	}

	if err := s.recordAccess(ctx, link, kind, meta); err != nil {
		return nil, err
	}
	return signedDownload(ctx, s.gateway, file.StoragePath, s.signedTTL, s.now())
}

// RevokeShareLink is permanent; no operation turns a link back on.
func (s *shareServiceImpl) RevokeShareLink(ctx context.Context, userID string, id uint) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	link, err := s.store.Shares.FindByID(ctx, id)
	if err != nil {
		return apperr.FromDB(err, "share link")
	}
	if !link.IsActive {
		return nil
	}
	if err := s.store.Shares.Revoke(ctx, id); err != nil {
		return apperr.FromDB(err, "share link")
	}
	s.log.WithFields(logrus.Fields{
		"link":  id,
		"token": helpers.ShortToken(link.ShareToken),
		"user":  userID,
	}).Info("share link revoked")
	return nil
}

func (s *shareServiceImpl) ListShareLinks(ctx context.Context, targetType models.ShareTargetType, targetID uint) ([]models.ShareLink, error) {
	if targetType != models.ShareTargetFile && targetType != models.ShareTargetFolder {
		return nil, apperr.Validation("unknown share target type %q", targetType)
	}
	links, err := s.store.Shares.ListByTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, apperr.FromDB(err, "share link")
	}
	return links, nil
}

func (s *shareServiceImpl) ListShareAccessLogs(ctx context.Context, userID string, id uint) ([]models.ShareAccessLog, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	link, err := s.store.Shares.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "share link")
	}
	if link.CreatedBy != userID {
		return nil, apperr.Unauthorized("only the creator of a share link can read its access log")
	}
	logs, err := s.store.Shares.ListAccessLogs(ctx, id)
	if err != nil {
		return nil, apperr.FromDB(err, "share access log")
	}
	return logs, nil
}

// usableLink resolves a token and rejects revoked or expired links.
func (s *shareServiceImpl) usableLink(ctx context.Context, token string) (*models.ShareLink, error) {
	link, err := s.store.Shares.FindByToken(ctx, token)
	if err != nil {
		return nil, apperr.FromDB(err, "share link")
	}
	if link == nil {
		return nil, apperr.NotFound("share link not found")
	}
	if !link.IsActive {
		return nil, apperr.Revoked("share link has been revoked")
	}
	if link.IsExpired(s.now()) {
		return nil, apperr.Expired("share link has expired")
	}
	return link, nil
}

// checkPassword reports required when a protected link is asked for without
// a password. A wrong password is an InvalidPassword error.
func checkPassword(link *models.ShareLink, password *string) (bool, error) {
	if !link.HasPassword() {
		return false, nil
	}
	if password == nil || *password == "" {
		return true, nil
	}
	ok, err := helpers.VerifyPassword(*password, link.PasswordHash, link.PasswordSalt)
	if err != nil {
		return false, apperr.Internal(err, "verify share password")
	}
	if !ok {
		return false, apperr.InvalidPassword("invalid password")
	}
	return false, nil
}

func (s *shareServiceImpl) checkTarget(ctx context.Context, targetType models.ShareTargetType, targetID uint) error {
	switch targetType {
	case models.ShareTargetFile:
		_, err := s.store.Files.FindByID(ctx, targetID)
		return apperr.FromDB(err, "file")
	case models.ShareTargetFolder:
		_, err := s.store.Folders.FindByID(ctx, targetID)
		return apperr.FromDB(err, "folder")
	default:
		return apperr.Validation("unknown share target type %q", targetType)
	}
}
