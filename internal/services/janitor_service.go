package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"Stash/internal/apperr"
	"Stash/internal/config"
	"Stash/internal/metrics"
	"Stash/internal/models"
	"Stash/internal/repository"
	"Stash/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrCleaningInProgress = errors.New("cleaning is in progress")

// JanitorService is the part of the janitor exposed over HTTP.
type JanitorService interface {
	ForceStartCleanCycle() error
	IsCleaning() bool
}

type SweepReport struct {
	SessionsReclaimed int `json:"sessions_reclaimed"`
	FilesPurged       int `json:"files_purged"`
	ObjectsDeleted    int `json:"objects_deleted"`
}

// Janitor reclaims expired or aborted upload sessions and permanently removes
// files that have been soft-deleted for longer than the retention period.
// Every step is safe to repeat.
type Janitor struct {
	store         *repository.Store
	gateway       storage.Gateway
	recorder      *metrics.Recorder
	configuration *config.Configuration
	log           *logrus.Entry
	cleaning      bool
	mutex         sync.Mutex
	cron          *cron.Cron
	now           func() time.Time
}

func NewJanitorService(
	store *repository.Store,
	gateway storage.Gateway,
	recorder *metrics.Recorder,
	logService LogService,
	configuration *config.Configuration,
) *Janitor {
	return &Janitor{
		store:         store,
		gateway:       gateway,
		recorder:      recorder,
		configuration: configuration,
		log:           logService.Component("janitor"),
		cron:          cron.New(),
		now:           time.Now,
	}
}

func (j *Janitor) ForceStartCleanCycle() error {
	if !j.begin() {
		return ErrCleaningInProgress
	}

	go func() {
		defer j.end()
		j.startClean(context.Background(), true)
	}()
	return nil
}

func (j *Janitor) StartCleanCycle() error {
	schedule := j.configuration.Server.CleanConfig.Schedule
	j.log.WithField("cron", schedule).Debug("starting cleaning job")
	_, err := j.cron.AddFunc(schedule, func() {
		if !j.begin() {
			return
		}
		defer j.end()
		j.startClean(context.Background(), false)
	})
	if err != nil {
		j.log.WithFields(logrus.Fields{
			"job":   "clean",
			"error": err.Error(),
		}).Error("failed to start cleaning job")
		return err
	}
	j.cron.Start()
	return nil
}

// StopClean stops the schedule and waits for a running sweep to finish.
func (j *Janitor) StopClean() {
	<-j.cron.Stop().Done()
	j.log.WithFields(logrus.Fields{
		"job":    "clean",
		"status": "stopped",
	}).Info("janitor clean stopped")
}

func (j *Janitor) IsCleaning() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	return j.cleaning
}

// RunOnce performs a single sweep in the calling goroutine.
func (j *Janitor) RunOnce(ctx context.Context) (*SweepReport, error) {
	if !j.begin() {
		return nil, ErrCleaningInProgress
	}
	defer j.end()
	return j.sweep(ctx)
}

func (j *Janitor) begin() bool {
	j.mutex.Lock()
	defer j.mutex.Unlock()
	if j.cleaning {
		return false
	}
	j.cleaning = true
	return true
}

func (j *Janitor) end() {
	j.mutex.Lock()
	j.cleaning = false
	j.mutex.Unlock()
}

func (j *Janitor) startClean(ctx context.Context, forced bool) {
	fields := logrus.Fields{"job": "clean", "status": "start"}
	if forced {
		fields["status"] = "forced"
	} else {
		fields["cron"] = j.configuration.Server.CleanConfig.Schedule
	}
	j.log.WithFields(fields).Debug("cleaning job started")

	report, err := j.sweep(ctx)
	if err != nil {
		j.log.WithFields(logrus.Fields{
			"job":    "clean",
			"status": "error",
			"error":  err.Error(),
		}).Error("cleaning job failed")
		return
	}
	if report.SessionsReclaimed > 0 || report.FilesPurged > 0 {
		j.log.WithFields(logrus.Fields{
			"job":      "clean",
			"status":   "success",
			"sessions": report.SessionsReclaimed,
			"files":    report.FilesPurged,
			"objects":  report.ObjectsDeleted,
		}).Info("cleaning job finished")
	}
}

func (j *Janitor) sweep(ctx context.Context) (*SweepReport, error) {
	now := j.now()
	sessions, err := j.store.Uploads.FindStale(ctx, now)
	if err != nil {
		return nil, apperr.FromDB(err, "upload session")
	}
	retention := time.Duration(j.configuration.Server.CleanConfig.RetentionHours) * time.Hour
	cutoff := now.Add(-retention)
	files, err := j.store.Files.FindDeletedBefore(ctx, cutoff)
	if err != nil {
		return nil, apperr.FromDB(err, "file")
	}

	var reclaimed, purged, objects atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(j.configuration.Server.CleanConfig.Workers)

	for i := range sessions {
		session := sessions[i]
		group.Go(func() error {
			if err := j.reclaimSession(groupCtx, &session); err != nil {
				j.log.WithFields(logrus.Fields{
					"job":     "clean",
					"session": session.ID,
					"error":   err.Error(),
				}).Warn("could not reclaim upload session")
				return nil
			}
			reclaimed.Add(1)
			return nil
		})
	}
	for i := range files {
		file := files[i]
		group.Go(func() error {
			done, deleted, err := j.purgeFile(groupCtx, file.ID, cutoff)
			if err != nil {
				j.log.WithFields(logrus.Fields{
					"job":   "clean",
					"file":  file.ID,
					"error": err.Error(),
				}).Warn("could not purge file")
				return nil
			}
			if !done {
				return nil
			}
			purged.Add(1)
			objects.Add(int64(deleted))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report := &SweepReport{
		SessionsReclaimed: int(reclaimed.Load()),
		FilesPurged:       int(purged.Load()),
		ObjectsDeleted:    int(objects.Load()),
	}
	j.recorder.Reclaimed("upload_session", report.SessionsReclaimed)
	j.recorder.Reclaimed("file", report.FilesPurged)
	j.recorder.Reclaimed("object", report.ObjectsDeleted)
	return report, nil
}

func (j *Janitor) reclaimSession(ctx context.Context, session *models.UploadSession) error {
	if session.Status == models.UploadStatusActive {
		claimed, err := j.store.Uploads.TransitionStatus(ctx, session.ID, models.UploadStatusActive, models.UploadStatusAborted)
		if err != nil {
			return err
		}
		if !claimed {
			// completed or aborted since it was listed; the next sweep sees its real state
			return nil
		}
	}
	if err := j.gateway.DeletePrefix(ctx, storage.StagingPath(session.SessionToken)); err != nil {
		return err
	}
	return j.store.Uploads.DeleteWithChunks(ctx, session.ID)
}

// purgeFile removes the file row together with its versions, comments and
// share links, then deletes every storage object nothing else references. The
// row is re-read under a lock; a file restored since it was listed is skipped.
func (j *Janitor) purgeFile(ctx context.Context, fileID uint, cutoff time.Time) (bool, int, error) {
	var paths []string
	err := j.store.Transaction(ctx, func(tx *repository.Store) error {
		file, err := tx.Files.LockDeletedBefore(ctx, fileID, cutoff)
		if err != nil || file == nil {
			return err
		}
		paths = append(paths, file.StoragePath)
		versions, err := tx.Versions.ListByFile(ctx, file.ID)
		if err != nil {
			return err
		}
		for _, version := range versions {
			paths = append(paths, version.StoragePath)
		}
		if err := tx.Versions.DeleteByFile(ctx, file.ID); err != nil {
			return err
		}
		if err := tx.Comments.DeleteByFile(ctx, file.ID); err != nil {
			return err
		}
		if err := tx.Shares.DeleteByTarget(ctx, models.ShareTargetFile, file.ID); err != nil {
			return err
		}
		return tx.Files.HardDelete(ctx, file.ID)
	})
	if err != nil {
		return false, 0, err
	}
	if paths == nil {
		return false, 0, nil
	}

	deleted := 0
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		referenced, err := objectReferenced(ctx, j.store, path, 0, 0)
		if err != nil {
			return true, deleted, err
		}
		if referenced {
			continue
		}
		if err := j.gateway.DeleteObject(ctx, path); err != nil {
			return true, deleted, err
		}
		deleted++
	}
	j.log.WithFields(logrus.Fields{
		"job":     "clean",
		"file":    fileID,
		"objects": deleted,
	}).Debug("file purged")
	return true, deleted, nil
}
