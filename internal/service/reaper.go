package service

import (
	"context"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/storage"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StaleRetag re-enqueues media stuck in pending or processing longer
// than the timeout. A crash between claim and completion, or a full
// job queue at upload time, would otherwise leave the record behind
// forever.
func StaleRetag(tick, timeout time.Duration, db *gorm.DB, tagger *Tagger) {
	ticker := time.NewTicker(tick)

	zap.L().Debug("Stale retag reaper attached", zap.Duration("tick_every", tick))

	go func() {
		for range ticker.C {
			staleRetagOnce(timeout, db, tagger)
		}
	}()
}

func staleRetagOnce(timeout time.Duration, db *gorm.DB, tagger *Tagger) {
	cutoff := time.Now().Add(-timeout)

	var stuck []model.Media

	err := db.
		Where("ai_status IN ? AND updated_at < ?", []string{model.StatusPending, model.StatusProcessing}, cutoff).
		Select("id", "user_id", "storage_key", "mime_type", "ai_status").
		Find(&stuck).
		Error
	if err != nil {
		zap.L().Error("Failed to query db for stuck media", zap.Error(err))
		return
	}

	for _, m := range stuck {
		// Back to pending so the worker can claim it. For a record
		// already pending (its job was never enqueued or lost with
		// the process) this just bumps updated_at, keeping the next
		// tick from enqueueing it again while the job waits.
		res := db.
			Model(model.Media{}).
			Where("id = ? AND ai_status = ?", m.ID, m.AIStatus).
			Update("ai_status", model.StatusPending)
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}

		err := tagger.Enqueue(&TagJob{
			MediaID:  m.ID,
			UserID:   m.UserID,
			Key:      m.StorageKey,
			MimeType: m.MimeType,
		})
		if err != nil {
			zap.L().Warn("Tag queue full while re-enqueueing stuck media", zap.String("media_id", m.ID))
			return
		}

		zap.L().Info("Re-enqueued stuck media", zap.String("media_id", m.ID), zap.String("was", m.AIStatus))
	}
}

const purgeRetention = 30 * 24 * time.Hour

// PurgeDeleted hard deletes media rows that were soft deleted more
// than the retention period ago and removes their stored objects
func PurgeDeleted(tick time.Duration, db *gorm.DB, store storage.Storage) {
	ticker := time.NewTicker(tick)

	zap.L().Debug("Purge reaper attached", zap.Duration("tick_every", tick))

	go func() {
		for range ticker.C {
			PurgeDeletedOnce(db, store)
		}
	}()
}

// PurgeDeletedOnce runs a single purge pass. Also reachable through
// the --purge-deleted flag for manual runs.
func PurgeDeletedOnce(db *gorm.DB, store storage.Storage) {
	cutoff := time.Now().Add(-purgeRetention)

	var expired []model.Media

	err := db.
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Select("id", "storage_key").
		Find(&expired).
		Error
	if err != nil {
		zap.L().Error("Failed to query db for media to purge", zap.Error(err))
		return
	}

	for _, m := range expired {
		if err := store.Delete(context.Background(), m.StorageKey); err != nil {
			zap.L().Error("Failed to delete stored object", zap.String("key", m.StorageKey), zap.Error(err))
			continue
		}

		if err := db.Unscoped().Delete(&model.Media{}, "id = ?", m.ID).Error; err != nil {
			zap.L().Error("Failed to purge media row", zap.String("media_id", m.ID), zap.Error(err))
			continue
		}

		zap.L().Debug("Purged soft deleted media", zap.String("media_id", m.ID))
	}

	err = db.
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&model.Post{}).
		Error
	if err != nil {
		zap.L().Error("Failed to purge post rows", zap.Error(err))
	}
}
