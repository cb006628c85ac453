package service

import (
	"context"
	"fmt"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/storage"
	"io"
	"path"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength  = 16
)

// NewID generates a record id in the shared alphabet
func NewID() (string, error) {
	return gonanoid.Generate(idCharset, idLength)
}

type Uploader struct {
	DB     *gorm.DB
	Store  storage.Storage
	Tagger *Tagger
}

func NewUploader(db *gorm.DB, store storage.Storage, tagger *Tagger) *Uploader {
	return &Uploader{
		DB:     db,
		Store:  store,
		Tagger: tagger,
	}
}

// Do stores the validated upload and creates its media record. Images
// get a tag job enqueued afterwards, best effort: the record is
// returned before any tagging happens and the client polls the
// ai_status field.
func (u *Uploader) Do(ctx context.Context, r io.Reader, filename, mimeType, mediaType string, size int64, userID string) (*model.Media, error) {
	id, err := NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate media ID, %w", err)
	}

	key := id + strings.ToLower(path.Ext(filename))

	if err := u.Store.Save(ctx, key, r, size, mimeType); err != nil {
		return nil, fmt.Errorf("failed to store upload, %w", err)
	}

	status := model.StatusCompleted
	if mediaType == model.MediaTypeImage {
		status = model.StatusPending
	}

	media := &model.Media{
		ID:         id,
		UserID:     userID,
		StorageKey: key,
		Filename:   filename,
		MediaType:  mediaType,
		MimeType:   mimeType,
		Size:       size,
		AITags:     model.StringSlice{},
		AIStatus:   status,
		CreatedAt:  time.Now(),
	}

	if err := u.DB.Create(media).Error; err != nil {
		// Don't leave orphaned bytes behind
		if derr := u.Store.Delete(context.Background(), key); derr != nil {
			zap.L().Error("Failed to clean up stored object after db error", zap.String("key", key), zap.Error(derr))
		}

		return nil, fmt.Errorf("failed to create media record, %w", err)
	}

	if status == model.StatusPending {
		err := u.Tagger.Enqueue(&TagJob{
			MediaID:  media.ID,
			UserID:   userID,
			Key:      key,
			MimeType: mimeType,
		})
		if err != nil {
			// Stays pending, the stale reaper re-enqueues it later
			zap.L().Warn("Tag queue full, leaving media pending", zap.String("media_id", media.ID))
		}
	}

	return media, nil
}
