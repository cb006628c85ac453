package service

import (
	"context"
	"errors"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/storage"
	"io"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTagCount   = 10
	minTagWordLen = 4
	maxAttempts   = 3
	captionBudget = 2 * time.Minute
)

var tagSeparators = regexp.MustCompile(`[,.\s]+`)

// TagJob asks the pool to caption and tag one stored image
type TagJob struct {
	MediaID  string
	UserID   string
	Key      string
	MimeType string
}

// Tagger is a bounded queue feeding a fixed pool of captioning
// workers. The HTTP response of the upload never waits for it.
type Tagger struct {
	jobs      chan *TagJob
	workers   int
	running   atomic.Int32
	db        *gorm.DB
	store     storage.Storage
	captioner Captioner
	backoff   time.Duration
}

func NewTagger(db *gorm.DB, store storage.Storage, captioner Captioner) *Tagger {
	return &Tagger{
		jobs:      make(chan *TagJob, viper.GetInt("tagger.max_jobs")),
		workers:   viper.GetInt("tagger.workers"),
		db:        db,
		store:     store,
		captioner: captioner,
		backoff:   2 * time.Second,
	}
}

func (t *Tagger) StartWorkerPool() {
	for range t.workers {
		go t.worker()
	}
}

// Enqueue hands a job to the pool without blocking. A full queue
// leaves the record pending, the stale reaper retries it later.
func (t *Tagger) Enqueue(job *TagJob) error {
	select {
	case t.jobs <- job:
		t.running.Add(1)
		zap.L().Debug("New tag job enqueued", zap.Int32("enqueued", t.running.Load()), zap.String("media_id", job.MediaID))
		return nil
	default:
		return errors.New("tag queue full")
	}
}

func (t *Tagger) worker() {
	for job := range t.jobs {
		err := t.process(job)

		t.running.Add(-1)

		if err != nil {
			zap.L().Error("Tag job finished with an error",
				zap.String("media_id", job.MediaID),
				zap.String("user_id", job.UserID),
				zap.Error(err))
		} else {
			zap.L().Debug("Tag job finished successfully", zap.String("media_id", job.MediaID))
		}
	}
}

func (t *Tagger) process(job *TagJob) error {
	// Claiming flips pending to processing in one owner scoped
	// conditional update, so a deleted record or a duplicate job is
	// skipped instead of processed twice
	res := t.db.
		Model(model.Media{}).
		Where("id = ? AND user_id = ? AND ai_status = ?", job.MediaID, job.UserID, model.StatusPending).
		Update("ai_status", model.StatusProcessing)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return nil
	}

	description, err := t.caption(job)
	if err != nil {
		return t.markFailed(job, err)
	}

	now := time.Now()

	return t.db.
		Model(model.Media{}).
		Where("id = ? AND user_id = ?", job.MediaID, job.UserID).
		Updates(map[string]any{
			"description":     description,
			"ai_tags":         model.StringSlice(DeriveTags(description)),
			"ai_status":       model.StatusCompleted,
			"ai_error":        "",
			"ai_processed_at": &now,
		}).Error
}

func (t *Tagger) caption(job *TagJob) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(t.backoff * time.Duration(attempt-1))
		}

		ctx, cancel := context.WithTimeout(context.Background(), captionBudget)

		description, err := t.captionOnce(ctx, job)
		cancel()

		if err == nil {
			return description, nil
		}

		lastErr = err
		zap.L().Warn("Captioning attempt failed",
			zap.String("media_id", job.MediaID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return "", lastErr
}

func (t *Tagger) captionOnce(ctx context.Context, job *TagJob) (string, error) {
	r, err := t.store.Open(ctx, job.Key)
	if err != nil {
		return "", err
	}
	defer r.Close()

	image, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return t.captioner.Describe(ctx, image, job.MimeType)
}

func (t *Tagger) markFailed(job *TagJob, cause error) error {
	err := t.db.
		Model(model.Media{}).
		Where("id = ? AND user_id = ?", job.MediaID, job.UserID).
		Updates(map[string]any{
			"ai_status": model.StatusFailed,
			"ai_error":  cause.Error(),
		}).Error
	if err != nil {
		return err
	}

	return cause
}

// DeriveTags splits a caption into up to 10 lowercase tags, dropping
// short filler words
func DeriveTags(description string) []string {
	words := tagSeparators.Split(strings.ToLower(description), -1)

	tags := make([]string, 0, maxTagCount)
	seen := make(map[string]bool)

	for _, w := range words {
		if len(w) < minTagWordLen || seen[w] {
			continue
		}

		seen[w] = true
		tags = append(tags, w)

		if len(tags) == maxTagCount {
			break
		}
	}

	return tags
}
