package media

import (
	"errors"
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// A record must sit in processing at least this long before a client
// may force it back into the queue
const retagMinAge = 5 * time.Minute

// Retag re-triggers tagging for an owned image whose processing got
// stuck, or whose last attempt failed
func Retag(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	mediaID := c.Param("id")

	var m model.Media

	err := d.DB.
		Where("user_id = ? AND id = ?", userID, mediaID).
		First(&m).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Media not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch media from db", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if m.MediaType != model.MediaTypeImage {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Only images can be tagged",
			"requestID": requestID,
		})
		return
	}

	switch m.AIStatus {
	case model.StatusFailed:
		// Always retriable
	case model.StatusProcessing:
		if time.Since(m.UpdatedAt) < retagMinAge {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Media is still being processed",
				"requestID": requestID,
			})
			return
		}
	default:
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Media is not in a retriable state",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.
		Model(model.Media{}).
		Where("user_id = ? AND id = ? AND ai_status = ?", userID, mediaID, m.AIStatus).
		Update("ai_status", model.StatusPending)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to reset media status", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Media state changed, please try again",
			"requestID": requestID,
		})
		return
	}

	err = d.Tagger.Enqueue(&service.TagJob{
		MediaID:  m.ID,
		UserID:   userID,
		Key:      m.StorageKey,
		MimeType: m.MimeType,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Tag queue is full. Please wait a moment before trying again",
			"requestID": requestID,
		})

		zap.L().Warn("Tag queue full during retag", zap.String("media_id", m.ID))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "Tagging restarted",
		"requestID": requestID,
	})
}
