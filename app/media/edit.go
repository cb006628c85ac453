package media

import (
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type editBody struct {
	Filename    *string `json:"filename"`
	Description *string `json:"description"`
}

// Edit updates the client editable fields of an owned media record.
// The owner predicate sits in the update itself, not in a separate
// read, so there is no window between check and mutation.
func Edit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	mediaID := c.Param("id")
	if mediaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No media ID provided",
			"requestID": requestID,
		})
		return
	}

	var data editBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	updates := map[string]any{}

	if data.Filename != nil {
		name := validators.SanitizeFilename(*data.Filename)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid filename provided",
				"requestID": requestID,
			})
			return
		}

		updates["filename"] = name
	}

	if data.Description != nil {
		updates["description"] = validators.SanitizeText(*data.Description)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.
		Model(model.Media{}).
		Where("user_id = ? AND id = ?", userID, mediaID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update media", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Media not found",
			"requestID": requestID,
		})
		return
	}

	var m model.Media

	if err := d.DB.Where("user_id = ? AND id = ?", userID, mediaID).First(&m).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch updated media", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, m)
}
