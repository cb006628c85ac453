package post

import (
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type editBody struct {
	ImageURL    *string `json:"image_url"`
	Description *string `json:"description"`
	Alt         *string `json:"alt"`
}

// Edit runs behind the ownership middleware, which already resolved
// the post and confirmed the caller owns it. The update still carries
// the owner predicate so the two checks can't drift apart.
func Edit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	postID := c.Param("id")

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

	if data.ImageURL != nil {
		updates["image_url"] = validators.SanitizeText(*data.ImageURL)
	}

	if data.Description != nil {
		updates["description"] = validators.SanitizeText(*data.Description)
	}

	if data.Alt != nil {
		updates["alt"] = validators.SanitizeText(*data.Alt)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.
		Model(model.Post{}).
		Where("user_id = ? AND id = ?", userID, postID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update post", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Post not found",
			"requestID": requestID,
		})
		return
	}

	var p model.Post

	if err := d.DB.Where("user_id = ? AND id = ?", userID, postID).First(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch updated post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, p)
}
