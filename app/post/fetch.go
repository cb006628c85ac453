package post

import (
	"errors"
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResolveOwner is the ownership middleware hook for posts. Empty
// string means the post doesn't exist.
func ResolveOwner(d *internal.Deps) func(c *gin.Context) (string, error) {
	return func(c *gin.Context) (string, error) {
		var ownerID string

		err := d.DB.
			Model(model.Post{}).
			Where("id = ?", c.Param("id")).
			Select("user_id").
			First(&ownerID).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", nil
			}

			return "", err
		}

		return ownerID, nil
	}
}

func Fetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	postID := c.Param("id")
	if postID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No post ID provided",
			"requestID": requestID,
		})
		return
	}

	var p model.Post

	err := d.DB.
		Where("user_id = ? AND id = ?", userID, postID).
		First(&p).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Post not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch post from db", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, p)
}
