// Package media implements the owner scoped media library endpoints.
// Every query carries the user_id predicate, a record owned by someone
// else is indistinguishable from a missing one.
package media

import (
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func List(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	opts, err := validators.PaginationValidator(c.Query("page"), c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	mediaType := c.Query("type")
	if mediaType != "" && mediaType != model.MediaTypeImage && mediaType != model.MediaTypeVideo {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid media type provided",
			"requestID": requestID,
		})
		return
	}

	query := d.DB.Model(model.Media{}).Where("user_id = ?", userID)
	if mediaType != "" {
		query = query.Where("media_type = ?", mediaType)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count media", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var items []model.Media

	err = query.
		Order("created_at desc").
		Offset(opts.Offset()).
		Limit(opts.Limit).
		Find(&items).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list media", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, pageResponse(items, total, opts))
}

func pageResponse(items []model.Media, total int64, opts validators.PageOpts) gin.H {
	totalPages := total / int64(opts.Limit)
	if total%int64(opts.Limit) != 0 {
		totalPages++
	}

	return gin.H{
		"items":       items,
		"total_count": total,
		"page":        opts.Page,
		"limit":       opts.Limit,
		"total_pages": totalPages,
	}
}
