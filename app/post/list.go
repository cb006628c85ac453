// Package post implements the owner scoped post endpoints. Unlike
// media, mutations here run behind the ownership middleware, so a
// confirmed non-owner gets a 403 instead of a 404.
package post

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

	query := d.DB.Model(model.Post{}).Where("user_id = ?", userID)

	var total int64

	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count posts", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var items []model.Post

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

		zap.L().Error("Failed to list posts", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	totalPages := total / int64(opts.Limit)
	if total%int64(opts.Limit) != 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total_count": total,
		"page":        opts.Page,
		"limit":       opts.Limit,
		"total_pages": totalPages,
	})
}
