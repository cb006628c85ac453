package media

import (
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Search matches the user's media against comma separated tags. Tags
// are length bounded and LIKE escaped before they become patterns, so
// user supplied wildcards match literally.
func Search(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No search query provided",
			"requestID": requestID,
		})
		return
	}

	tags, err := validators.TagsValidator(q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	opts, err := validators.PaginationValidator(c.Query("page"), c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if len(tags) == 0 {
		c.JSON(http.StatusOK, pageResponse([]model.Media{}, 0, opts))
		return
	}

	query := d.DB.Model(model.Media{}).Where("user_id = ?", userID)

	match := d.DB.Session(&gorm.Session{NewDB: true})
	for _, tag := range tags {
		pattern := "%" + validators.EscapeLike(tag) + "%"
		match = match.Or("ai_tags LIKE ? ESCAPE '\\' OR description LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	query = query.Where(match)

	var total int64

	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count search results", zap.Error(err), zap.String("requestID", requestID))
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

		zap.L().Error("Failed to search media", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, pageResponse(items, total, opts))
}
