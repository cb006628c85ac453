package media

import (
	"instabytes/moments-api/internal"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Upload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})

		zap.L().Debug("Failed to open multipart file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	code, f, mediaType, err := validators.FileValidator(fh)
	if err != nil {
		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	mimeType, err := validators.DetectedMime(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sniff mime type", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	m, err := d.Uploader.Do(
		c.Request.Context(),
		f,
		validators.SanitizeFilename(fh.Filename),
		mimeType,
		mediaType,
		fh.Size,
		userID,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store upload", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, m)
}
