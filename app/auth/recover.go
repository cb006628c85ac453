package auth

import (
	"errors"
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/security"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const recoverMessage = "If the email is registered you will receive recovery instructions"

type recoverBody struct {
	Email string `json:"email"`
}

// RequestReset issues a password reset token. The response is the
// same whether or not the email exists, the side effect only happens
// for a live account. A newer request overwrites any earlier token.
func RequestReset(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data recoverBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var user model.User

	err := d.DB.
		Where("email = ? AND active = ?", validators.NormalizeEmail(data.Email), true).
		First(&user).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("Failed to look up user for password reset", zap.Error(err), zap.String("requestID", requestID))
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   recoverMessage,
			"requestID": requestID,
		})
		return
	}

	token, expiresAt, err := security.MakeResetToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = d.DB.
		Model(model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"reset_token":            token,
			"reset_token_expires_at": expiresAt,
		}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// TODO: deliver the token by mail once an SMTP collaborator
	// exists. Until then it only lands in the debug log.
	zap.L().Debug("Password reset token issued", zap.String("user_id", user.ID))

	c.JSON(http.StatusOK, gin.H{
		"message":   recoverMessage,
		"requestID": requestID,
	})
}
