package auth

import (
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/validators"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// CompleteReset swaps the password of the user holding a live reset
// token. The password change and the token clear happen in one
// conditional update, so a consumed or expired token can never be
// replayed even under concurrent requests.
func CompleteReset(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Token is required",
			"requestID": requestID,
		})
		return
	}

	if errs := validators.PasswordValidator(data.NewPassword); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Password doesn't meet the security requirements",
			"fields":    gin.H{"new_password": validators.ErrorStrings(errs)},
			"requestID": requestID,
		})
		return
	}

	hash, err := d.Hasher.GenerateFromPassword(data.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	res := d.DB.
		Model(model.User{}).
		Where("reset_token = ? AND reset_token_expires_at > ? AND active = ?", data.Token, time.Now(), true).
		Updates(map[string]any{
			"password_hash":          hash,
			"reset_token":            nil,
			"reset_token_expires_at": nil,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to reset password", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid or expired token",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password changed successfully",
		"requestID": requestID,
	})
}
