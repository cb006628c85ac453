package auth

import (
	"errors"
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/validators"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type changePasswordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword lets a logged in user swap their password after
// proving they know the current one
func ChangePassword(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data changePasswordBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.CurrentPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Current password is required",
			"requestID": requestID,
		})
		return
	}

	if errs := validators.PasswordValidator(data.NewPassword); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "New password doesn't meet the security requirements",
			"fields":    gin.H{"new_password": validators.ErrorStrings(errs)},
			"requestID": requestID,
		})
		return
	}

	var user model.User

	err := d.DB.
		Where("id = ? AND active = ?", userID, true).
		First(&user).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !d.Hasher.VerifyPasswd(data.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Current password is incorrect",
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

	err = d.DB.
		Model(model.User{}).
		Where("id = ?", user.ID).
		Update("password_hash", hash).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password changed successfully",
		"requestID": requestID,
	})
}
