package middleware

import (
	"errors"
	"instabytes/moments-api/internal/model"
	"instabytes/moments-api/pkg/security"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Machine readable rejection codes, mirrored by the frontend
const (
	CodeTokenMissing  = "TOKEN_MISSING"
	CodeFormatInvalid = "FORMAT_INVALID"
	CodeTokenExpired  = "TOKEN_EXPIRED"
	CodeTokenInvalid  = "TOKEN_INVALID"
	CodeInvalidUser   = "INVALID_USER"
	CodeAccessDenied  = "ACCESS_DENIED"
	CodeInternalError = "INTERNAL_ERROR"
)

type authReject struct {
	status int
	code   string
	msg    string
}

// resolveIdentity extracts and verifies the bearer token and re-fetches
// the user so a deactivated account can't keep using an unexpired
// token. Both middleware modes share it, only the failure handling
// differs.
func resolveIdentity(c *gin.Context, d *gorm.DB, t *security.TokenIssuer) (*model.User, *authReject) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, &authReject{http.StatusUnauthorized, CodeTokenMissing, "No authentication token provided"}
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, &authReject{http.StatusUnauthorized, CodeFormatInvalid, "Invalid token format. Use: Bearer {token}"}
	}

	claims, err := t.Verify(parts[1])
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, &authReject{http.StatusUnauthorized, CodeTokenExpired, "Token expired. Please log in again"}
		}

		return nil, &authReject{http.StatusUnauthorized, CodeTokenInvalid, "Invalid token"}
	}

	var user model.User

	err = d.Where("id = ? AND active = ?", claims.UserID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &authReject{http.StatusUnauthorized, CodeInvalidUser, "User not found or inactive"}
		}

		zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", c.GetString("requestID")))
		return nil, &authReject{http.StatusInternalServerError, CodeInternalError, "Internal server error"}
	}

	return &user, nil
}

// NewAuthMiddleware rejects any request without a valid token for a
// live account. On success the identity is attached to the context.
func NewAuthMiddleware(d *gorm.DB, t *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, reject := resolveIdentity(c, d, t)
		if reject != nil {
			c.AbortWithStatusJSON(reject.status, gin.H{
				"error":     reject.msg,
				"code":      reject.code,
				"requestID": c.GetString("requestID"),
			})
			return
		}

		c.Set("userID", user.ID)
		c.Set("userEmail", user.Email)
		c.Set("userName", user.Name)
		c.Next()
	}
}

// NewOptionalAuthMiddleware attaches an identity when a valid token is
// present and silently continues without one otherwise. It never
// short-circuits the request.
func NewOptionalAuthMiddleware(d *gorm.DB, t *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, reject := resolveIdentity(c, d, t)
		if reject == nil {
			c.Set("userID", user.ID)
			c.Set("userEmail", user.Email)
			c.Set("userName", user.Name)
		}

		c.Next()
	}
}

// OwnerResolver looks up the owning user id of the resource a request
// targets. Empty owner means the resource doesn't exist.
type OwnerResolver func(c *gin.Context) (string, error)

// NewOwnershipMiddleware compares the resource owner against the
// authenticated identity. Missing resource is a 404, a confirmed
// mismatch a 403. Must run after NewAuthMiddleware.
func NewOwnershipMiddleware(resolve OwnerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		ownerID, err := resolve(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to resolve resource owner", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if ownerID == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Resource not found",
				"requestID": requestID,
			})
			return
		}

		if ownerID != c.GetString("userID") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "You don't have permission to access this resource",
				"code":      CodeAccessDenied,
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
