// Package middleware contains any custom middleware used in the app
package middleware

import (
	"instabytes/moments-api/pkg/util"

	"github.com/gin-gonic/gin"
)

// NewRequestIDMiddleware tags every request with a short ID that log
// lines and error responses carry. An inbound X-Request-ID is reused
// so traces line up with whatever sits in front of the API.
func NewRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = util.RandStr(10)
		}

		c.Set("requestID", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
