package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves an opaque session token from the `token` header
// against Redis. A missing header is not an error here; RequireClient decides
// later whether the request may proceed unauthenticated.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		clientId, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetClientIdInContext(ctx, clientId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
