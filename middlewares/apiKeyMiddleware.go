package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/gin-gonic/gin"
)

// ApiKeyMiddleware resolves an `X-API-Key` header to its client via the bcrypt
// hash on the clients table. Service-to-service callers use this instead of a
// session or JWT.
func ApiKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.Request.Header.Get("X-API-Key")
		if apiKey == "" {
			c.Next()
			return
		}

		client, err := models.AuthenticateApiKey(c.Request.Context(), apiKey)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(utils.SetClientIdInContext(c.Request.Context(), client.ID))
		c.Next()
	}
}

// RequireClient rejects any request that reached a protected route without a
// resolved client identity.
func RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientId, ok := utils.GetClientIdFromContext(c.Request.Context())
		if !ok || clientId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
