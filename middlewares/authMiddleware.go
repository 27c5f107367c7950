package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates an `Authorization: Bearer` JWT and puts its clientId
// claim on the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || customClaim.ClientId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(utils.SetClientIdInContext(c.Request.Context(), customClaim.ClientId))
		c.Next()
	}
}
