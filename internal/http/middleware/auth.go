// README: Auth middleware verifying Firebase ID tokens.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bettercommute/internal/infra"
)

const (
	ctxUID   = "caller_uid"
	ctxEmail = "caller_email"
	ctxRole  = "caller_role"
)

// Auth requires "Authorization: Bearer <id token>". Websocket clients that
// cannot set headers may pass the token as the access_token query parameter.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil || token == nil || token.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUID, token.UID)
		c.Set(ctxEmail, token.Email)
		if role, ok := token.Claims["role"].(string); ok {
			c.Set(ctxRole, role)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("access_token"); q != "" {
			return q, true
		}
		return "", false
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	return raw, found && raw != ""
}

// CallerUID is the verified user id, or "" outside Auth.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

func CallerEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}
