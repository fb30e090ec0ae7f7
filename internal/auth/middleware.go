package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserAuth enforces bearer JWT tokens signed with HS256 and stashes the
// claims in the gin context.
func UserAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// ReaderAuth guards the swipe-ingest endpoint with the shared key the RFID
// reader bridge presents in X-Reader-Key.
func ReaderAuth(sharedKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Reader-Key") != sharedKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid reader key"})
			return
		}
		c.Next()
	}
}

// ClaimsFrom pulls parsed claims back out of the gin context.
func ClaimsFrom(c *gin.Context) (Claims, bool) {
	v, ok := c.Get("claims")
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}
