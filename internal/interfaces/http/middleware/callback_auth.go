package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto-invoice.backend/pkg/jwt"
	"crypto-invoice.backend/pkg/logger"
)

// TokenVerifier validates a bearer token presented to the function endpoints.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// CallbackAuthMiddleware admits wallet-originated calls: an allowlisted Origin,
// a Referer under an allowlisted origin, or a bearer token. With a verifier
// configured the token must also verify. Only POST is guarded; other methods
// are answered by the handler itself.
func CallbackAuthMiddleware(allowedOrigins []string, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		if originAllowed(c.GetHeader("Origin"), c.GetHeader("Referer"), allowedOrigins) {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token != "" {
			if verifier == nil {
				c.Next()
				return
			}
			claims, err := verifier.Verify(token)
			if err == nil {
				c.Set("caller", claims.Subject)
				c.Next()
				return
			}
			logger.Warn(c.Request.Context(), "Rejected function token", zap.Error(err))
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"errors": gin.H{"auth": "Unauthorized access"},
		})
	}
}

func originAllowed(origin, referer string, allowed []string) bool {
	for _, a := range allowed {
		a = strings.TrimRight(a, "/")
		if a == "" {
			continue
		}
		if origin != "" && strings.EqualFold(strings.TrimRight(origin, "/"), a) {
			return true
		}
		if referer != "" && strings.HasPrefix(strings.ToLower(referer), strings.ToLower(a)) {
			return true
		}
	}
	return false
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// NotifierAuthMiddleware guards POSTs to the e-mail notifier. A bearer token
// is required and must verify; without a verifier every POST is refused.
func NotifierAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token != "" && verifier != nil {
			claims, err := verifier.Verify(token)
			if err == nil {
				c.Set("caller", claims.Subject)
				c.Next()
				return
			}
			logger.Warn(c.Request.Context(), "Rejected notifier token", zap.Error(err))
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized access"})
	}
}
