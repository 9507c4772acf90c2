package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
)

// ExtractToken returns the bearer token from the Authorization header, falling
// back to the token cookie the storefront API itself reads
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	if token, err := c.Cookie(clients.TokenCookieName); err == nil {
		return token
	}
	return ""
}

// TokenLogin logs the session in when the request carries a token the
// session does not hold yet. Bad tokens are ignored; the session stays as it was.
func TokenLogin(logger *logrus.Entry) gin.HandlerFunc {
	log := logger.WithField("component", "token_login")
	return func(c *gin.Context) {
		token := ExtractToken(c)
		sf, ok := GetStorefront(c)
		if token == "" || !ok {
			c.Next()
			return
		}

		if current, err := sf.Session.Current(); err != nil || current.Token != token {
			if _, err := sf.Session.Login(c.Request.Context(), token); err != nil {
				log.WithError(err).Debug("Ignoring request token")
			}
		}
		c.Next()
	}
}

// RequireIdentity rejects requests from sessions with no logged-in user
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		sf, ok := GetStorefront(c)
		if !ok {
			abortUnauthorized(c, "No session")
			return
		}
		id, err := sf.Session.Current()
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(identityKey, id)
		c.Set("user_id", id.UserID)
		c.Next()
	}
}

// GetIdentity returns the identity set by RequireIdentity
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := value.(models.Identity)
	return id, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
	})
}
