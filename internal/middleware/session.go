package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/internal/services"
)

const (
	// SessionCookieName identifies the browser session
	SessionCookieName = "storefront_session"

	storefrontKey = "storefront"
	identityKey   = "identity"
)

// Session attaches the caller's Storefront, creating a session cookie on the
// first request from a browser
func Session(registry *services.StorefrontRegistry, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || !validSessionID(sessionID) {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, sessionID, 0, "/", "", secure, true)
		}

		c.Set(storefrontKey, registry.Get(sessionID))
		c.Set("session_id", sessionID)
		c.Next()
	}
}

// GetStorefront returns the Storefront attached by Session
func GetStorefront(c *gin.Context) (*services.Storefront, bool) {
	value, ok := c.Get(storefrontKey)
	if !ok {
		return nil, false
	}
	sf, ok := value.(*services.Storefront)
	return sf, ok
}

func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
