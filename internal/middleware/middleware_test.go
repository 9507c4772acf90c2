package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// stubGateway answers the calls a login makes; anything else panics
type stubGateway struct {
	services.Gateway
}

func (stubGateway) GetUser(ctx context.Context, id models.Identity, userID string) (*models.UserProfile, error) {
	return &models.UserProfile{ID: userID, Name: "Test User"}, nil
}

func (stubGateway) GetCart(ctx context.Context, id models.Identity) (*models.Cart, error) {
	return &models.Cart{}, nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func setupTestRouter(registry *services.StorefrontRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Session(registry, true), TokenLogin(testLogger()))
	router.GET("/whoami", func(c *gin.Context) {
		sf, ok := GetStorefront(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"session": sf.ID, "view": sf.Session.View()})
	})
	router.GET("/private", RequireIdentity(), func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID})
	})
	return router
}

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"header wins over cookie", "Bearer abc", "def", "abc"},
		{"cookie fallback", "", "def", "def"},
		{"basic auth ignored", "Basic xyz", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: clients.TokenCookieName, Value: tt.cookie})
			}
			assert.Equal(t, tt.want, ExtractToken(c))
		})
	}
}

func TestSession_ReusesValidCookie(t *testing.T) {
	registry := services.NewStorefrontRegistry(stubGateway{}, 5, testLogger())
	router := setupTestRouter(registry)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Result().Cookies())
	assert.Contains(t, w.Body.String(), cookies[0].Value)
	assert.Equal(t, 1, registry.Len())
}

func TestSession_ReplacesMalformedCookie(t *testing.T) {
	registry := services.NewStorefrontRegistry(stubGateway{}, 5, testLogger())
	router := setupTestRouter(registry)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "../../etc"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	_, err := uuid.Parse(cookies[0].Value)
	assert.NoError(t, err)
}

func TestTokenLogin(t *testing.T) {
	registry := services.NewStorefrontRegistry(stubGateway{}, 5, testLogger())
	router := setupTestRouter(registry)
	sessionID := uuid.NewString()

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")

	w = send("garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(signToken(t, "user-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")

	// The session remembers the login
	w = send("")
	assert.Equal(t, http.StatusOK, w.Code)

	// A different token switches the user
	w = send(signToken(t, "user-2"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-2")
}
