package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/middleware"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

// SessionHandler handles login, logout and registration
type SessionHandler struct {
	secureCookies bool
	logger        *logrus.Entry
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(secureCookies bool, logger *logrus.Entry) *SessionHandler {
	return &SessionHandler{
		secureCookies: secureCookies,
		logger:        logger.WithField("component", "handlers.session"),
	}
}

// TokenLoginRequest is the body of POST /session/token
type TokenLoginRequest struct {
	Token string `json:"token"`
}

// GetSession godoc
// @Summary Get the current session
// @Tags session
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.SessionView}
// @Router /session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}
	respondOK(c, sf.Session.View(), "")
}

// LoginWithToken godoc
// @Summary Log in with a token issued by the storefront API
// @Tags session
// @Accept json
// @Produce json
// @Param request body TokenLoginRequest false "Token; the Authorization header is used when omitted"
// @Success 200 {object} models.SuccessResponse{data=models.SessionView}
// @Failure 401 {object} models.ErrorResponse
// @Router /session/token [post]
func (h *SessionHandler) LoginWithToken(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}

	var req TokenLoginRequest
	_ = c.ShouldBindJSON(&req)
	token := req.Token
	if token == "" {
		token = middleware.ExtractToken(c)
	}

	view, err := sf.Session.Login(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view, "Logged in")
}

// Login godoc
// @Summary Log in with email and password
// @Tags session
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.SuccessResponse{data=models.SessionView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /session/login [post]
func (h *SessionHandler) Login(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	view, err := sf.Session.LoginWithCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithError(err).Debug("Login failed")
		respondError(c, err)
		return
	}
	h.setTokenCookie(c, sf.Session)
	respondOK(c, view, "Logged in")
}

// Register godoc
// @Summary Create a storefront account
// @Tags session
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Account details"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /session/register [post]
func (h *SessionHandler) Register(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := sf.Session.Register(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Account created")
}

// Logout godoc
// @Summary Log out and drop the session's cart and reviews
// @Tags session
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.SessionView}
// @Router /session/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}
	sf.Session.Logout()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(clients.TokenCookieName, "", -1, "/", "", h.secureCookies, true)
	respondOK(c, sf.Session.View(), "Logged out")
}

// setTokenCookie stores the session token the way the storefront web app
// expects it, expiring with the token
func (h *SessionHandler) setTokenCookie(c *gin.Context, session *services.SessionProvider) {
	id, err := session.Current()
	if err != nil {
		return
	}
	maxAge := 0
	if !id.ExpiresAt.IsZero() {
		maxAge = int(time.Until(id.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(clients.TokenCookieName, id.Token, maxAge, "/", "", h.secureCookies, true)
}
