package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// IdentityGateway is the slice of the storefront API the session provider needs
type IdentityGateway interface {
	GetUser(ctx context.Context, id models.Identity, userID string) (*models.UserProfile, error)
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) error
}

// SessionProvider resolves the identity that keys cart and review ownership
type SessionProvider struct {
	gateway IdentityGateway
	cart    *CartSynchronizer
	reviews *ReviewPaginator
	logger  *logrus.Entry
	now     func() time.Time

	mu       sync.RWMutex
	identity models.Identity
	profile  *models.UserProfile
	expired  bool // mirrors already cleared for the current token
}

// NewSessionProvider creates a logged-out session. cart and reviews are reset
// whenever the identity changes; either may be nil.
func NewSessionProvider(gateway IdentityGateway, cart *CartSynchronizer, reviews *ReviewPaginator, logger *logrus.Entry) *SessionProvider {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SessionProvider{
		gateway: gateway,
		cart:    cart,
		reviews: reviews,
		logger:  logger.WithField("component", "services.session"),
		now:     time.Now,
	}
}

// Login installs the identity carried by token, resolves its profile and loads
// the cart. The token signature is not checked here; the storefront API
// verifies it on every call.
func (p *SessionProvider) Login(ctx context.Context, token string) (models.SessionView, error) {
	id, err := p.parseToken(token)
	if err != nil {
		return models.SessionView{}, err
	}
	log := p.logger.WithField("user_id", id.UserID)

	profile, err := p.gateway.GetUser(ctx, id, id.UserID)
	if err != nil {
		log.WithError(err).Warn("Failed to load user profile")
		profile = nil
	}

	p.mu.Lock()
	changed := p.identity.UserID != id.UserID
	p.identity = id
	p.profile = profile
	p.expired = false
	p.mu.Unlock()

	if changed && p.reviews != nil {
		p.reviews.Reset()
	}
	if p.cart != nil {
		if changed {
			p.cart.Clear()
		}
		if err := p.cart.Fetch(ctx, id); err != nil {
			log.WithError(err).Warn("Initial cart fetch failed")
		}
	}

	log.Info("User logged in")
	return p.View(), nil
}

// LoginWithCredentials exchanges email and password for a token, then logs in
func (p *SessionProvider) LoginWithCredentials(ctx context.Context, email, password string) (models.SessionView, error) {
	resp, err := p.gateway.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return models.SessionView{}, err
	}
	if resp.Token == "" {
		return models.SessionView{}, fmt.Errorf("login response: %w", ErrInvalidToken)
	}
	return p.Login(ctx, resp.Token)
}

// Register creates an account. It does not log the new user in.
func (p *SessionProvider) Register(ctx context.Context, req models.RegisterRequest) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := p.gateway.Register(ctx, req); err != nil {
		p.logger.WithError(err).WithField("email", req.Email).Warn("Registration failed")
		return err
	}
	return nil
}

// Logout forgets the identity and clears every mirror keyed by it
func (p *SessionProvider) Logout() {
	p.mu.Lock()
	userID := p.identity.UserID
	p.identity = models.Identity{}
	p.profile = nil
	p.expired = false
	p.mu.Unlock()

	if p.cart != nil {
		p.cart.Clear()
	}
	if p.reviews != nil {
		p.reviews.Reset()
	}
	if userID != "" {
		p.logger.WithField("user_id", userID).Info("User logged out")
	}
}

// Current returns the logged-in identity. The first call that sees the token
// expired clears the cart and review mirrors.
func (p *SessionProvider) Current() (models.Identity, error) {
	p.mu.RLock()
	id, cleared := p.identity, p.expired
	p.mu.RUnlock()

	if id.IsZero() {
		return models.Identity{}, ErrUnauthenticated
	}
	if !id.ExpiresAt.IsZero() && !p.now().Before(id.ExpiresAt) {
		if !cleared {
			p.expire(id)
		}
		return models.Identity{}, ErrTokenExpired
	}
	return id, nil
}

func (p *SessionProvider) expire(id models.Identity) {
	p.mu.Lock()
	first := !p.expired && p.identity.Token == id.Token
	if first {
		p.expired = true
	}
	p.mu.Unlock()
	if !first {
		return
	}

	if p.cart != nil {
		p.cart.Clear()
	}
	if p.reviews != nil {
		p.reviews.Reset()
	}
	p.logger.WithField("user_id", id.UserID).Info("Session token expired")
}

// View returns the UI-facing session state
func (p *SessionProvider) View() models.SessionView {
	id, err := p.Current()
	if err != nil {
		return models.SessionView{}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	view := models.SessionView{Authenticated: true, Identity: &id}
	if p.profile != nil {
		profile := *p.profile
		view.Profile = &profile
	}
	return view
}

func (p *SessionProvider) parseToken(tokenString string) (models.Identity, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return models.Identity{}, ErrInvalidToken
	}

	parser := jwt.Parser{}
	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, ErrInvalidToken
	}

	id := models.Identity{Token: tokenString}
	for _, key := range []string{"id", "sub", "user_id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			id.UserID = v
			break
		}
	}
	if id.UserID == "" {
		return models.Identity{}, fmt.Errorf("%w: no user id claim", ErrInvalidToken)
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if exp, ok := claims["exp"].(float64); ok {
		id.ExpiresAt = time.Unix(int64(exp), 0)
		if !p.now().Before(id.ExpiresAt) {
			return models.Identity{}, ErrTokenExpired
		}
	}
	return id, nil
}
