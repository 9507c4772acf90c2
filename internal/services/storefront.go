package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// Gateway is everything a storefront session needs from the storefront API
type Gateway interface {
	CartGateway
	ReviewGateway
	IdentityGateway
	ProductGateway
}

// Storefront is the full client state of one browser session
type Storefront struct {
	ID      string
	Session *SessionProvider
	Cart    *CartSynchronizer
	Reviews *ReviewPaginator
	Product *ProductDetail

	mu       sync.Mutex
	lastSeen time.Time
}

// NewStorefront wires a fresh, logged-out storefront session
func NewStorefront(id string, gateway Gateway, reviewPageSize int, logger *logrus.Entry) *Storefront {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithField("session_id", id)

	cart := NewCartSynchronizer(gateway, logger)
	reviews := NewReviewPaginator(gateway, reviewPageSize, logger)
	return &Storefront{
		ID:       id,
		Session:  NewSessionProvider(gateway, cart, reviews, logger),
		Cart:     cart,
		Reviews:  reviews,
		Product:  NewProductDetail(gateway, logger),
		lastSeen: time.Now(),
	}
}

// ViewProduct loads productID and points the review panel at it
func (s *Storefront) ViewProduct(ctx context.Context, productID string) (models.ProductView, error) {
	view, err := s.Product.Load(ctx, productID)
	if err != nil {
		return view, err
	}
	s.Reviews.SetProduct(view.Product.ID)
	return view, nil
}

// AddSelectionToCart adds the viewed product at the chosen quantity
func (s *Storefront) AddSelectionToCart(ctx context.Context) error {
	id, err := s.Session.Current()
	if err != nil {
		return err
	}
	productID, quantity, err := s.Product.Selection()
	if err != nil {
		return err
	}
	return s.Cart.AddItem(ctx, id, productID, quantity)
}

// Touch records activity on the session
func (s *Storefront) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity
func (s *Storefront) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// StorefrontRegistry keeps one Storefront per browser session id
type StorefrontRegistry struct {
	gateway  Gateway
	pageSize int
	logger   *logrus.Entry
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Storefront
}

// NewStorefrontRegistry creates an empty registry
func NewStorefrontRegistry(gateway Gateway, reviewPageSize int, logger *logrus.Entry) *StorefrontRegistry {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &StorefrontRegistry{
		gateway:  gateway,
		pageSize: reviewPageSize,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Storefront),
	}
}

// Get returns the storefront for sessionID, creating it on first use
func (r *StorefrontRegistry) Get(sessionID string) *Storefront {
	now := r.now()
	r.mu.Lock()
	sf, ok := r.sessions[sessionID]
	if !ok {
		sf = NewStorefront(sessionID, r.gateway, r.pageSize, r.logger)
		r.sessions[sessionID] = sf
	}
	r.mu.Unlock()

	sf.Touch(now)
	return sf
}

// Lookup returns the storefront for sessionID without creating one
func (r *StorefrontRegistry) Lookup(sessionID string) (*Storefront, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sf, ok := r.sessions[sessionID]
	return sf, ok
}

// Remove drops a session
func (r *StorefrontRegistry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Len returns the number of live sessions
func (r *StorefrontRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle drops sessions with no activity for maxIdle and returns how many
// were dropped. Sessions with cart operations in flight are kept.
func (r *StorefrontRegistry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, sf := range r.sessions {
		if sf.LastSeen().After(cutoff) || sf.Cart.Pending() > 0 {
			continue
		}
		sf.Session.Logout()
		delete(r.sessions, id)
		evicted++
	}
	return evicted
}
