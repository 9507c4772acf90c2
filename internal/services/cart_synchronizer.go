package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
)

// User-visible messages recorded on the cart mirror when an operation fails
const (
	CartFetchFailedMessage  = "Failed to fetch cart. Please try again."
	CartAddFailedMessage    = "Failed to add item to cart. Please try again."
	CartReduceFailedMessage = "Failed to reduce item quantity in cart. Please try again."
	CartRemoveFailedMessage = "Failed to remove item from cart. Please try again."
)

// CartGateway is the slice of the storefront API the cart synchronizer needs
type CartGateway interface {
	GetCart(ctx context.Context, id models.Identity) (*models.Cart, error)
	AddToCart(ctx context.Context, id models.Identity, productID string, quantity int) error
	ReduceCartItem(ctx context.Context, id models.Identity, productID string) error
	RemoveFromCart(ctx context.Context, id models.Identity, productID string) error
}

// CartState is the value held by the cart mirror
type CartState struct {
	Owner  string
	Cart   models.Cart
	Loaded bool
	Error  string
}

func cloneCartState(s CartState) CartState {
	if s.Cart.Items != nil {
		items := make([]models.CartItem, len(s.Cart.Items))
		copy(items, s.Cart.Items)
		s.Cart.Items = items
	}
	return s
}

// CartSynchronizer owns the local cart mirror. Every mutation is sent to the
// server and followed by a full refetch; the mirror only ever holds a cart the
// server returned.
type CartSynchronizer struct {
	gateway CartGateway
	mirror  *store.Mirror[CartState]
	queue   *opQueue
	logger  *logrus.Entry

	issued  atomic.Uint64
	applyMu sync.Mutex
	applied uint64
	epoch   uint64 // bumped by Clear; guarded by applyMu
}

// NewCartSynchronizer creates a synchronizer with an empty, unloaded cart
func NewCartSynchronizer(gateway CartGateway, logger *logrus.Entry) *CartSynchronizer {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CartSynchronizer{
		gateway: gateway,
		mirror:  store.NewMirror(CartState{Cart: models.Cart{Items: []models.CartItem{}}}, cloneCartState),
		queue:   newOpQueue(),
		logger:  logger.WithField("component", "services.cart"),
	}
}

// Fetch replaces the mirror with the server's current cart
func (s *CartSynchronizer) Fetch(ctx context.Context, id models.Identity) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}
	epoch := s.currentEpoch()
	return s.queue.do(func() error {
		if !s.isCurrent(epoch) {
			return ErrCartCleared
		}
		return s.fetch(ctx, id, epoch)
	})
}

// AddItem adds quantity units of productID, then resyncs
func (s *CartSynchronizer) AddItem(ctx context.Context, id models.Identity, productID string, quantity int) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(productID) == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, id, CartAddFailedMessage, func() error {
		return s.gateway.AddToCart(ctx, id, productID, quantity)
	}, logrus.Fields{"product_id": productID, "quantity": quantity, "op": "add"})
}

// ReduceItem decrements productID by one, then resyncs. The server drops the
// line when it reaches zero.
func (s *CartSynchronizer) ReduceItem(ctx context.Context, id models.Identity, productID string) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(productID) == "" {
		return ErrInvalidProduct
	}
	return s.mutate(ctx, id, CartReduceFailedMessage, func() error {
		return s.gateway.ReduceCartItem(ctx, id, productID)
	}, logrus.Fields{"product_id": productID, "op": "reduce"})
}

// RemoveItem drops the productID line, then resyncs
func (s *CartSynchronizer) RemoveItem(ctx context.Context, id models.Identity, productID string) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(productID) == "" {
		return ErrInvalidProduct
	}
	return s.mutate(ctx, id, CartRemoveFailedMessage, func() error {
		return s.gateway.RemoveFromCart(ctx, id, productID)
	}, logrus.Fields{"product_id": productID, "op": "remove"})
}

// Clear empties the mirror without touching the server. Operations queued or
// in flight when Clear runs never touch the mirror afterwards.
func (s *CartSynchronizer) Clear() {
	token := s.issued.Add(1)
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.epoch++
	if token > s.applied {
		s.applied = token
	}
	s.mirror.Set(CartState{Cart: models.Cart{Items: []models.CartItem{}}})
}

// View returns the UI-facing cart
func (s *CartSynchronizer) View() models.CartView {
	return cartView(s.mirror.Snapshot())
}

// Subscribe streams a CartView after every mirror change
func (s *CartSynchronizer) Subscribe(ctx context.Context) <-chan models.CartView {
	snaps, cancel := s.mirror.Subscribe()
	out := make(chan models.CartView, 1)
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				select {
				case out <- cartView(snap):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Pending returns how many cart operations are queued or running
func (s *CartSynchronizer) Pending() int {
	return s.queue.pending()
}

func (s *CartSynchronizer) mutate(ctx context.Context, id models.Identity, failMsg string, write func() error, fields logrus.Fields) error {
	log := s.logger.WithFields(fields).WithField("user_id", id.UserID)
	epoch := s.currentEpoch()
	return s.queue.do(func() error {
		if !s.isCurrent(epoch) {
			log.Debug("Dropping cart write queued before the cart was cleared")
			return ErrCartCleared
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := write(); err != nil {
			log.WithError(err).Warn("Cart write failed")
			s.recordError(epoch, failMsg)
			return err
		}
		if !s.isCurrent(epoch) {
			return ErrCartCleared
		}
		// The write landed; the resync must run even if the caller has gone
		return s.fetch(context.WithoutCancel(ctx), id, epoch)
	})
}

// fetch must run inside the queue
func (s *CartSynchronizer) fetch(ctx context.Context, id models.Identity, epoch uint64) error {
	token := s.issued.Add(1)

	cart, err := s.gateway.GetCart(ctx, id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.logger.WithError(err).WithField("user_id", id.UserID).Warn("Cart fetch failed")
		s.recordError(epoch, CartFetchFailedMessage)
		return err
	}

	normalized := cart.Normalize()
	if !s.apply(epoch, token, func(CartState) CartState {
		return CartState{Owner: id.UserID, Cart: normalized, Loaded: true}
	}) {
		s.logger.WithField("token", token).Debug("Discarding stale cart response")
		if !s.isCurrent(epoch) {
			return ErrCartCleared
		}
	}
	return nil
}

func (s *CartSynchronizer) currentEpoch() uint64 {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	return s.epoch
}

func (s *CartSynchronizer) isCurrent(epoch uint64) bool {
	return s.currentEpoch() == epoch
}

// apply writes the mirror unless the cart was cleared since epoch or a newer
// token has already been applied
func (s *CartSynchronizer) apply(epoch, token uint64, fn func(CartState) CartState) bool {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if epoch != s.epoch || token <= s.applied {
		return false
	}
	s.applied = token
	s.mirror.Update(fn)
	return true
}

func (s *CartSynchronizer) recordError(epoch uint64, message string) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.mirror.Update(func(current CartState) CartState {
		current.Error = message
		return current
	})
}

func cartView(snap store.Snapshot[CartState]) models.CartView {
	items := snap.Value.Cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return models.CartView{
		Items:     items,
		ItemCount: snap.Value.Cart.ItemCount(),
		Subtotal:  snap.Value.Cart.Subtotal(),
		Loaded:    snap.Value.Loaded,
		Error:     snap.Value.Error,
		Version:   snap.Version,
	}
}
