// Package clients provides the HTTP client for the storefront backing API.
package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"storefront-service/internal/models"
)

const (
	// TokenCookieName is the session cookie the backing API reads credentials from
	TokenCookieName = "token"

	maxErrorBody = 1024
)

// ProductCache caches product detail lookups. A nil product with a nil error is a miss.
type ProductCache interface {
	Get(ctx context.Context, productID string) (*models.Product, error)
	Set(ctx context.Context, product *models.Product) error
	Invalidate(ctx context.Context, productID string) error
}

// Config configures a StorefrontClient
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
}

// StorefrontClient handles HTTP communication with the storefront API
type StorefrontClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	cache       ProductCache
	logger      *logrus.Entry
}

// NewStorefrontClient creates a new storefront API client. cache may be nil.
func NewStorefrontClient(cfg Config, cache ProductCache, logger *logrus.Entry) *StorefrontClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &StorefrontClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		rateLimiter: limiter,
		cache:       cache,
		logger:      logger.WithField("component", "clients.storefront"),
	}
}

// --- Cart ---

// GetCart fetches the identity's current cart
func (c *StorefrontClient) GetCart(ctx context.Context, id models.Identity) (*models.Cart, error) {
	var cart models.Cart
	if err := c.do(ctx, &id, http.MethodGet, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// AddToCart asks the server to create or increment a cart line
func (c *StorefrontClient) AddToCart(ctx context.Context, id models.Identity, productID string, quantity int) error {
	req := models.AddToCartRequest{ProductID: productID, Quantity: quantity}
	return c.do(ctx, &id, http.MethodPost, "/cart/add", req, nil)
}

// ReduceCartItem asks the server to decrement a cart line by one
func (c *StorefrontClient) ReduceCartItem(ctx context.Context, id models.Identity, productID string) error {
	return c.do(ctx, &id, http.MethodPost, "/cart/reduce/"+url.PathEscape(productID), nil, nil)
}

// RemoveFromCart asks the server to drop a cart line
func (c *StorefrontClient) RemoveFromCart(ctx context.Context, id models.Identity, productID string) error {
	return c.do(ctx, &id, http.MethodDelete, "/cart/remove/"+url.PathEscape(productID), nil, nil)
}

// --- Products ---

// GetProducts fetches the catalog
func (c *StorefrontClient) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.do(ctx, nil, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single product, consulting the cache first
func (c *StorefrontClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, productID)
		if err != nil {
			c.logger.WithError(err).WithField("product_id", productID).Warn("Product cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	var product models.Product
	if err := c.do(ctx, nil, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &product); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, &product); err != nil {
			c.logger.WithError(err).WithField("product_id", productID).Warn("Product cache write failed")
		}
	}
	return &product, nil
}

// InvalidateProduct drops a cached product
func (c *StorefrontClient) InvalidateProduct(ctx context.Context, productID string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Invalidate(ctx, productID)
}

// --- Reviews ---

// GetProductReviews fetches one page of a product's reviews. Pages start at 1.
func (c *StorefrontClient) GetProductReviews(ctx context.Context, id models.Identity, productID string, page int) ([]models.Review, error) {
	path := fmt.Sprintf("/products/%s/reviews?page=%s", url.PathEscape(productID), strconv.Itoa(page))
	var reviews []models.Review
	if err := c.do(ctx, &id, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetUserProductReview fetches the identity's own review of a product.
// Returns ErrNotFound when the user has not reviewed it.
func (c *StorefrontClient) GetUserProductReview(ctx context.Context, id models.Identity, productID string) (*models.Review, error) {
	path := fmt.Sprintf("/products/%s/reviews/%s", url.PathEscape(productID), url.PathEscape(id.UserID))
	var review models.Review
	if err := c.do(ctx, &id, http.MethodGet, path, nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// AddReview creates the identity's review. Returns ErrConflict if one exists.
func (c *StorefrontClient) AddReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error) {
	var review models.Review
	if err := c.do(ctx, &id, http.MethodPost, "/products/"+url.PathEscape(productID)+"/reviews", input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview updates the identity's review in place
func (c *StorefrontClient) UpdateReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error) {
	var review models.Review
	if err := c.do(ctx, &id, http.MethodPatch, "/products/"+url.PathEscape(productID)+"/reviews", input, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview deletes the identity's review
func (c *StorefrontClient) DeleteReview(ctx context.Context, id models.Identity, productID string) error {
	return c.do(ctx, &id, http.MethodDelete, "/products/"+url.PathEscape(productID)+"/reviews", nil, nil)
}

// --- Users ---

// GetUser fetches a user profile
func (c *StorefrontClient) GetUser(ctx context.Context, id models.Identity, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, &id, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login exchanges credentials for a token
func (c *StorefrontClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Email: email, Password: password}
	var resp models.LoginResponse
	if err := c.do(ctx, nil, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account
func (c *StorefrontClient) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.do(ctx, nil, http.MethodPost, "/register", req, nil)
}

// do performs a JSON request. id may be nil for anonymous calls; out may be nil
// when the response body is not needed.
func (c *StorefrontClient) do(ctx context.Context, id *models.Identity, method, path string, body, out interface{}) error {
	fail := func(kind error, status int, message string, cause error) error {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: status,
			Message:    message,
			kind:       kind,
			cause:      cause,
		}
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fail(ErrNetwork, 0, "rate limiter", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id != nil && id.Token != "" {
		req.Header.Set("Authorization", "Bearer "+id.Token)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: id.Token})
	}

	log := c.logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Storefront API request failed")
		return fail(ErrNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := kindForStatus(resp.StatusCode)
		if errors.Is(kind, ErrNotFound) {
			log.Debug("Storefront API resource not found")
		} else {
			log.Warn("Storefront API returned error status")
		}
		return fail(kind, resp.StatusCode, errorMessage(raw), nil)
	}

	log.Debug("Storefront API request completed")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fail(ErrNetwork, resp.StatusCode, "empty response body", nil)
		}
		return fail(ErrNetwork, resp.StatusCode, "failed to decode response", err)
	}
	return nil
}

// errorMessage pulls a human readable message out of an error body
func errorMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
