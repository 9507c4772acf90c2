package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
	"storefront-service/internal/services"
)

var _ services.Gateway = (*fakeAPI)(nil)

// fakeAPI is an in-memory storefront API
type fakeAPI struct {
	mu          sync.Mutex
	products    map[string]models.Product
	carts       map[string][]models.CartItem
	reviews     map[string][]models.Review
	userReviews map[string]map[string]*models.Review
	cartErr     error
	nextID      int
}

func newFakeAPI() *fakeAPI {
	stock := 4
	return &fakeAPI{
		products: map[string]models.Product{
			"p1": {
				ID:    "p1",
				Name:  "Smart Watch",
				Price: 199.99,
				Stock: &stock,
				Variants: []models.Variant{
					{SKU: "W-BLK", Price: 199.99, Band: "Black"},
					{SKU: "W-RED", Price: 209.99, Band: "Red"},
				},
				Specifications: map[string]string{"battery_life": "2 days"},
				ImageURL:       "https://cdn.example.com/p1.png",
			},
			"p2": {ID: "p2", Name: "Charger", Price: 25},
		},
		carts:       map[string][]models.CartItem{},
		reviews:     map[string][]models.Review{},
		userReviews: map[string]map[string]*models.Review{},
	}
}

func (f *fakeAPI) seedReviews(productID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 1; i <= n; i++ {
		f.reviews[productID] = append(f.reviews[productID], models.Review{
			ID:         fmt.Sprintf("r-%d", i),
			UserID:     fmt.Sprintf("other-%d", i),
			UserName:   fmt.Sprintf("Reviewer %d", i),
			Title:      "Nice",
			Rating:     4,
			ReviewText: "Works well",
		})
	}
}

func (f *fakeAPI) seedUserReview(productID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review := models.Review{ID: "mine", UserID: userID, Title: "Mine", Rating: 5, ReviewText: "Love it"}
	if f.userReviews[productID] == nil {
		f.userReviews[productID] = map[string]*models.Review{}
	}
	f.userReviews[productID][userID] = &review
	f.reviews[productID] = append([]models.Review{review}, f.reviews[productID]...)
}

func (f *fakeAPI) GetCart(ctx context.Context, id models.Identity) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	items := append([]models.CartItem(nil), f.carts[id.UserID]...)
	return &models.Cart{Items: items}, nil
}

func (f *fakeAPI) AddToCart(ctx context.Context, id models.Identity, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productID]
	if !ok {
		return clients.ErrNotFound
	}
	items := f.carts[id.UserID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return nil
		}
	}
	f.carts[id.UserID] = append(items, models.CartItem{
		ProductID:   productID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    quantity,
	})
	return nil
}

func (f *fakeAPI) ReduceCartItem(ctx context.Context, id models.Identity, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.carts[id.UserID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity--
			if items[i].Quantity == 0 {
				f.carts[id.UserID] = append(items[:i], items[i+1:]...)
			}
			return nil
		}
	}
	return clients.ErrNotFound
}

func (f *fakeAPI) RemoveFromCart(ctx context.Context, id models.Identity, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.carts[id.UserID]
	for i := range items {
		if items[i].ProductID == productID {
			f.carts[id.UserID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeAPI) GetProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []models.Product{f.products["p1"], f.products["p2"]}, nil
}

func (f *fakeAPI) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: product not found", clients.ErrNotFound)
	}
	return &product, nil
}

func (f *fakeAPI) GetProductReviews(ctx context.Context, id models.Identity, productID string, page int) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.reviews[productID]
	start := (page - 1) * 5
	if start >= len(all) {
		return []models.Review{}, nil
	}
	end := start + 5
	if end > len(all) {
		end = len(all)
	}
	return append([]models.Review(nil), all[start:end]...), nil
}

func (f *fakeAPI) GetUserProductReview(ctx context.Context, id models.Identity, productID string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.userReviews[productID][id.UserID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	copied := *review
	return &copied, nil
}

func (f *fakeAPI) AddReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.userReviews[productID][id.UserID]; ok {
		return nil, fmt.Errorf("%w: already reviewed", clients.ErrConflict)
	}
	f.nextID++
	review := models.Review{
		ID:         fmt.Sprintf("new-%d", f.nextID),
		UserID:     id.UserID,
		Title:      input.Title,
		Rating:     input.Rating,
		ReviewText: input.ReviewText,
		CreatedAt:  time.Now(),
	}
	if f.userReviews[productID] == nil {
		f.userReviews[productID] = map[string]*models.Review{}
	}
	f.userReviews[productID][id.UserID] = &review
	copied := review
	return &copied, nil
}

func (f *fakeAPI) UpdateReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	review, ok := f.userReviews[productID][id.UserID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	review.Title = input.Title
	review.Rating = input.Rating
	review.ReviewText = input.ReviewText
	copied := *review
	return &copied, nil
}

func (f *fakeAPI) DeleteReview(ctx context.Context, id models.Identity, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.userReviews[productID], id.UserID)
	return nil
}

func (f *fakeAPI) GetUser(ctx context.Context, id models.Identity, userID string) (*models.UserProfile, error) {
	return &models.UserProfile{ID: userID, Name: "Test User", Email: id.Email}, nil
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if password != "secret" {
		return nil, fmt.Errorf("%w: invalid credentials", clients.ErrUnauthorized)
	}
	return &models.LoginResponse{Token: signToken("user-1", email)}, nil
}

func (f *fakeAPI) Register(ctx context.Context, req models.RegisterRequest) error {
	if req.Email == "taken@example.com" {
		return fmt.Errorf("%w: email already registered", clients.ErrConflict)
	}
	return nil
}

func signToken(userID, email string) string {
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"exp":   float64(time.Now().Add(time.Hour).Unix()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
