package services

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"storefront-service/internal/models"
)

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

// Ensure MockGateway implements the interface
var _ Gateway = (*MockGateway)(nil)

func (m *MockGateway) GetCart(ctx context.Context, id models.Identity) (*models.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockGateway) AddToCart(ctx context.Context, id models.Identity, productID string, quantity int) error {
	args := m.Called(ctx, id, productID, quantity)
	return args.Error(0)
}

func (m *MockGateway) ReduceCartItem(ctx context.Context, id models.Identity, productID string) error {
	args := m.Called(ctx, id, productID)
	return args.Error(0)
}

func (m *MockGateway) RemoveFromCart(ctx context.Context, id models.Identity, productID string) error {
	args := m.Called(ctx, id, productID)
	return args.Error(0)
}

func (m *MockGateway) GetProductReviews(ctx context.Context, id models.Identity, productID string, page int) ([]models.Review, error) {
	args := m.Called(ctx, id, productID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockGateway) GetUserProductReview(ctx context.Context, id models.Identity, productID string) (*models.Review, error) {
	args := m.Called(ctx, id, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockGateway) AddReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, id, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockGateway) UpdateReview(ctx context.Context, id models.Identity, productID string, input models.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, id, productID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockGateway) DeleteReview(ctx context.Context, id models.Identity, productID string) error {
	args := m.Called(ctx, id, productID)
	return args.Error(0)
}

func (m *MockGateway) GetUser(ctx context.Context, id models.Identity, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockGateway) Register(ctx context.Context, req models.RegisterRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockGateway) GetProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockGateway) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

var testIdentity = models.Identity{UserID: "user-1", Email: "user1@example.com", Token: "token-1"}
