package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/clients"
	"storefront-service/internal/models"
)

func intPtr(v int) *int { return &v }

func TestStockLabel(t *testing.T) {
	tests := []struct {
		name  string
		stock *int
		want  models.StockInfo
	}{
		{"unknown", nil, models.StockInfo{Text: "Stock information unavailable", Level: "unknown"}},
		{"sold out", intPtr(0), models.StockInfo{Text: "Limited Stock available: 0", Level: "limited"}},
		{"at threshold", intPtr(10), models.StockInfo{Text: "Limited Stock available: 10", Level: "limited"}},
		{"plenty", intPtr(11), models.StockInfo{Text: "In Stock", Level: "in_stock"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StockLabel(tt.stock))
		})
	}
}

func TestHumanizeSpecifications(t *testing.T) {
	specs := HumanizeSpecifications(map[string]string{
		"battery_life": "20h",
		"weight":       "180g",
		"screen-size":  "6.1in",
	})

	require.Len(t, specs, 3)
	assert.Equal(t, models.Specification{Key: "battery_life", Label: "Battery Life", Value: "20h"}, specs[0])
	assert.Equal(t, "Screen Size", specs[1].Label)
	assert.Equal(t, "Weight", specs[2].Label)
	assert.Empty(t, HumanizeSpecifications(nil))
}

func TestVariantLabelAndImages(t *testing.T) {
	assert.Equal(t, "Color", VariantLabel(nil))
	assert.Equal(t, "Color", VariantLabel([]models.Variant{{SKU: "a", Color: "Black"}}))
	assert.Equal(t, "Band Color", VariantLabel([]models.Variant{{SKU: "w", Band: "Sport"}}))

	assert.Equal(t, []string{"full.png", "thumb.png"}, ProductImages(models.Product{ImageURL: "full.png", ThumbnailURL: "thumb.png"}))
	assert.Equal(t, []string{"thumb.png"}, ProductImages(models.Product{ThumbnailURL: "thumb.png"}))
}

func TestProductDetail_SelectionLifecycle(t *testing.T) {
	phone := &models.Product{
		ID:    "prod-1",
		Name:  "Phone",
		Price: 699,
		Stock: intPtr(4),
		Variants: []models.Variant{
			{SKU: "ph-black", Price: 699, Color: "Black"},
			{SKU: "ph-blue", Price: 749, Color: "Blue"},
		},
	}
	mockGateway := new(MockGateway)
	mockGateway.On("GetProduct", mock.Anything, "prod-1").Return(phone, nil)

	detail := NewProductDetail(mockGateway, testLogger())
	_, err := detail.View()
	assert.ErrorIs(t, err, ErrNoProduct)

	view, err := detail.Load(context.Background(), "prod-1")
	require.NoError(t, err)
	require.NotNil(t, view.SelectedVariant)
	assert.Equal(t, "ph-black", view.SelectedVariant.SKU)
	assert.Equal(t, 1, view.Quantity)
	assert.Equal(t, "Limited Stock available: 4", view.Stock.Text)

	view, err = detail.SelectVariant("ph-blue")
	require.NoError(t, err)
	assert.Equal(t, 749.0, view.DisplayPrice)

	_, err = detail.SelectVariant("missing")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	view, err = detail.SetQuantity(0)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Quantity)
	view, err = detail.SetQuantity(3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Quantity)

	view, err = detail.Load(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "ph-blue", view.SelectedVariant.SKU)
	assert.Equal(t, 3, view.Quantity)

	id, qty, err := detail.Selection()
	require.NoError(t, err)
	assert.Equal(t, "prod-1", id)
	assert.Equal(t, 3, qty)
}

func TestProductDetail_LoadFailure(t *testing.T) {
	mockGateway := new(MockGateway)
	mockGateway.On("GetProduct", mock.Anything, "nope").Return(nil, clients.ErrNotFound)

	detail := NewProductDetail(mockGateway, testLogger())
	_, err := detail.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, clients.ErrNotFound)
	_, err = detail.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, _, err = detail.Selection()
	assert.ErrorIs(t, err, ErrNoProduct)
}

func TestProductDetail_List(t *testing.T) {
	mockGateway := new(MockGateway)
	mockGateway.On("GetProducts", mock.Anything).Return(nil, nil).Once()

	detail := NewProductDetail(mockGateway, testLogger())
	products, err := detail.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}
