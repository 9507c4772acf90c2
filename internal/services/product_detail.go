package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"storefront-service/internal/models"
)

// LowStockThreshold is the stock level at or below which the exact count is shown
const LowStockThreshold = 10

// ProductGateway is the slice of the storefront API the product view needs
type ProductGateway interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// ProductDetail holds the product page state of one browser session: the
// product being viewed, the selected variant and the quantity to add
type ProductDetail struct {
	gateway ProductGateway
	logger  *logrus.Entry

	mu       sync.RWMutex
	product  *models.Product
	variant  int
	quantity int
}

// NewProductDetail creates an empty product view
func NewProductDetail(gateway ProductGateway, logger *logrus.Entry) *ProductDetail {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ProductDetail{
		gateway:  gateway,
		logger:   logger.WithField("component", "services.product"),
		quantity: 1,
	}
}

// Load fetches productID and makes it the current product. Selecting a
// different product resets the variant to the first one and the quantity to 1.
func (d *ProductDetail) Load(ctx context.Context, productID string) (models.ProductView, error) {
	if strings.TrimSpace(productID) == "" {
		return models.ProductView{}, ErrInvalidProduct
	}
	product, err := d.gateway.GetProduct(ctx, productID)
	if err != nil {
		d.logger.WithError(err).WithField("product_id", productID).Warn("Failed to load product")
		return models.ProductView{}, err
	}

	d.mu.Lock()
	if d.product == nil || d.product.ID != product.ID {
		d.variant = 0
		d.quantity = 1
	}
	d.product = product
	if d.variant >= len(product.Variants) {
		d.variant = 0
	}
	view := d.viewLocked()
	d.mu.Unlock()
	return view, nil
}

// List returns the catalog
func (d *ProductDetail) List(ctx context.Context) ([]models.Product, error) {
	products, err := d.gateway.GetProducts(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("Failed to list products")
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// SelectVariant selects the variant with the given sku
func (d *ProductDetail) SelectVariant(sku string) (models.ProductView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.product == nil {
		return models.ProductView{}, ErrNoProduct
	}
	for i, v := range d.product.Variants {
		if v.SKU == sku {
			d.variant = i
			return d.viewLocked(), nil
		}
	}
	return models.ProductView{}, fmt.Errorf("%w: %s", ErrUnknownVariant, sku)
}

// SetQuantity sets the quantity to add. Values below 1 are clamped to 1.
func (d *ProductDetail) SetQuantity(quantity int) (models.ProductView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.product == nil {
		return models.ProductView{}, ErrNoProduct
	}
	if quantity < 1 {
		quantity = 1
	}
	d.quantity = quantity
	return d.viewLocked(), nil
}

// Selection returns the current product id and quantity
func (d *ProductDetail) Selection() (string, int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.product == nil {
		return "", 0, ErrNoProduct
	}
	return d.product.ID, d.quantity, nil
}

// View returns the current product view
func (d *ProductDetail) View() (models.ProductView, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.product == nil {
		return models.ProductView{}, ErrNoProduct
	}
	return d.viewLocked(), nil
}

func (d *ProductDetail) viewLocked() models.ProductView {
	product := *d.product
	view := models.ProductView{
		Product:        product,
		Quantity:       d.quantity,
		DisplayPrice:   product.Price,
		Stock:          StockLabel(product.Stock),
		Images:         ProductImages(product),
		Specifications: HumanizeSpecifications(product.Specifications),
		VariantLabel:   VariantLabel(product.Variants),
	}
	if len(product.Variants) > 0 {
		v := product.Variants[d.variant]
		view.SelectedVariant = &v
		if v.Price > 0 {
			view.DisplayPrice = v.Price
		}
	}
	return view
}

// StockLabel renders the stock line shown next to the price
func StockLabel(stock *int) models.StockInfo {
	switch {
	case stock == nil:
		return models.StockInfo{Text: "Stock information unavailable", Level: "unknown"}
	case *stock <= LowStockThreshold:
		return models.StockInfo{Text: fmt.Sprintf("Limited Stock available: %d", *stock), Level: "limited"}
	default:
		return models.StockInfo{Text: "In Stock", Level: "in_stock"}
	}
}

// ProductImages returns the gallery images, full size first
func ProductImages(product models.Product) []string {
	images := make([]string, 0, 2)
	for _, src := range []string{product.ImageURL, product.ThumbnailURL} {
		if src != "" {
			images = append(images, src)
		}
	}
	return images
}

// VariantLabel names the variant picker. Watches pick a band colour.
func VariantLabel(variants []models.Variant) string {
	if len(variants) > 0 && variants[0].Band != "" {
		return "Band Color"
	}
	return "Color"
}

// HumanizeSpecifications turns spec keys like battery_life into Battery Life,
// sorted by key
func HumanizeSpecifications(specs map[string]string) []models.Specification {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.Specification, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.Specification{Key: k, Label: humanizeKey(k), Value: specs[k]})
	}
	return out
}

func humanizeKey(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
